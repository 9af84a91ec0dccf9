package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents the login response
type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ErrorResponse matches the error body of the rest of the API
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handlers holds the HTTP handlers for auth endpoints
type Handlers struct {
	service Service
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{service: service, logger: logger}
}

// Register handles POST /auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "email and password are required")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err, "registration failed")
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "email and password are required")
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err, "login failed")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{Token: token, User: user})
}

// Me handles GET /auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetUserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":    claims.UserID,
		"email": claims.Email,
	})
}

func (h *Handlers) fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrWeakPassword):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, ErrUserExists):
		respondError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	case errors.Is(err, ErrAccountsDisabled):
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msg)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}
