package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/errors"
	"github.com/todmy/reasoning-engine/internal/reasoning"
)

const maxBodyBytes = 1 << 20

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"model_version": reasoning.ModelVersion,
		"backends":      s.reasoner.Backends(),
		"local_model":   s.local,
		"archive":       s.analyses != nil,
		"embeddings":    s.embedder != nil,
	})
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched and reports false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) (bool, error) {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, io.EOF):
		return false, nil
	default:
		return false, errors.InvalidInput("invalid request body")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}

// respondAppError maps an error's code to an HTTP status. Messages of
// unexpected failures are logged, not returned.
func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		s.logger.Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, errors.CodeInternalError, "internal error")
		return
	}

	status := statusFor(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}
	respondError(w, status, appErr.Code, appErr.Message)
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeUnauthorized:
		return http.StatusUnauthorized
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeExternalService:
		return http.StatusBadGateway
	case errors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
