package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/auth"
	"github.com/todmy/reasoning-engine/internal/errors"
	"github.com/todmy/reasoning-engine/internal/storage"
)

// archive stores result for the authenticated caller. It never fails the
// request: without a user or an archive nothing happens, and storage errors
// are logged.
func (s *Server) archive(r *http.Request, kind, claim, reasoningType string, validity float64, result interface{}) (uuid.UUID, bool) {
	if s.analyses == nil {
		return uuid.Nil, false
	}
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	userID, err := claims.UserUUID()
	if err != nil {
		return uuid.Nil, false
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("failed to encode analysis for archive", zap.Error(err))
		return uuid.Nil, false
	}

	a := &storage.Analysis{
		UserID:        userID,
		Kind:          kind,
		Claim:         claim,
		ReasoningType: reasoningType,
		Validity:      validity,
		Result:        payload,
	}

	if s.embedder != nil {
		vectors, err := s.embedder.EmbedTexts(r.Context(), []string{claim})
		if err != nil {
			s.logger.Warn("claim embedding failed; archiving without vector", zap.Error(err))
		} else if len(vectors) == 1 {
			v := pgvector.NewVector(vectors[0])
			a.ClaimEmbedding = &v
		}
	}

	if err := s.analyses.Create(r.Context(), a); err != nil {
		s.logger.Error("failed to archive analysis", zap.String("kind", kind), zap.Error(err))
		return uuid.Nil, false
	}
	return a.ID, true
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.archiveUser(w, r)
	if !ok {
		return
	}

	limit := clamp(queryInt(r, "limit", 20), 1, maxPageSize)
	offset := clamp(queryInt(r, "offset", 0), 0, math.MaxInt32)

	analyses, err := s.analyses.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, analyses)
}

func (s *Server) handleSimilarAnalyses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.archiveUser(w, r)
	if !ok {
		return
	}
	if s.embedder == nil {
		s.respondAppError(w, r, errors.Unavailable("similarity search requires an embedding provider"))
		return
	}

	claim := strings.TrimSpace(r.URL.Query().Get("claim"))
	if claim == "" {
		s.respondAppError(w, r, errors.InvalidInput("claim query parameter is required"))
		return
	}

	threshold := 0.75
	if v := r.URL.Query().Get("threshold"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t <= 0 || t > 1 {
			s.respondAppError(w, r, errors.InvalidInput("threshold must be in (0, 1]"))
			return
		}
		threshold = t
	}

	vectors, err := s.embedder.EmbedTexts(r.Context(), []string{claim})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	if len(vectors) != 1 {
		s.respondAppError(w, r, errors.InternalError("embedding provider returned no vector"))
		return
	}

	results, err := s.analyses.FindSimilar(r.Context(), userID, pgvector.NewVector(vectors[0]), clamp(queryInt(r, "limit", 10), 1, maxPageSize), threshold)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.archiveUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
	if err != nil {
		s.respondAppError(w, r, errors.InvalidInput("invalid analysis ID"))
		return
	}

	a, err := s.analyses.GetByID(r.Context(), id)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	// Another user's analysis is reported as missing
	if a == nil || a.UserID != userID {
		s.respondAppError(w, r, errors.NotFound("analysis"))
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.archiveUser(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
	if err != nil {
		s.respondAppError(w, r, errors.InvalidInput("invalid analysis ID"))
		return
	}

	if err := s.analyses.Delete(r.Context(), id, userID); err != nil {
		s.respondAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// archiveUser resolves the caller for archive endpoints, writing the error response itself
func (s *Server) archiveUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.analyses == nil {
		s.respondAppError(w, r, errors.Unavailable("analysis archive requires a database"))
		return uuid.Nil, false
	}
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		s.respondAppError(w, r, errors.Unauthorized("unauthorized"))
		return uuid.Nil, false
	}
	userID, err := claims.UserUUID()
	if err != nil {
		s.respondAppError(w, r, errors.Unauthorized("invalid token"))
		return uuid.Nil, false
	}
	return userID, true
}

// maxPageSize caps list and similarity results per request
const maxPageSize = 100

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
