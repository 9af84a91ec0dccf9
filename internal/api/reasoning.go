package api

import (
	"net/http"
	"strings"

	"github.com/todmy/reasoning-engine/internal/errors"
	"github.com/todmy/reasoning-engine/internal/network"
	"github.com/todmy/reasoning-engine/internal/reasoning"
	"github.com/todmy/reasoning-engine/internal/storage"
	"github.com/todmy/reasoning-engine/pkg/models"
)

type generateRequest struct {
	Claim         string   `json:"claim"`
	Evidence      []string `json:"evidence"`
	ReasoningType string   `json:"reasoning_type"`
	Complexity    string   `json:"complexity"`
	MaxSteps      int      `json:"max_steps"`
	UseExternal   *bool    `json:"use_external"`
	// UseLLM is accepted as an older name for UseExternal
	UseLLM *bool `json:"use_llm"`
}

// useExternal defaults to true so configured backends are used unless the caller opts out
func (g generateRequest) useExternal() bool {
	switch {
	case g.UseExternal != nil:
		return *g.UseExternal
	case g.UseLLM != nil:
		return *g.UseLLM
	}
	return true
}

type analyzeRequest struct {
	Claim         string                 `json:"claim"`
	Chain         *models.ReasoningChain `json:"reasoning_chain"`
	Steps         []string               `json:"reasoning_steps"`
	Evidence      []string               `json:"evidence"`
	ReasoningType string                 `json:"reasoning_type"`
}

type multiClaimRequest struct {
	Claims        []string               `json:"claims"`
	Relationships []network.Relationship `json:"relationships"`
	ReasoningType string                 `json:"reasoning_type"`
	MaxDepth      int                    `json:"max_depth"`
	UseExternal   *bool                  `json:"use_external"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if _, err := decodeJSON(w, r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	resp, err := s.reasoner.GenerateChain(r.Context(), reasoning.GenerateRequest{
		Claim:         req.Claim,
		Evidence:      req.Evidence,
		ReasoningType: models.ReasoningType(req.ReasoningType),
		Complexity:    models.Complexity(req.Complexity),
		MaxSteps:      req.MaxSteps,
		UseExternal:   req.useExternal(),
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	validity := 0.0
	if len(resp.Chains) > 0 {
		validity = resp.Chains[0].LogicalValidity
	}
	rt, _ := resp.Metadata["reasoning_type"].(models.ReasoningType)
	if id, ok := s.archive(r, storage.KindChain, strings.TrimSpace(req.Claim), string(rt), validity, resp); ok {
		resp.Metadata["analysis_id"] = id
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if _, err := decodeJSON(w, r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	claim := strings.TrimSpace(req.Claim)
	if claim == "" {
		s.respondAppError(w, r, errors.InvalidInput("claim is required"))
		return
	}
	if req.Evidence == nil {
		req.Evidence = []string{}
	}

	var chain models.ReasoningChain
	switch {
	case req.Chain != nil && len(req.Chain.Steps) > 0:
		chain = *req.Chain
	case len(req.Steps) > 0:
		rt := models.Deductive
		if req.ReasoningType != "" {
			parsed, err := models.ParseReasoningType(req.ReasoningType)
			if err != nil {
				s.respondAppError(w, r, errors.InvalidInput(err.Error()))
				return
			}
			rt = parsed
		}
		chain = reasoning.ChainFromStatements(req.Steps, req.Evidence, rt)
	default:
		s.respondAppError(w, r, errors.InvalidInput("reasoning_chain or reasoning_steps is required"))
		return
	}

	respondJSON(w, http.StatusOK, s.reasoner.AnalyzeChain(r.Context(), claim, chain, req.Evidence))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValidateRequest(w, r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	result, err := s.reasoner.Validate(r.Context(), req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValidateRequest(w, r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	report, err := s.reasoner.IdentifyGaps(r.Context(), req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleStrengthen(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValidateRequest(w, r)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	result, err := s.reasoner.Strengthen(r.Context(), req)
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleMultiClaim(w http.ResponseWriter, r *http.Request) {
	var req multiClaimRequest
	if _, err := decodeJSON(w, r, &req); err != nil {
		s.respondAppError(w, r, err)
		return
	}

	useExternal := true
	if req.UseExternal != nil {
		useExternal = *req.UseExternal
	}

	result, err := s.network.Analyze(r.Context(), network.Request{
		Claims:        req.Claims,
		Relationships: req.Relationships,
		ReasoningType: models.ReasoningType(req.ReasoningType),
		MaxDepth:      req.MaxDepth,
		UseExternal:   useExternal,
	})
	if err != nil {
		s.respondAppError(w, r, err)
		return
	}

	rt := models.Deductive
	if len(result.PrimaryChains) > 0 {
		rt = result.PrimaryChains[0].ReasoningType
	}
	s.archive(r, storage.KindNetwork, joinClaims(req.Claims), string(rt), result.NetworkValidity, result)

	respondJSON(w, http.StatusOK, result)
}

// decodeValidateRequest accepts a JSON body or, when the body is empty, query
// parameters with repeated reasoning_steps and evidence values.
func decodeValidateRequest(w http.ResponseWriter, r *http.Request) (reasoning.ValidateRequest, error) {
	var req reasoning.ValidateRequest
	ok, err := decodeJSON(w, r, &req)
	if err != nil || ok {
		return req, err
	}

	q := r.URL.Query()
	return reasoning.ValidateRequest{
		Claim:         q.Get("claim"),
		Steps:         q["reasoning_steps"],
		Evidence:      q["evidence"],
		ReasoningType: models.ReasoningType(q.Get("reasoning_type")),
	}, nil
}

func joinClaims(claims []string) string {
	trimmed := make([]string, 0, len(claims))
	for _, c := range claims {
		if c = strings.TrimSpace(c); c != "" {
			trimmed = append(trimmed, c)
		}
	}
	return strings.Join(trimmed, "\n")
}
