package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/todmy/reasoning-engine/internal/analysis"
	"github.com/todmy/reasoning-engine/internal/errors"
	"github.com/todmy/reasoning-engine/pkg/models"
)

const (
	gapPenalty      = 0.1
	fallacyPenalty  = 0.15
	validThreshold  = 0.6
	defaultStrength = DefaultStepConfidence
)

// ValidateRequest is a user-written chain given as plain statements
type ValidateRequest struct {
	Claim         string               `json:"claim"`
	Steps         []string             `json:"reasoning_steps"`
	Evidence      []string             `json:"evidence"`
	ReasoningType models.ReasoningType `json:"reasoning_type"`
}

// Issues groups the problems found while validating a chain
type Issues struct {
	LogicalGaps []models.GapRecord     `json:"logical_gaps"`
	Fallacies   []models.FallacyRecord `json:"fallacies"`
}

// ValidationResult scores a user-written chain
type ValidationResult struct {
	ValidationScore float64  `json:"validation_score"`
	LogicalValidity float64  `json:"logical_validity"`
	IsValid         bool     `json:"is_valid"`
	Issues          Issues   `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

// GapReport lists the structural gaps of a user-written chain
type GapReport struct {
	LogicalGaps          []models.GapRecord `json:"logical_gaps"`
	GapSeverity          float64            `json:"gap_severity"`
	EvidenceRequirements []string           `json:"evidence_requirements"`
}

// StrengthenResult pairs a user-written chain with its repaired version
type StrengthenResult struct {
	Original         models.ReasoningChain `json:"original_reasoning"`
	Strengthened     models.ReasoningChain `json:"strengthened_reasoning"`
	Improvements     []string              `json:"improvements"`
	StrengthIncrease float64               `json:"strength_increase"`
}

// ChainFromStatements types the statements positionally: the first is a
// premise, the last a conclusion and everything between an inference. A
// single statement is a premise. Premises cite all of evidence.
func ChainFromStatements(statements []string, evidence []string, reasoningType models.ReasoningType) models.ReasoningChain {
	steps := make([]models.ReasoningStep, 0, len(statements))
	last := len(statements) - 1

	for i, text := range statements {
		stepType := models.StepInference
		switch {
		case i == 0:
			stepType = models.StepPremise
		case i == last:
			stepType = models.StepConclusion
		}

		used := []string{}
		if stepType == models.StepPremise {
			used = append(used, evidence...)
		}
		steps = append(steps, models.ReasoningStep{
			Text:         strings.TrimSpace(text),
			Confidence:   defaultStrength,
			Type:         stepType,
			EvidenceUsed: used,
		})
	}

	return newChain(steps, reasoningType)
}

func (e *Engine) validateInput(req ValidateRequest) (ValidateRequest, error) {
	req.Claim = strings.TrimSpace(req.Claim)
	if req.Claim == "" {
		return req, errors.InvalidInput("claim is required")
	}

	steps := make([]string, 0, len(req.Steps))
	for _, s := range req.Steps {
		if s = strings.TrimSpace(s); s != "" {
			steps = append(steps, s)
		}
	}
	if len(steps) == 0 {
		return req, errors.InvalidInput("reasoning_steps must contain at least one statement")
	}
	req.Steps = steps

	if req.ReasoningType == "" {
		req.ReasoningType = models.Deductive
	}
	rt, err := models.ParseReasoningType(string(req.ReasoningType))
	if err != nil {
		return req, errors.InvalidInput(err.Error())
	}
	req.ReasoningType = rt

	if req.Evidence == nil {
		req.Evidence = []string{}
	}
	return req, nil
}

// Validate scores a user-written chain as its validity less a penalty per
// gap and per fallacy. The chain is valid when the score exceeds 0.6.
func (e *Engine) Validate(ctx context.Context, req ValidateRequest) (*ValidationResult, error) {
	req, err := e.validateInput(req)
	if err != nil {
		return nil, err
	}

	chain := ChainFromStatements(req.Steps, req.Evidence, req.ReasoningType)
	score, gaps, fallacies := validationScore(chain, req.Evidence)

	return &ValidationResult{
		ValidationScore: score,
		LogicalValidity: chain.LogicalValidity,
		IsValid:         score > validThreshold,
		Issues: Issues{
			LogicalGaps: gaps,
			Fallacies:   fallacies,
		},
		Recommendations: recommendations(gaps, fallacies),
	}, nil
}

// IdentifyGaps reports the gaps of a user-written chain with their mean
// severity and the evidence that would close them.
func (e *Engine) IdentifyGaps(ctx context.Context, req ValidateRequest) (*GapReport, error) {
	req, err := e.validateInput(req)
	if err != nil {
		return nil, err
	}

	chain := ChainFromStatements(req.Steps, req.Evidence, req.ReasoningType)
	gaps := analysis.IdentifyGaps(chain, req.Evidence)

	return &GapReport{
		LogicalGaps:          gaps,
		GapSeverity:          analysis.GapSeverity(gaps),
		EvidenceRequirements: analysis.IdentifyRequirements(chain),
	}, nil
}

// Strengthen repairs a user-written chain: weakly connected steps get a
// connective, a lone statement gets a conclusion restating the claim, and
// remaining unsupported premises and fallacies become advice. The increase
// is the change in validation score.
func (e *Engine) Strengthen(ctx context.Context, req ValidateRequest) (*StrengthenResult, error) {
	req, err := e.validateInput(req)
	if err != nil {
		return nil, err
	}

	original := ChainFromStatements(req.Steps, req.Evidence, req.ReasoningType)
	before, _, _ := validationScore(original, req.Evidence)

	improvements := []string{}
	steps := make([]models.ReasoningStep, len(original.Steps))
	copy(steps, original.Steps)

	if len(steps) == 1 {
		steps = append(steps, models.ReasoningStep{
			Text:         "Therefore, " + req.Claim,
			Confidence:   defaultStrength,
			Type:         models.StepConclusion,
			EvidenceUsed: []string{},
		})
		improvements = append(improvements, "Added a conclusion stating the claim")
	}

	for i := 1; i < len(steps); i++ {
		if analysis.StepsConnected(steps[i-1], steps[i]) {
			continue
		}
		connective := "Thus, "
		if steps[i].Type == models.StepConclusion {
			connective = "Therefore, "
		}
		steps[i].Text = connective + lowerFirst(steps[i].Text)
		improvements = append(improvements, fmt.Sprintf("Added a logical connective to step %d", i+1))
	}

	strengthened := newChain(steps, req.ReasoningType)
	after, _, fallacies := validationScore(strengthened, req.Evidence)

	for _, s := range strengthened.Steps {
		if s.Type == models.StepPremise && len(s.EvidenceUsed) == 0 {
			improvements = append(improvements, fmt.Sprintf("Provide evidence supporting step %d", s.StepNumber))
		}
	}
	improvements = append(improvements, fallacyAdvice(fallacies)...)

	return &StrengthenResult{
		Original:         original,
		Strengthened:     strengthened,
		Improvements:     improvements,
		StrengthIncrease: after - before,
	}, nil
}

func validationScore(chain models.ReasoningChain, evidence []string) (float64, []models.GapRecord, []models.FallacyRecord) {
	gaps := analysis.IdentifyGaps(chain, evidence)
	fallacies := analysis.DetectFallacies(chain)
	score := chain.LogicalValidity -
		gapPenalty*float64(len(gaps)) -
		fallacyPenalty*float64(len(fallacies))
	return models.Clamp01(score), gaps, fallacies
}

// recommendations lists each distinct gap suggestion followed by advice for
// each distinct fallacy type
func recommendations(gaps []models.GapRecord, fallacies []models.FallacyRecord) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, g := range gaps {
		if g.Suggestion == "" || seen[g.Suggestion] {
			continue
		}
		seen[g.Suggestion] = true
		out = append(out, g.Suggestion)
	}
	return append(out, fallacyAdvice(fallacies)...)
}

func fallacyAdvice(fallacies []models.FallacyRecord) []string {
	out := []string{}
	seen := map[models.FallacyType]bool{}
	for _, f := range fallacies {
		if seen[f.Type] {
			continue
		}
		seen[f.Type] = true
		out = append(out, fmt.Sprintf("Revise wording that suggests %s: %s",
			strings.ReplaceAll(string(f.Type), "_", " "),
			strings.ToLower(analysis.FallacyDescription(f.Type))))
	}
	return out
}
