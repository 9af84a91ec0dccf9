package models

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// ReasoningType selects the logical direction of a chain
type ReasoningType string

const (
	Deductive ReasoningType = "deductive"
	Inductive ReasoningType = "inductive"
	Abductive ReasoningType = "abductive"
)

// ParseReasoningType accepts a reasoning type name in any case
func ParseReasoningType(s string) (ReasoningType, error) {
	switch ReasoningType(strings.ToLower(strings.TrimSpace(s))) {
	case Deductive:
		return Deductive, nil
	case Inductive:
		return Inductive, nil
	case Abductive:
		return Abductive, nil
	}
	return "", fmt.Errorf("unknown reasoning type %q", s)
}

// Complexity is the requested sophistication of generated reasoning
type Complexity string

const (
	Basic        Complexity = "basic"
	Intermediate Complexity = "intermediate"
	Advanced     Complexity = "advanced"
	Expert       Complexity = "expert"
)

// ParseComplexity accepts a complexity tier name in any case
func ParseComplexity(s string) (Complexity, error) {
	switch Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case Basic:
		return Basic, nil
	case Intermediate:
		return Intermediate, nil
	case Advanced:
		return Advanced, nil
	case Expert:
		return Expert, nil
	}
	return "", fmt.Errorf("unknown complexity %q", s)
}

// Step types that carry meaning for the analysis suite. Parsed chains may
// contain other free-form types.
const (
	StepPremise    = "premise"
	StepInference  = "inference"
	StepConclusion = "conclusion"
)

// FallacyType enumerates the detectable informal fallacies
type FallacyType string

const (
	AdHominem           FallacyType = "ad_hominem"
	StrawMan            FallacyType = "straw_man"
	FalseDichotomy      FallacyType = "false_dichotomy"
	SlipperySlope       FallacyType = "slippery_slope"
	AppealToAuthority   FallacyType = "appeal_to_authority"
	CircularReasoning   FallacyType = "circular_reasoning"
	HastyGeneralization FallacyType = "hasty_generalization"
	FalseCause          FallacyType = "false_cause"
	AppealToEmotion     FallacyType = "appeal_to_emotion"
	Bandwagon           FallacyType = "bandwagon"
)

// GapType enumerates structural weaknesses in a chain
type GapType string

const (
	MissingPremise        GapType = "missing_premise"
	InvalidInference      GapType = "invalid_inference"
	WeakConnection        GapType = "weak_connection"
	UnsupportedAssumption GapType = "unsupported_assumption"
	ContradictoryEvidence GapType = "contradictory_evidence"
)

// ReasoningStep is a single premise, inference or conclusion.
// Steps are values; once placed in a chain they are not modified.
type ReasoningStep struct {
	StepNumber   int      `json:"step_number"`
	Text         string   `json:"text"`
	Confidence   float64  `json:"confidence"`
	Type         string   `json:"type"`
	EvidenceUsed []string `json:"evidence_used"`
}

// Span is a character range [Start, End) within analyzed text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FallacyRecord is one pattern match found by the fallacy detector
type FallacyRecord struct {
	Type        FallacyType `json:"type"`
	Description string      `json:"description"`
	Confidence  float64     `json:"confidence"`
	Location    *Span       `json:"location,omitempty"`
	TextExcerpt string      `json:"text_excerpt,omitempty"`
}

// GapRecord describes a structural gap. Location is a 0-based step index.
type GapRecord struct {
	Type        GapType `json:"type"`
	Description string  `json:"description"`
	Severity    float64 `json:"severity"`
	Suggestion  string  `json:"suggestion"`
	Location    *int    `json:"location,omitempty"`
}

// IndividualStrength is the assessed strength of one premise step
type IndividualStrength struct {
	Step     int     `json:"step"`
	Strength float64 `json:"strength"`
}

// PremiseStrength summarizes how well supported the premises are.
// IndividualStrengths is nil when the chain has no premises.
type PremiseStrength struct {
	OverallStrength     float64              `json:"overall_strength"`
	PremiseCount        int                  `json:"premise_count"`
	IndividualStrengths []IndividualStrength `json:"individual_strengths,omitempty"`
}

// ReasoningChain is an ordered sequence of steps plus the results of the analysis pass
type ReasoningChain struct {
	Steps                []ReasoningStep `json:"steps"`
	ReasoningType        ReasoningType   `json:"reasoning_type"`
	OverallConfidence    float64         `json:"overall_confidence"`
	LogicalValidity      float64         `json:"logical_validity"`
	Fallacies            []FallacyRecord `json:"fallacies"`
	LogicalGaps          []GapRecord     `json:"logical_gaps"`
	Counterarguments     []string        `json:"counterarguments"`
	PremiseStrength      PremiseStrength `json:"premise_strength"`
	EvidenceRequirements []string        `json:"evidence_requirements"`
	Assumptions          []string        `json:"assumptions"`
	Weaknesses           []string        `json:"weaknesses"`
}

// NewReasoningChain builds a chain from steps, renumbering them 1..N in order
// and computing the overall confidence. Logical validity is left to the caller.
func NewReasoningChain(steps []ReasoningStep, reasoningType ReasoningType) ReasoningChain {
	numbered := make([]ReasoningStep, len(steps))
	for i, step := range steps {
		step.StepNumber = i + 1
		if step.EvidenceUsed == nil {
			step.EvidenceUsed = []string{}
		}
		numbered[i] = step
	}

	chain := ReasoningChain{
		Steps:             numbered,
		ReasoningType:     reasoningType,
		OverallConfidence: MeanConfidence(numbered),
	}
	chain.EnsureDefaults()
	return chain
}

// EnsureDefaults replaces nil list fields with empty lists
func (c *ReasoningChain) EnsureDefaults() {
	if c.Steps == nil {
		c.Steps = []ReasoningStep{}
	}
	if c.Fallacies == nil {
		c.Fallacies = []FallacyRecord{}
	}
	if c.LogicalGaps == nil {
		c.LogicalGaps = []GapRecord{}
	}
	if c.Counterarguments == nil {
		c.Counterarguments = []string{}
	}
	if c.EvidenceRequirements == nil {
		c.EvidenceRequirements = []string{}
	}
	if c.Assumptions == nil {
		c.Assumptions = []string{}
	}
	if c.Weaknesses == nil {
		c.Weaknesses = []string{}
	}
}

// HasStepType reports whether any step has the given type
func (c ReasoningChain) HasStepType(stepType string) bool {
	return HasStepType(c.Steps, stepType)
}

// HasStepType reports whether any of steps has the given type
func HasStepType(steps []ReasoningStep, stepType string) bool {
	for _, s := range steps {
		if s.Type == stepType {
			return true
		}
	}
	return false
}

// MeanConfidence is the arithmetic mean of step confidences, 0 for no steps
func MeanConfidence(steps []ReasoningStep) float64 {
	if len(steps) == 0 {
		return 0
	}
	values := make([]float64, len(steps))
	for i, s := range steps {
		values[i] = s.Confidence
	}
	return stat.Mean(values, nil)
}

// Clamp01 bounds v to [0, 1]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
