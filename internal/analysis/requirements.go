package analysis

import (
	"fmt"

	"github.com/todmy/reasoning-engine/pkg/models"
)

const (
	maxRequirements      = 5
	weakStepThreshold    = 0.6
	requirementExcerpt   = 50
	inductiveRequirement = "More examples or cases to strengthen generalization"
	abductiveRequirement = "Evidence ruling out alternative explanations"
)

// IdentifyRequirements lists evidence that would strengthen chain, at most five entries
func IdentifyRequirements(chain models.ReasoningChain) []string {
	reqs := []string{}

	for _, step := range chain.Steps {
		if step.Type == models.StepPremise && len(step.EvidenceUsed) == 0 {
			reqs = append(reqs, fmt.Sprintf("Evidence to support: %s...", excerpt(step.Text, requirementExcerpt)))
		}
	}

	for _, step := range chain.Steps {
		if step.Confidence < weakStepThreshold {
			reqs = append(reqs, fmt.Sprintf("Additional support needed for: %s...", excerpt(step.Text, requirementExcerpt)))
		}
	}

	switch chain.ReasoningType {
	case models.Inductive:
		reqs = append(reqs, inductiveRequirement)
	case models.Abductive:
		reqs = append(reqs, abductiveRequirement)
	}

	if len(reqs) > maxRequirements {
		reqs = reqs[:maxRequirements]
	}
	return reqs
}

// excerpt returns the first n characters of s
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
