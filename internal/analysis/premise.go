package analysis

import (
	"gonum.org/v1/gonum/stat"

	"github.com/todmy/reasoning-engine/pkg/models"
)

const evidenceBonus = 0.2

// AssessPremiseStrength scores each premise as its confidence plus a bonus
// when it cites evidence, clamped to 1. Without premises the result has no
// individual strengths.
func AssessPremiseStrength(chain models.ReasoningChain) models.PremiseStrength {
	var individual []models.IndividualStrength
	var strengths []float64

	for _, step := range chain.Steps {
		if step.Type != models.StepPremise {
			continue
		}
		strength := step.Confidence
		if len(step.EvidenceUsed) > 0 {
			strength += evidenceBonus
		}
		strength = models.Clamp01(strength)

		strengths = append(strengths, strength)
		individual = append(individual, models.IndividualStrength{
			Step:     step.StepNumber,
			Strength: strength,
		})
	}

	if len(strengths) == 0 {
		return models.PremiseStrength{}
	}

	return models.PremiseStrength{
		OverallStrength:     stat.Mean(strengths, nil),
		PremiseCount:        len(strengths),
		IndividualStrengths: individual,
	}
}
