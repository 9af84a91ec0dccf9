package analysis

import (
	"github.com/todmy/reasoning-engine/pkg/models"
)

const (
	structureWeight   = 0.5
	progressionWeight = 0.3
	confidenceWeight  = 0.2
)

// AssessValidity scores the structural soundness of steps in [0, 1].
//
// The score is 0.5 when the steps contain both a premise and a conclusion,
// plus 0.3 for two or more steps, plus 0.2 times the mean step confidence.
// reasoningType does not currently change the score.
func AssessValidity(steps []models.ReasoningStep, reasoningType models.ReasoningType) float64 {
	if len(steps) == 0 {
		return 0
	}

	score := 0.0
	if models.HasStepType(steps, models.StepPremise) && models.HasStepType(steps, models.StepConclusion) {
		score += structureWeight
	}
	if len(steps) >= 2 {
		score += progressionWeight
	}
	score += models.MeanConfidence(steps) * confidenceWeight

	return models.Clamp01(score)
}
