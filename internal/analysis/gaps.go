package analysis

import (
	"fmt"
	"strings"

	"github.com/todmy/reasoning-engine/pkg/models"
)

const (
	missingPremiseSeverity        = 0.8
	weakConnectionSeverity        = 0.6
	unsupportedAssumptionSeverity = 0.7
)

// Connectives is the list of phrases that mark a step as following from the previous one
var Connectives = []string{"therefore", "thus", "hence", "because", "since", "given that", "it follows"}

// IdentifyGaps runs three independent checks in order: missing premise,
// weak connection for each adjacent pair, unsupported assumption for each premise.
// evidence is accepted for callers that pass the request evidence; the checks use
// each step's own evidence list.
func IdentifyGaps(chain models.ReasoningChain, evidence []string) []models.GapRecord {
	gaps := []models.GapRecord{}

	if !chain.HasStepType(models.StepPremise) {
		gaps = append(gaps, models.GapRecord{
			Type:        models.MissingPremise,
			Description: "No clear premises identified in the reasoning chain",
			Severity:    missingPremiseSeverity,
			Suggestion:  "Identify and state the foundational assumptions",
		})
	}

	for i := 0; i+1 < len(chain.Steps); i++ {
		if StepsConnected(chain.Steps[i], chain.Steps[i+1]) {
			continue
		}
		gaps = append(gaps, models.GapRecord{
			Type:        models.WeakConnection,
			Description: fmt.Sprintf("Weak logical connection between steps %d and %d", i+1, i+2),
			Severity:    weakConnectionSeverity,
			Suggestion:  "Provide clearer logical bridge between these steps",
			Location:    intPtr(i + 1),
		})
	}

	for i, step := range chain.Steps {
		if step.Type != models.StepPremise || len(step.EvidenceUsed) > 0 {
			continue
		}
		gaps = append(gaps, models.GapRecord{
			Type:        models.UnsupportedAssumption,
			Description: fmt.Sprintf("Unsupported assumption in step %d", step.StepNumber),
			Severity:    unsupportedAssumptionSeverity,
			Suggestion:  "Provide evidence or justification for this assumption",
			Location:    intPtr(i),
		})
	}

	return gaps
}

// StepsConnected reports whether next contains one of the Connectives
func StepsConnected(prev, next models.ReasoningStep) bool {
	lower := strings.ToLower(next.Text)
	for _, word := range Connectives {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// GapSeverity is the mean severity of gaps, 0 when there are none
func GapSeverity(gaps []models.GapRecord) float64 {
	if len(gaps) == 0 {
		return 0
	}
	total := 0.0
	for _, g := range gaps {
		total += g.Severity
	}
	return total / float64(len(gaps))
}

func intPtr(v int) *int {
	return &v
}
