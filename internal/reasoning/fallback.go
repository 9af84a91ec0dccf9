package reasoning

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/llm"
	"github.com/todmy/reasoning-engine/pkg/models"
)

// fallbackExtraTokens is added to the prompt length to bound local continuations
const fallbackExtraTokens = 200

// heuristicConfidence is the confidence of every heuristic step
const heuristicConfidence = DefaultStepConfidence

// FallbackBuilder produces chains without an external backend. It asks the
// local model when one is configured; otherwise, if heuristic is set, it
// assembles a chain directly from the claim and evidence.
type FallbackBuilder struct {
	local     llm.LocalModel
	heuristic bool
	timeout   time.Duration
	logger    *zap.Logger
}

// NewFallbackBuilder creates a builder. local may be nil.
func NewFallbackBuilder(local llm.LocalModel, heuristic bool, timeout time.Duration, logger *zap.Logger) *FallbackBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackBuilder{local: local, heuristic: heuristic, timeout: timeout, logger: logger}
}

// Build returns zero or one chain and the name of the generator that ran
func (f *FallbackBuilder) Build(ctx context.Context, claim string, evidence []string, reasoningType models.ReasoningType, maxSteps int) ([]models.ReasoningChain, string) {
	prompt := BuildFallbackPrompt(claim, evidence, reasoningType)
	res := llm.Generate(ctx, f.local, prompt, promptTokens(prompt)+fallbackExtraTokens, f.timeout)

	switch res.Status {
	case llm.StatusOK:
		steps := ParseFallbackSteps(res.Text, maxSteps)
		if len(steps) == 0 {
			f.logger.Info("local model output had no step lines")
			return []models.ReasoningChain{}, res.Provider
		}
		return []models.ReasoningChain{newChain(steps, reasoningType)}, res.Provider
	case llm.StatusFailed:
		f.logger.Warn("local generation failed",
			zap.Duration("elapsed", res.Elapsed),
			zap.Bool("timed_out", res.TimedOut()),
			zap.Error(res.Err),
		)
		return []models.ReasoningChain{}, res.Provider
	}

	if !f.heuristic {
		return []models.ReasoningChain{}, "none"
	}
	return []models.ReasoningChain{HeuristicChain(claim, evidence, reasoningType, maxSteps)}, "heuristic"
}

// ParseFallbackSteps extracts numbered or bulleted lines from local model
// output. At most maxSteps steps are kept when maxSteps is positive.
func ParseFallbackSteps(text string, maxSteps int) []models.ReasoningStep {
	var steps []models.ReasoningStep
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if !isStepLine(line) {
			continue
		}

		stepType := models.StepInference
		body := ""
		if label, rest, ok := strings.Cut(line, ":"); ok {
			lower := strings.ToLower(label)
			switch {
			case strings.Contains(lower, models.StepPremise):
				stepType = models.StepPremise
			case strings.Contains(lower, models.StepConclusion):
				stepType = models.StepConclusion
			}
			body = strings.TrimSpace(rest)
		} else {
			body = stripStepMarker(line)
		}
		if body == "" {
			continue
		}

		steps = append(steps, models.ReasoningStep{
			Text:         body,
			Confidence:   DefaultStepConfidence,
			Type:         stepType,
			EvidenceUsed: []string{},
		})
		if maxSteps > 0 && len(steps) == maxSteps {
			break
		}
	}
	return steps
}

func isStepLine(line string) bool {
	if line == "" {
		return false
	}
	if unicode.IsDigit([]rune(line)[0]) {
		return true
	}
	for _, bullet := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, bullet) {
			return true
		}
	}
	return false
}

func stripStepMarker(line string) string {
	line = strings.TrimLeftFunc(line, func(r rune) bool {
		return unicode.IsDigit(r) || r == '.' || r == ')' || r == '-' || r == '*' || r == '•'
	})
	return strings.TrimSpace(line)
}

func promptTokens(prompt string) int {
	return len(strings.Fields(prompt))
}

var heuristicConnectives = []string{"Given that", "Since", "Because"}

// HeuristicChain builds a chain from evidence premises, one bridging
// inference and a conclusion restating the claim. Premises cite no evidence,
// so the analysis treats them as unsupported. It never exceeds maxSteps
// when maxSteps is at least three.
func HeuristicChain(claim string, evidence []string, reasoningType models.ReasoningType, maxSteps int) models.ReasoningChain {
	if maxSteps <= 0 {
		maxSteps = 3
	}
	claim = strings.TrimSpace(claim)

	var premises []string
	for _, e := range evidence {
		if e = strings.TrimSpace(e); e != "" {
			premises = append(premises, e)
		}
	}
	limit := maxSteps - 2
	if limit < 1 {
		limit = 1
	}
	if len(premises) > limit {
		premises = premises[:limit]
	}

	var steps []models.ReasoningStep
	for _, p := range premises {
		steps = append(steps, models.ReasoningStep{
			Text:         p,
			Confidence:   heuristicConfidence,
			Type:         models.StepPremise,
			EvidenceUsed: []string{},
		})
	}

	connective := heuristicConnectives[len(premises)%len(heuristicConnectives)]
	inference := fmt.Sprintf("%s the available evidence bears on the claim, it is relevant to whether %s", connective, lowerFirst(claim))
	if len(premises) == 0 {
		inference = fmt.Sprintf("%s no evidence was supplied, the claim that %s rests on general knowledge", connective, lowerFirst(claim))
	}
	steps = append(steps, models.ReasoningStep{
		Text:         inference,
		Confidence:   heuristicConfidence,
		Type:         models.StepInference,
		EvidenceUsed: []string{},
	})

	conclusion := "Therefore, " + lowerFirst(claim)
	if reasoningType == models.Abductive {
		conclusion = fmt.Sprintf("Hence, %q is the best available explanation", claim)
	}
	steps = append(steps, models.ReasoningStep{
		Text:         conclusion,
		Confidence:   heuristicConfidence,
		Type:         models.StepConclusion,
		EvidenceUsed: []string{},
	})

	for len(steps) > maxSteps && len(steps) > 1 {
		i := len(steps) - 2
		steps = append(steps[:i], steps[i+1:]...)
	}

	return newChain(steps, reasoningType)
}

func lowerFirst(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
