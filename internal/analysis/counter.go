package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/llm"
	"github.com/todmy/reasoning-engine/pkg/models"
)

const (
	maxCounterarguments = 3
	counterMaxTokens    = 800

	// CounterargumentPlaceholder is returned when no external backend is configured
	CounterargumentPlaceholder = "Counterargument generation requires LLM access"
)

// CounterGenerator asks an external backend for counterarguments to a chain
type CounterGenerator struct {
	backend llm.Backend
	timeout time.Duration
	logger  *zap.Logger
}

// NewCounterGenerator creates a generator; a nil backend yields the placeholder
func NewCounterGenerator(backend llm.Backend, timeout time.Duration, logger *zap.Logger) *CounterGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounterGenerator{backend: backend, timeout: timeout, logger: logger}
}

// Generate returns at most three counterarguments. Backend failure yields an empty list.
func (g *CounterGenerator) Generate(ctx context.Context, claim string, chain models.ReasoningChain) []string {
	res := llm.Call(ctx, g.backend, llm.Request{
		Prompt:      buildCounterPrompt(claim, chain),
		MaxTokens:   counterMaxTokens,
		Temperature: 0.3,
	}, g.timeout)

	switch res.Status {
	case llm.StatusUnavailable:
		return []string{CounterargumentPlaceholder}
	case llm.StatusFailed:
		g.logger.Warn("counterargument generation failed",
			zap.String("provider", res.Provider),
			zap.Error(res.Err),
		)
		return []string{}
	}

	return ParseListItems(res.Text, maxCounterarguments)
}

func buildCounterPrompt(claim string, chain models.ReasoningChain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Given the claim: %q\n\n", claim)
	b.WriteString("And the following reasoning chain:\n")
	b.WriteString(FormatSteps(chain.Steps))
	b.WriteString(`

Generate 2-3 strong counterarguments that challenge this reasoning. Focus on:
1. Alternative explanations
2. Contradictory evidence
3. Logical weaknesses
4. Different interpretations

Format as a simple list of counterarguments.
`)
	return b.String()
}

// FormatSteps renders steps one per line as "Step N: [type] text"
func FormatSteps(steps []models.ReasoningStep) string {
	lines := make([]string, len(steps))
	for i, s := range steps {
		lines[i] = fmt.Sprintf("Step %d: [%s] %s", s.StepNumber, s.Type, s.Text)
	}
	return strings.Join(lines, "\n")
}

// ParseListItems returns the bulleted or numbered lines of text with their
// markers removed, keeping at most limit items.
func ParseListItems(text string, limit int) []string {
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		item, ok := StripListMarker(line)
		if !ok || item == "" {
			continue
		}
		items = append(items, item)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items
}

// StripListMarker removes a leading "-", "*", "•", "N." or "N)" marker.
// ok is false when line has no marker.
func StripListMarker(line string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, bullet := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(strings.TrimPrefix(line, bullet)), true
		}
	}

	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i == len(line) || (line[i] != '.' && line[i] != ')') {
		return line, false
	}
	return strings.TrimSpace(line[i+1:]), true
}
