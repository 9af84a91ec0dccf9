package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todmy/reasoning-engine/internal/llm"
	"github.com/todmy/reasoning-engine/pkg/models"
)

func step(stepType, text string, confidence float64, evidence ...string) models.ReasoningStep {
	return models.ReasoningStep{Type: stepType, Text: text, Confidence: confidence, EvidenceUsed: evidence}
}

func chainOf(rt models.ReasoningType, steps ...models.ReasoningStep) models.ReasoningChain {
	return models.NewReasoningChain(steps, rt)
}

func TestAssessValidity(t *testing.T) {
	tests := []struct {
		name  string
		steps []models.ReasoningStep
		want  float64
	}{
		{"empty", nil, 0},
		{"single premise", []models.ReasoningStep{step("premise", "A", 0.8)}, 0.16},
		{"premise and conclusion", []models.ReasoningStep{
			step("premise", "A", 0.8),
			step("conclusion", "B", 0.8),
		}, 0.96},
		{"no conclusion", []models.ReasoningStep{
			step("premise", "A", 0.5),
			step("inference", "B", 0.5),
		}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AssessValidity(tt.steps, models.Deductive), 1e-9)
		})
	}
}

func TestAssessValidity_MonotonicAndBounded(t *testing.T) {
	prev := -1.0
	for c := 0.0; c <= 1.0; c += 0.1 {
		v := AssessValidity([]models.ReasoningStep{
			step("premise", "A", c),
			step("conclusion", "B", c),
		}, models.Inductive)
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, 1.0)
		prev = v
	}

	many := make([]models.ReasoningStep, 1000)
	for i := range many {
		many[i] = step("premise", "A", 1.0)
	}
	many[999] = step("conclusion", "B", 1.0)
	v := AssessValidity(many, models.Abductive)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 1.0)
}

func TestAssessValidity_IgnoresReasoningType(t *testing.T) {
	steps := []models.ReasoningStep{step("premise", "A", 0.7), step("conclusion", "B", 0.9)}
	d := AssessValidity(steps, models.Deductive)
	assert.Equal(t, d, AssessValidity(steps, models.Inductive))
	assert.Equal(t, d, AssessValidity(steps, models.Abductive))
}

func TestDetectFallacies_AdHominem(t *testing.T) {
	chain := chainOf(models.Deductive,
		step("premise", "You are wrong because you're clearly biased and incompetent", 0.8))

	records := DetectFallacies(chain)
	require.NotEmpty(t, records)

	found := false
	for _, r := range records {
		if r.Type == models.AdHominem {
			found = true
			assert.Equal(t, 0.7, r.Confidence)
			assert.Equal(t, "You are wrong", r.TextExcerpt)
			require.NotNil(t, r.Location)
			assert.Equal(t, 0, r.Location.Start)
			assert.Equal(t, 13, r.Location.End)
			assert.Equal(t, FallacyDescription(models.AdHominem), r.Description)
		}
	}
	assert.True(t, found)
}

func TestDetectFallaciesInText_EachType(t *testing.T) {
	tests := []struct {
		text string
		want models.FallacyType
	}{
		{"He claims that we should reduce the military budget but that's not what a patriot does", models.StrawMan},
		{"Either we cut taxes right now or the economy collapses", models.FalseDichotomy},
		{"Legalizing this will inevitably lead to chaos", models.SlipperySlope},
		{"Experts agree that the policy works", models.AppealToAuthority},
		{"It is true because the book says so, and the book is right because it is true", models.CircularReasoning},
		{"All swans I have seen are white", models.HastyGeneralization},
		{"Ice cream sales correlate with drownings, so ice cream causes drowning", models.FalseCause},
		{"Think of the children before you vote", models.AppealToEmotion},
		{"Everyone knows this is true", models.Bandwagon},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			records := DetectFallaciesInText(tt.text)
			types := make([]models.FallacyType, len(records))
			for i, r := range records {
				types[i] = r.Type
			}
			assert.Contains(t, types, tt.want)
		})
	}
}

func TestDetectFallacies_NoDedupAndRuneSpans(t *testing.T) {
	records := DetectFallaciesInText("Résumé: you are wrong. They are biased.")

	var adHominem []models.FallacyRecord
	for _, r := range records {
		if r.Type == models.AdHominem {
			adHominem = append(adHominem, r)
		}
	}
	require.Len(t, adHominem, 2)
	assert.Equal(t, models.Span{Start: 8, End: 21}, *adHominem[0].Location)
	assert.Equal(t, "They are biased", adHominem[1].TextExcerpt)
}

func TestDetectFallacies_EmptyChain(t *testing.T) {
	records := DetectFallacies(chainOf(models.Deductive))
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestIdentifyGaps_Order(t *testing.T) {
	chain := chainOf(models.Deductive,
		step("premise", "Regular exercise releases endorphins", 0.8),
		step("inference", "Therefore exercise lifts mood", 0.8),
		step("conclusion", "Exercise improves mental health", 0.8),
	)

	gaps := IdentifyGaps(chain, []string{"study A"})
	require.Len(t, gaps, 2)

	assert.Equal(t, models.WeakConnection, gaps[0].Type)
	assert.Equal(t, "Weak logical connection between steps 2 and 3", gaps[0].Description)
	assert.Equal(t, 0.6, gaps[0].Severity)
	require.NotNil(t, gaps[0].Location)
	assert.Equal(t, 2, *gaps[0].Location)

	assert.Equal(t, models.UnsupportedAssumption, gaps[1].Type)
	assert.Equal(t, "Unsupported assumption in step 1", gaps[1].Description)
	assert.Equal(t, 0.7, gaps[1].Severity)
}

func TestIdentifyGaps_MissingPremise(t *testing.T) {
	chain := chainOf(models.Inductive,
		step("inference", "Some observation", 0.8),
		step("conclusion", "Hence a rule", 0.8),
	)

	gaps := IdentifyGaps(chain, nil)
	require.Len(t, gaps, 1)
	assert.Equal(t, models.MissingPremise, gaps[0].Type)
	assert.Equal(t, 0.8, gaps[0].Severity)
	assert.Nil(t, gaps[0].Location)
}

func TestIdentifyGaps_UnsupportedCountMatchesPremises(t *testing.T) {
	chain := chainOf(models.Deductive,
		step("premise", "P1", 0.8),
		step("premise", "Because P2", 0.8),
		step("premise", "Since P3", 0.8),
	)

	count := 0
	for _, g := range IdentifyGaps(chain, nil) {
		if g.Type == models.UnsupportedAssumption {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestGapSeverity(t *testing.T) {
	assert.Equal(t, 0.0, GapSeverity(nil))
	assert.InDelta(t, 0.7, GapSeverity([]models.GapRecord{{Severity: 0.8}, {Severity: 0.6}}), 1e-9)
}

func TestAssessPremiseStrength(t *testing.T) {
	none := AssessPremiseStrength(chainOf(models.Deductive, step("conclusion", "C", 0.9)))
	assert.Equal(t, 0.0, none.OverallStrength)
	assert.Equal(t, 0, none.PremiseCount)
	assert.Nil(t, none.IndividualStrengths)

	one := AssessPremiseStrength(chainOf(models.Deductive, step("premise", "P", 0.9, "trial data")))
	assert.InDelta(t, 1.0, one.OverallStrength, 1e-9)
	assert.Equal(t, 1, one.PremiseCount)
	require.Len(t, one.IndividualStrengths, 1)
	assert.Equal(t, 1, one.IndividualStrengths[0].Step)

	mixed := AssessPremiseStrength(chainOf(models.Deductive,
		step("premise", "P1", 0.6, "e"),
		step("inference", "I", 0.3),
		step("premise", "P2", 0.4),
	))
	assert.InDelta(t, 0.6, mixed.OverallStrength, 1e-9)
	assert.Equal(t, 2, mixed.PremiseCount)
	assert.Equal(t, 3, mixed.IndividualStrengths[1].Step)
}

func TestIdentifyRequirements(t *testing.T) {
	long := strings.Repeat("x", 80)
	chain := chainOf(models.Abductive,
		step("premise", long, 0.8),
		step("inference", "weak link", 0.5),
	)

	reqs := IdentifyRequirements(chain)
	require.Len(t, reqs, 3)
	assert.Equal(t, "Evidence to support: "+strings.Repeat("x", 50)+"...", reqs[0])
	assert.Equal(t, "Additional support needed for: weak link...", reqs[1])
	assert.Equal(t, abductiveRequirement, reqs[2])
}

func TestIdentifyRequirements_CappedAtFive(t *testing.T) {
	steps := make([]models.ReasoningStep, 12)
	for i := range steps {
		steps[i] = step("premise", "unsupported", 0.1)
	}
	reqs := IdentifyRequirements(chainOf(models.Inductive, steps...))
	assert.Len(t, reqs, 5)
	for _, r := range reqs {
		assert.True(t, strings.HasPrefix(r, "Evidence to support"))
	}
}

type stubBackend struct {
	text  string
	err   error
	panic bool
	last  llm.Request
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Complete(ctx context.Context, req llm.Request) (string, error) {
	if s.panic {
		panic("backend exploded")
	}
	s.last = req
	return s.text, s.err
}

func TestCounterGenerator(t *testing.T) {
	chain := chainOf(models.Deductive, step("premise", "A", 0.8), step("conclusion", "B", 0.8))

	placeholder := NewCounterGenerator(nil, time.Second, nil).Generate(context.Background(), "claim", chain)
	assert.Equal(t, []string{CounterargumentPlaceholder}, placeholder)

	backend := &stubBackend{text: "Here are counterarguments:\n1. Reverse causation\n- Small samples\n• Placebo effects\n4. Publication bias"}
	got := NewCounterGenerator(backend, time.Second, nil).Generate(context.Background(), "claim", chain)
	assert.Equal(t, []string{"Reverse causation", "Small samples", "Placebo effects"}, got)
	assert.Contains(t, backend.last.Prompt, `Given the claim: "claim"`)
	assert.Contains(t, backend.last.Prompt, "Step 1: [premise] A")

	failed := NewCounterGenerator(&stubBackend{err: errors.New("down")}, time.Second, nil).Generate(context.Background(), "claim", chain)
	assert.NotNil(t, failed)
	assert.Empty(t, failed)
}

func TestStripListMarker(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		marker bool
	}{
		{"- item", "item", true},
		{"* item", "item", true},
		{"• item", "item", true},
		{"12. item", "item", true},
		{"3) item", "item", true},
		{"plain", "plain", false},
	}
	for _, tt := range tests {
		got, ok := StripListMarker(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.marker, ok, tt.in)
	}
}

func TestSuite_Enrich(t *testing.T) {
	suite := NewSuite(NewCounterGenerator(nil, time.Second, nil), nil)
	chain := chainOf(models.Inductive,
		step("premise", "They are biased", 0.8),
		step("conclusion", "Thus the study is flawed", 0.8),
	)

	suite.Enrich(context.Background(), "claim", &chain, nil)

	assert.NotEmpty(t, chain.Fallacies)
	assert.Len(t, chain.LogicalGaps, 1)
	assert.Equal(t, []string{CounterargumentPlaceholder}, chain.Counterarguments)
	assert.Equal(t, 1, chain.PremiseStrength.PremiseCount)
	assert.Contains(t, chain.EvidenceRequirements, inductiveRequirement)
}

func TestSuite_PanickingStepDegrades(t *testing.T) {
	suite := NewSuite(NewCounterGenerator(&stubBackend{panic: true}, time.Second, nil), nil)
	chain := chainOf(models.Deductive, step("premise", "P", 0.8))

	report := suite.Analyze(context.Background(), "claim", chain, nil)

	assert.NotNil(t, report.Counterarguments)
	assert.Empty(t, report.Counterarguments)
	assert.Len(t, report.LogicalGaps, 1)
	assert.Equal(t, 1, report.PremiseStrength.PremiseCount)
	assert.Len(t, report.EvidenceRequirements, 1)
}
