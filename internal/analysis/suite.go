package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/pkg/models"
)

// Report holds the enrichment fields produced for one chain
type Report struct {
	Fallacies            []models.FallacyRecord `json:"fallacies"`
	LogicalGaps          []models.GapRecord     `json:"logical_gaps"`
	Counterarguments     []string               `json:"counterarguments"`
	PremiseStrength      models.PremiseStrength `json:"premise_strength"`
	EvidenceRequirements []string               `json:"evidence_requirements"`
}

// Suite runs every analysis sub-step over a chain. A panicking sub-step is
// logged and leaves its field at the empty default; the others still run.
type Suite struct {
	counter *CounterGenerator
	logger  *zap.Logger
}

// NewSuite creates a suite. counter may be nil, in which case counterarguments stay empty.
func NewSuite(counter *CounterGenerator, logger *zap.Logger) *Suite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suite{counter: counter, logger: logger}
}

// Analyze computes a Report for chain
func (s *Suite) Analyze(ctx context.Context, claim string, chain models.ReasoningChain, evidence []string) Report {
	report := Report{
		Fallacies:            []models.FallacyRecord{},
		LogicalGaps:          []models.GapRecord{},
		Counterarguments:     []string{},
		EvidenceRequirements: []string{},
	}

	s.run("fallacies", func() {
		report.Fallacies = DetectFallacies(chain)
	})
	s.run("logical_gaps", func() {
		report.LogicalGaps = IdentifyGaps(chain, evidence)
	})
	s.run("counterarguments", func() {
		if s.counter != nil {
			report.Counterarguments = s.counter.Generate(ctx, claim, chain)
		}
	})
	s.run("premise_strength", func() {
		report.PremiseStrength = AssessPremiseStrength(chain)
	})
	s.run("evidence_requirements", func() {
		report.EvidenceRequirements = IdentifyRequirements(chain)
	})

	return report
}

// Enrich analyzes chain and overwrites its analysis fields with the result
func (s *Suite) Enrich(ctx context.Context, claim string, chain *models.ReasoningChain, evidence []string) {
	report := s.Analyze(ctx, claim, *chain, evidence)
	chain.Fallacies = report.Fallacies
	chain.LogicalGaps = report.LogicalGaps
	chain.Counterarguments = report.Counterarguments
	chain.PremiseStrength = report.PremiseStrength
	chain.EvidenceRequirements = report.EvidenceRequirements
	chain.EnsureDefaults()
}

func (s *Suite) run(step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("analysis step failed",
				zap.String("step", step),
				zap.Error(fmt.Errorf("panic: %v", r)),
			)
		}
	}()
	fn()
}
