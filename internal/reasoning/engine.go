package reasoning

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/todmy/reasoning-engine/internal/analysis"
	"github.com/todmy/reasoning-engine/internal/errors"
	"github.com/todmy/reasoning-engine/internal/llm"
	"github.com/todmy/reasoning-engine/pkg/models"
)

// ModelVersion identifies the generator in responses
const ModelVersion = "reasoning-chain-generator-v2.0"

// Options holds engine configuration
type Options struct {
	Timeout              time.Duration
	DefaultMaxSteps      int
	MaxStepsLimit        int
	FallbackOnEmptyParse bool
	HeuristicFallback    bool
}

// DefaultOptions returns default engine options
func DefaultOptions() Options {
	return Options{
		Timeout:         60 * time.Second,
		DefaultMaxSteps: 5,
		MaxStepsLimit:   20,
	}
}

// Engine generates reasoning chains and runs the analysis suite over them.
// It is safe for concurrent use; backends are shared read-only handles.
type Engine struct {
	primary   llm.Backend
	secondary llm.Backend
	fallback  *FallbackBuilder
	suite     *analysis.Suite
	opts      Options
	logger    *zap.Logger
}

// NewEngine creates an engine over the given backends
func NewEngine(backends llm.Backends, opts Options, logger *zap.Logger) *Engine {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DefaultMaxSteps <= 0 {
		opts.DefaultMaxSteps = def.DefaultMaxSteps
	}
	if opts.MaxStepsLimit <= 0 {
		opts.MaxStepsLimit = def.MaxStepsLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	counterBackend := backends.Primary
	if counterBackend == nil {
		counterBackend = backends.Secondary
	}

	return &Engine{
		primary:   backends.Primary,
		secondary: backends.Secondary,
		fallback:  NewFallbackBuilder(backends.Local, opts.HeuristicFallback, opts.Timeout, logger.Named("fallback")),
		suite:     analysis.NewSuite(analysis.NewCounterGenerator(counterBackend, opts.Timeout, logger), logger.Named("analysis")),
		opts:      opts,
		logger:    logger,
	}
}

// GenerateRequest is the input of GenerateChain
type GenerateRequest struct {
	Claim         string
	Evidence      []string
	ReasoningType models.ReasoningType
	Complexity    models.Complexity
	MaxSteps      int
	UseExternal   bool
}

// GenerateResponse carries the generated chains and generation metadata
type GenerateResponse struct {
	Chains         []models.ReasoningChain `json:"reasoning_chains"`
	ProcessingTime float64                 `json:"processing_time"`
	ModelVersion   string                  `json:"model_version"`
	Metadata       map[string]interface{}  `json:"metadata"`
}

// GenerateChain generates chains for a claim and enriches each one with the
// analysis suite. Backend problems degrade to the fallback builder; only
// invalid input is returned as an error.
func (e *Engine) GenerateChain(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	req, err := e.normalize(req)
	if err != nil {
		return nil, err
	}

	chains, backend, reason := e.generate(ctx, req)
	for i := range chains {
		e.suite.Enrich(ctx, req.Claim, &chains[i], req.Evidence)
	}

	metadata := map[string]interface{}{
		"claim":          req.Claim,
		"evidence_count": len(req.Evidence),
		"reasoning_type": req.ReasoningType,
		"complexity":     req.Complexity,
		"backend":        backend,
		"external_used":  backend == nameOf(e.primary) || backend == nameOf(e.secondary),
	}
	if reason != "" {
		metadata["fallback_reason"] = reason
	}

	e.logger.Debug("reasoning chains generated",
		zap.String("backend", backend),
		zap.Int("chains", len(chains)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &GenerateResponse{
		Chains:         chains,
		ProcessingTime: time.Since(start).Seconds(),
		ModelVersion:   ModelVersion,
		Metadata:       metadata,
	}, nil
}

func (e *Engine) normalize(req GenerateRequest) (GenerateRequest, error) {
	req.Claim = strings.TrimSpace(req.Claim)
	if req.Claim == "" {
		return req, errors.InvalidInput("claim is required")
	}

	if req.ReasoningType == "" {
		req.ReasoningType = models.Deductive
	}
	rt, err := models.ParseReasoningType(string(req.ReasoningType))
	if err != nil {
		return req, errors.InvalidInput(err.Error())
	}
	req.ReasoningType = rt

	if req.Complexity == "" {
		req.Complexity = models.Intermediate
	}
	c, err := models.ParseComplexity(string(req.Complexity))
	if err != nil {
		return req, errors.InvalidInput(err.Error())
	}
	req.Complexity = c

	switch {
	case req.MaxSteps < 0 || req.MaxSteps > e.opts.MaxStepsLimit:
		return req, errors.InvalidInputf("max_steps must be between 1 and %d", e.opts.MaxStepsLimit)
	case req.MaxSteps == 0:
		req.MaxSteps = e.opts.DefaultMaxSteps
	}

	if req.Evidence == nil {
		req.Evidence = []string{}
	}
	return req, nil
}

// generate applies the backend preference order and returns the chains, the
// backend that produced them and why an external backend was skipped, if it was.
func (e *Engine) generate(ctx context.Context, req GenerateRequest) ([]models.ReasoningChain, string, string) {
	reason := ""

	if backend := e.selectBackend(req.UseExternal); backend != nil {
		res := llm.Call(ctx, backend, llm.Request{
			System: SystemPrompt,
			Prompt: BuildPrompt(req.Claim, req.Evidence, req.ReasoningType, req.Complexity, req.MaxSteps),
		}, e.opts.Timeout)

		switch {
		case res.OK():
			chains := ParseStructuredResponse(res.Text, req.ReasoningType)
			if len(chains) > 0 || !e.opts.FallbackOnEmptyParse {
				return truncateChains(chains, req.MaxSteps), res.Provider, ""
			}
			reason = "unparseable response from " + res.Provider
			e.logger.Info("external response had no steps; using fallback", zap.String("provider", res.Provider))
		case res.TimedOut():
			reason = res.Provider + " timed out"
			e.logger.Warn("external generation timed out; using fallback",
				zap.String("provider", res.Provider),
				zap.Duration("elapsed", res.Elapsed),
			)
		default:
			reason = res.Provider + " failed"
			e.logger.Warn("external generation failed; using fallback",
				zap.String("provider", res.Provider),
				zap.Error(res.Err),
			)
		}
	} else if req.UseExternal {
		reason = "no external backend configured"
	}

	chains, generator := e.fallback.Build(ctx, req.Claim, req.Evidence, req.ReasoningType, req.MaxSteps)
	return chains, generator, reason
}

func (e *Engine) selectBackend(useExternal bool) llm.Backend {
	if !useExternal {
		return nil
	}
	if e.primary != nil {
		return e.primary
	}
	return e.secondary
}

// truncateChains enforces the step budget on parsed chains
func truncateChains(chains []models.ReasoningChain, maxSteps int) []models.ReasoningChain {
	for i, c := range chains {
		if maxSteps <= 0 || len(c.Steps) <= maxSteps {
			continue
		}
		trimmed := newChain(c.Steps[:maxSteps], c.ReasoningType)
		trimmed.Assumptions = c.Assumptions
		trimmed.Weaknesses = c.Weaknesses
		trimmed.EvidenceRequirements = c.EvidenceRequirements
		trimmed.Counterarguments = c.Counterarguments
		chains[i] = trimmed
	}
	return chains
}

// AnalyzeChain runs the analysis suite over an existing chain
func (e *Engine) AnalyzeChain(ctx context.Context, claim string, chain models.ReasoningChain, evidence []string) analysis.Report {
	chain.EnsureDefaults()
	return e.suite.Analyze(ctx, claim, chain, evidence)
}

// Backends lists the names of the configured external backends in preference order
func (e *Engine) Backends() []string {
	names := []string{}
	for _, b := range []llm.Backend{e.primary, e.secondary} {
		if b != nil {
			names = append(names, b.Name())
		}
	}
	return names
}

func nameOf(b llm.Backend) string {
	if b == nil {
		return ""
	}
	return b.Name()
}
