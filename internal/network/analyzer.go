package network

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/todmy/reasoning-engine/internal/embeddings"
	"github.com/todmy/reasoning-engine/internal/errors"
	"github.com/todmy/reasoning-engine/internal/reasoning"
	"github.com/todmy/reasoning-engine/internal/similarity"
	"github.com/todmy/reasoning-engine/pkg/models"
)

const (
	defaultMaxDepth  = 3
	keyConceptsLimit = 10

	relationSupports = "supports"
)

// ChainGenerator produces reasoning chains for a single claim
type ChainGenerator interface {
	GenerateChain(ctx context.Context, req reasoning.GenerateRequest) (*reasoning.GenerateResponse, error)
}

// Relationship links two claims by index
type Relationship struct {
	Type     string  `json:"type"`
	Source   int     `json:"source"`
	Target   int     `json:"target"`
	Strength float64 `json:"strength"`
}

// Request is a set of related claims to reason about together
type Request struct {
	Claims        []string             `json:"claims"`
	Relationships []Relationship       `json:"relationships"`
	ReasoningType models.ReasoningType `json:"reasoning_type"`
	MaxDepth      int                  `json:"max_depth"`
	UseExternal   bool                 `json:"use_external"`
}

// CrossClaimAnalysis compares the claims of a network with each other
type CrossClaimAnalysis struct {
	ClaimSimilarities    []similarity.Pair `json:"claim_similarities"`
	SemanticSimilarities []similarity.Pair `json:"semantic_similarities,omitempty"`
	OutlierClaims        []int             `json:"outlier_claims,omitempty"`
	SharedConcepts       []string          `json:"shared_concepts"`
	KeyConcepts          []Keyword         `json:"key_concepts"`
	RelationshipCount    int               `json:"relationship_count"`
}

// Result is the outcome of a network analysis
type Result struct {
	PrimaryChains            []models.ReasoningChain `json:"primary_reasoning_chains"`
	CrossClaimAnalysis       CrossClaimAnalysis      `json:"cross_claim_analysis"`
	NetworkValidity          float64                 `json:"network_validity"`
	Inconsistencies          []string                `json:"inconsistencies"`
	StrengtheningSuggestions []string                `json:"strengthening_suggestions"`
}

// Options holds analyzer configuration
type Options struct {
	Concurrency int
	StepLimit   int
}

// Analyzer reasons about several claims at once
type Analyzer struct {
	gen      ChainGenerator
	embedder embeddings.Embedder
	keywords *KeywordExtractor
	opts     Options
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer. embedder may be nil, in which case no
// semantic similarities are reported.
func NewAnalyzer(gen ChainGenerator, embedder embeddings.Embedder, opts Options, logger *zap.Logger) *Analyzer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.StepLimit <= 0 {
		opts.StepLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		gen:      gen,
		embedder: embedder,
		keywords: NewKeywordExtractor(),
		opts:     opts,
		logger:   logger,
	}
}

// Analyze generates one chain per claim concurrently, then scores the network
// as a whole. Chains are returned in claim order; a claim whose generation
// produced nothing is skipped and reported as an inconsistency.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := a.validate(&req); err != nil {
		return nil, err
	}

	evidence := supportingEvidence(req.Claims, req.Relationships)
	maxSteps := stepBudget(req.MaxDepth, a.opts.StepLimit)

	slots := make([][]models.ReasoningChain, len(req.Claims))
	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)

	for i, claim := range req.Claims {
		g.Go(func() error {
			resp, err := a.gen.GenerateChain(ctx, reasoning.GenerateRequest{
				Claim:         claim,
				Evidence:      evidence[i],
				ReasoningType: req.ReasoningType,
				MaxSteps:      maxSteps,
				UseExternal:   req.UseExternal,
			})
			if err != nil {
				a.logger.Warn("chain generation failed for claim",
					zap.Int("claim_index", i),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = resp.Chains
			return nil
		})
	}
	_ = g.Wait()

	chains := []models.ReasoningChain{}
	for _, s := range slots {
		if len(s) > 0 {
			chains = append(chains, s[0])
		}
	}

	pairs := similarity.OverlapPairs(req.Claims)
	inconsistencies := findInconsistencies(chains, len(req.Claims))

	var (
		semantic []similarity.Pair
		outliers []int
	)
	if vectors := a.embedClaims(ctx, req.Claims); vectors != nil {
		semantic = similarity.CosinePairs(vectors)
		outliers = OutlierClaims(vectors)
		for _, i := range outliers {
			inconsistencies = append(inconsistencies, fmt.Sprintf("Claim %d is semantically distant from the other claims", i))
		}
	}

	return &Result{
		PrimaryChains: chains,
		CrossClaimAnalysis: CrossClaimAnalysis{
			ClaimSimilarities:    pairs,
			SemanticSimilarities: semantic,
			OutlierClaims:        outliers,
			SharedConcepts:       a.keywords.SharedTerms(req.Claims),
			KeyConcepts:          a.keywords.ExtractKeywords(req.Claims, keyConceptsLimit),
			RelationshipCount:    len(req.Relationships),
		},
		NetworkValidity:          networkValidity(chains),
		Inconsistencies:          inconsistencies,
		StrengtheningSuggestions: suggestions(inconsistencies, pairs),
	}, nil
}

func (a *Analyzer) validate(req *Request) error {
	if len(req.Claims) < 2 {
		return errors.InvalidInput("at least two claims are required")
	}
	claims := make([]string, len(req.Claims))
	for i, c := range req.Claims {
		claims[i] = strings.TrimSpace(c)
		if claims[i] == "" {
			return errors.InvalidInputf("claim %d is empty", i)
		}
	}
	req.Claims = claims
	for _, r := range req.Relationships {
		if r.Source < 0 || r.Source >= len(req.Claims) || r.Target < 0 || r.Target >= len(req.Claims) {
			return errors.InvalidInputf("relationship %d -> %d references an unknown claim", r.Source, r.Target)
		}
	}

	switch {
	case req.MaxDepth < 0:
		return errors.InvalidInput("max_depth must not be negative")
	case req.MaxDepth == 0:
		req.MaxDepth = defaultMaxDepth
	}

	if req.ReasoningType == "" {
		req.ReasoningType = models.Deductive
	}
	rt, err := models.ParseReasoningType(string(req.ReasoningType))
	if err != nil {
		return errors.InvalidInput(err.Error())
	}
	req.ReasoningType = rt
	return nil
}

// embedClaims returns nil when no embedder is configured or embedding fails
func (a *Analyzer) embedClaims(ctx context.Context, claims []string) [][]float32 {
	if a.embedder == nil {
		return nil
	}
	vectors, err := a.embedder.EmbedTexts(ctx, claims)
	if err != nil {
		a.logger.Warn("claim embedding failed; skipping semantic similarity", zap.Error(err))
		return nil
	}
	if len(vectors) != len(claims) {
		a.logger.Warn("embedding count mismatch; skipping semantic similarity",
			zap.Int("claims", len(claims)),
			zap.Int("vectors", len(vectors)),
		)
		return nil
	}
	return vectors
}

// stepBudget allows two steps per level of depth, at least two and at most limit
func stepBudget(maxDepth, limit int) int {
	steps := 2 * maxDepth
	if steps < 2 {
		steps = 2
	}
	if steps > limit {
		steps = limit
	}
	return steps
}

// supportingEvidence turns each "supports" relationship into evidence for its target claim
func supportingEvidence(claims []string, rels []Relationship) [][]string {
	evidence := make([][]string, len(claims))
	for i := range evidence {
		evidence[i] = []string{}
	}
	for _, r := range rels {
		if !strings.EqualFold(r.Type, relationSupports) || r.Source == r.Target {
			continue
		}
		evidence[r.Target] = append(evidence[r.Target], claims[r.Source])
	}
	return evidence
}

func networkValidity(chains []models.ReasoningChain) float64 {
	if len(chains) == 0 {
		return 0
	}
	values := make([]float64, len(chains))
	for i, c := range chains {
		values[i] = c.LogicalValidity
	}
	return stat.Mean(values, nil)
}

func findInconsistencies(chains []models.ReasoningChain, claimCount int) []string {
	out := []string{}
	if len(chains) != claimCount {
		out = append(out, fmt.Sprintf("Reasoning chain count mismatch: %d chains for %d claims", len(chains), claimCount))
	}

	types := map[models.ReasoningType]bool{}
	for _, c := range chains {
		types[c.ReasoningType] = true
	}
	if len(types) > 1 {
		names := make([]string, 0, len(types))
		for t := range types {
			names = append(names, string(t))
		}
		sort.Strings(names)
		out = append(out, "Mixed reasoning types across claims: "+strings.Join(names, ", "))
	}
	return out
}

func suggestions(inconsistencies []string, pairs []similarity.Pair) []string {
	out := []string{}
	if len(inconsistencies) > 0 {
		out = append(out, "Resolve identified inconsistencies between claims")
	}
	if len(similarity.Above(pairs, similarity.ConsolidationThreshold)) > 0 {
		out = append(out, "Consider consolidating highly similar claims")
	}
	if len(pairs) > 3 {
		out = append(out, "Organize claims hierarchically to clarify how they depend on each other")
	}
	return append(out, "Validate cross-claim dependencies and shared assumptions")
}
