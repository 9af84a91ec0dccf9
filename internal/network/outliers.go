package network

import (
	"sort"

	"github.com/todmy/reasoning-engine/internal/similarity"
)

const (
	// outlierNeighbors is how many nearest claims a claim is compared against
	outlierNeighbors = 2
	// outlierDistance is the mean cosine distance to the nearest claims above which a claim is unrelated
	outlierDistance = 0.5
	// outlierScore is the normalized score a claim must also reach to be reported
	outlierScore = 0.8
)

// OutlierClaims returns the indexes of claims whose embeddings are far from
// their nearest neighbours. Networks of fewer than three claims have no outliers.
func OutlierClaims(vectors [][]float32) []int {
	n := len(vectors)
	if n < 3 {
		return nil
	}

	raw := neighborDistances(vectors, outlierNeighbors)
	scores := normalizeScores(raw)

	var out []int
	for i := range raw {
		if raw[i] > outlierDistance && scores[i] >= outlierScore {
			out = append(out, i)
		}
	}
	return out
}

// neighborDistances is the mean cosine distance from each vector to its k nearest others
func neighborDistances(vectors [][]float32, k int) []float64 {
	n := len(vectors)
	if k >= n {
		k = n - 1
	}

	sims := similarity.CosineSimilarityMatrix(vectors)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		distances := make([]float64, 0, n-1)
		for j := 0; j < n; j++ {
			if i != j {
				distances = append(distances, 1-sims[i][j])
			}
		}
		sort.Float64s(distances)

		sum := 0.0
		for _, d := range distances[:k] {
			sum += d
		}
		out[i] = sum / float64(k)
	}
	return out
}

// normalizeScores min-max scales scores to [0, 1]. Equal scores all map to 0.5.
func normalizeScores(scores []float64) []float64 {
	normalized := make([]float64, len(scores))
	if len(scores) == 0 {
		return normalized
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	if hi == lo {
		for i := range normalized {
			normalized[i] = 0.5
		}
		return normalized
	}
	for i, s := range scores {
		normalized[i] = (s - lo) / (hi - lo)
	}
	return normalized
}
