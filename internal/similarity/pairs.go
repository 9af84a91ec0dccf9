package similarity

import (
	"sort"
)

// Pair is the similarity of two items identified by index, with Idx1 < Idx2
type Pair struct {
	Idx1       int     `json:"claim1_index"`
	Idx2       int     `json:"claim2_index"`
	Similarity float64 `json:"similarity"`
}

// ConsolidationThreshold is the word overlap above which two claims are near duplicates
const ConsolidationThreshold = 0.6

// OverlapPairs scores every unordered pair of texts by WordOverlap, in index order
func OverlapPairs(texts []string) []Pair {
	pairs := []Pair{}
	for i := 0; i < len(texts); i++ {
		for j := i + 1; j < len(texts); j++ {
			pairs = append(pairs, Pair{Idx1: i, Idx2: j, Similarity: WordOverlap(texts[i], texts[j])})
		}
	}
	return pairs
}

// CosinePairs scores every unordered pair of embeddings, in index order
func CosinePairs(embeddings [][]float32) []Pair {
	matrix := CosineSimilarityMatrix(embeddings)
	pairs := []Pair{}
	for i := range matrix {
		for j := i + 1; j < len(matrix[i]); j++ {
			pairs = append(pairs, Pair{Idx1: i, Idx2: j, Similarity: matrix[i][j]})
		}
	}
	return pairs
}

// Above returns the pairs scoring strictly above threshold, most similar first
func Above(pairs []Pair, threshold float64) []Pair {
	out := []Pair{}
	for _, p := range pairs {
		if p.Similarity > threshold {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Similarity > out[b].Similarity
	})
	return out
}
