package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity returns the cosine of the angle between two embeddings,
// or 0 when they differ in length or either is a zero vector.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	af := toFloat64(a)
	bf := toFloat64(b)

	magA := math.Sqrt(floats.Dot(af, af))
	magB := math.Sqrt(floats.Dot(bf, bf))
	if magA == 0 || magB == 0 {
		return 0
	}

	return floats.Dot(af, bf) / (magA * magB)
}

// CosineSimilarityMatrix returns the symmetric n×n similarity matrix of embeddings
func CosineSimilarityMatrix(embeddings [][]float32) [][]float64 {
	n := len(embeddings)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		matrix[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			sim := CosineSimilarity(embeddings[i], embeddings[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}

	return matrix
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
