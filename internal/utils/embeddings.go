package utils

import (
	"fmt"
	"math"
)

// dotProduct calculates the dot product of two vectors.
func dotProduct(vec1, vec2 []float32) (float64, error) {
	if len(vec1) != len(vec2) {
		return 0, fmt.Errorf("vectors must have the same dimension: %d != %d", len(vec1), len(vec2))
	}
	var product float64
	for i := range vec1 {
		product += float64(vec1[i]) * float64(vec2[i])
	}
	return product, nil
}

// magnitude calculates the L2 norm of a vector.
func magnitude(vec []float32) float64 {
	var sumOfSquares float64
	for _, val := range vec {
		sumOfSquares += float64(val) * float64(val)
	}
	return math.Sqrt(sumOfSquares)
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// A zero vector has similarity 0 with everything.
func CosineSimilarity(vec1, vec2 []float32) (float64, error) {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	dot, err := dotProduct(vec1, vec2)
	if err != nil {
		return 0, err
	}

	mag1 := magnitude(vec1)
	mag2 := magnitude(vec2)
	if mag1 == 0 || mag2 == 0 {
		return 0, nil
	}
	return dot / (mag1 * mag2), nil
}

// MaxCosine returns the best similarity between any vector of as and any
// vector of bs. Pairs that cannot be compared are skipped; ok is false when no
// pair could be compared.
func MaxCosine(as, bs [][]float32) (best float64, ok bool) {
	best = math.Inf(-1)
	for _, a := range as {
		for _, b := range bs {
			sim, err := CosineSimilarity(a, b)
			if err != nil {
				continue
			}
			if sim > best {
				best = sim
			}
			ok = true
		}
	}
	if !ok {
		return 0, false
	}
	return best, true
}

// SimilarityScore maps a cosine similarity onto the [0,1] relevance range.
// Opposed vectors score 0, the same as unrelated ones.
func SimilarityScore(cos float64) float64 {
	return min(max(cos, 0), 1)
}
