// Package index provides in-process vector indexes for cosine similarity
// search: an exact brute-force scan used as the correctness baseline and an
// HNSW graph for sub-linear lookups on larger corpora.
package index

import "math"

// CosineSimilarity returns the cosine similarity of two vectors in [-1, 1].
// Vectors of mismatched or zero length score 0; dimension checking happens at
// the store boundary, before vectors ever reach the index.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// CosineDistance returns 1 - CosineSimilarity, so that lower means closer.
// The graph traversal works on distances; scores reported to callers are
// similarities.
func CosineDistance(a, b []float32) float32 {
	return 1 - CosineSimilarity(a, b)
}
