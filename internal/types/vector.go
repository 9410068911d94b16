// Package types provides type definitions for structured data used throughout the job recommendation system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "math"

// Vector is an embedding produced by a single model.
// Vectors from different models must never be compared.
type Vector struct {
	Values []float32 `json:"values"`
	Model  string    `json:"model"`
}

// Dimensions returns the vector length.
func (v Vector) Dimensions() int {
	return len(v.Values)
}

// IsZero reports whether the vector carries no values.
func (v Vector) IsZero() bool {
	return len(v.Values) == 0
}

// Compatible reports whether two vectors come from the same model and have the same length.
func (v Vector) Compatible(other Vector) bool {
	return v.Model == other.Model && len(v.Values) == len(other.Values)
}

// CosineSimilarity returns the cosine similarity of a and b in [-1, 1].
// Mismatched lengths or zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard against floating point drift just outside the valid range
	return math.Max(-1, math.Min(1, sim))
}
