// Package similarity provides the vector comparison used for version
// identity decisions. Pure functions, no I/O.
package similarity

import (
	"fmt"
	"math"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// Cosine returns the cosine similarity of two vectors clamped to [0, 1].
// Negative cosines clamp to zero so the result reads as a unit-range
// similarity score. Symmetric in its arguments.
//
// Errors wrap domain.ErrInvalidVector: empty vectors, dimension
// mismatches, and zero-magnitude vectors cannot be meaningfully compared.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty vector: %w", domain.ErrInvalidVector)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d: %w", len(a), len(b), domain.ErrInvalidVector)
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero magnitude vector: %w", domain.ErrInvalidVector)
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// Float accumulation can nudge identical vectors past 1.0.
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score, nil
}
