// Package fingerprint computes deterministic content fingerprints used
// for exact-duplicate detection before any vector work.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize collapses runs of whitespace to single spaces and trims the
// result. Casing is preserved; stored content keeps its original form.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Fingerprint returns the SHA-256 hex digest of the normalised text,
// case-folded for hashing purposes only. The same content always yields
// the same fingerprint regardless of whitespace or casing noise.
func Fingerprint(text string) string {
	norm := strings.ToLower(Normalize(text))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}
