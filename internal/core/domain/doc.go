// Package domain defines the core business entities for Vigil.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Standard: A long-lived regulatory framework tracked over time
//   - Version: One immutable content snapshot of a Standard
//   - Change: The recorded delta between adjacent Versions
//   - Candidate: A fetched document awaiting a version decision
//   - Decision: The tagged outcome of submitting a Candidate
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
