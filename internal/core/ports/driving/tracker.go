package driving

import (
	"context"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// TrackerService owns the version identity decision: whether a candidate
// document is a duplicate, a new version of a known standard, or the
// first observation of a new standard.
type TrackerService interface {
	// AddVersion decides and durably records what the candidate is.
	// The returned decision carries the kind plus the resolved standard,
	// version, and (for new versions) change IDs.
	//
	// Concurrent calls for the same standard are serialised; calls for
	// different standards proceed in parallel. The call may block waiting
	// for its turn; callers bound latency via ctx.
	AddVersion(ctx context.Context, candidate domain.Candidate) (*domain.Decision, error)
}
