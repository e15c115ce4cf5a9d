package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// IngestOrchestrator coordinates fetch cycles: retrieving candidate
// documents from configured sources, embedding them, submitting them to
// the tracker, and handing accepted versions to the search index.
type IngestOrchestrator interface {
	// RunCycle fetches every configured source once and processes the
	// results. Returns the cycle outcome; per-document failures are
	// counted, not fatal.
	RunCycle(ctx context.Context) (*IngestStatus, error)

	// IngestDocument embeds and submits one already-fetched document.
	IngestDocument(ctx context.Context, doc domain.FetchedDocument) (*domain.Decision, error)

	// Status returns the state of the in-flight or most recent cycle.
	Status() *IngestStatus
}

// IngestStatus represents the outcome of an ingestion cycle.
type IngestStatus struct {
	// Running indicates a cycle is currently in progress.
	Running bool

	// StartedAt is when the cycle began.
	StartedAt time.Time

	// EndedAt is when the cycle finished. Zero while running.
	EndedAt time.Time

	// DocumentsProcessed is the count of fetched documents submitted.
	DocumentsProcessed int

	// NewStandards counts documents that created a standard.
	NewStandards int

	// NewVersions counts documents that became a new version.
	NewVersions int

	// Duplicates counts documents already on file.
	Duplicates int

	// Skipped counts documents rejected before the tracker (too short,
	// embedding failed).
	Skipped int

	// ErrorCount is the number of per-document errors encountered.
	ErrorCount int
}
