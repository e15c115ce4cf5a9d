package driven

import (
	"context"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// StandardStore persists standards, versions, and changes.
// Backed by SQLite for durable storage.
//
// Write methods that persist more than one entity are atomic: either
// every entity in the call is durably written or none is. The tracker
// relies on this to never leave a version without its change record.
type StandardStore interface {
	// CreateStandardWithVersion atomically persists a new standard and
	// its first version.
	CreateStandardWithVersion(ctx context.Context, std *domain.Standard, version *domain.Version) error

	// CreateVersionWithChange atomically persists a new version and the
	// change linking it to its predecessor, and advances the owning
	// standard's UpdatedAt.
	CreateVersionWithChange(ctx context.Context, version *domain.Version, change *domain.Change) error

	// GetStandard retrieves a standard by ID.
	GetStandard(ctx context.Context, id string) (*domain.Standard, error)

	// ListStandards returns all standards, most recently updated first.
	ListStandards(ctx context.Context) ([]domain.Standard, error)

	// SearchStandards returns standards whose name, description, or
	// version metadata match the keyword, most recently updated first.
	SearchStandards(ctx context.Context, keyword string) ([]domain.Standard, error)

	// GetVersion retrieves a version by ID.
	GetVersion(ctx context.Context, id string) (*domain.Version, error)

	// ListVersions returns a standard's versions ordered by version
	// number ascending. Fails with domain.ErrNotFound for an unknown
	// standard.
	ListVersions(ctx context.Context, standardID string) ([]domain.Version, error)

	// LatestVersion returns the highest-numbered version of a standard.
	LatestVersion(ctx context.Context, standardID string) (*domain.Version, error)

	// LatestVersions returns the latest version of every standard,
	// ordered by the owning standard's UpdatedAt descending. The tracker
	// relies on this order to break similarity ties toward the most
	// recently updated standard.
	LatestVersions(ctx context.Context) ([]domain.Version, error)

	// GetChange retrieves a change by ID.
	GetChange(ctx context.Context, id string) (*domain.Change, error)

	// ChangesForVersion returns the changes adjacent to a version: the
	// incoming change from its predecessor and the outgoing change to
	// its successor, in that order when both exist.
	ChangesForVersion(ctx context.Context, versionID string) ([]domain.Change, error)
}
