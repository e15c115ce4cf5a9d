package driving

import (
	"context"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// QueryService is the read-only surface over tracked standards, their
// versions, and recorded changes. It never mutates state.
type QueryService interface {
	// ListStandards returns all standards, optionally filtered by a
	// keyword matched against name and description.
	ListStandards(ctx context.Context, filter string) ([]domain.Standard, error)

	// GetStandard retrieves a standard by ID.
	GetStandard(ctx context.Context, id string) (*domain.Standard, error)

	// GetVersionHistory returns a standard's versions ordered by version
	// number ascending.
	GetVersionHistory(ctx context.Context, standardID string) ([]domain.Version, error)

	// GetVersion retrieves a version by ID.
	GetVersion(ctx context.Context, id string) (*domain.Version, error)

	// GetChangesForVersion returns the changes adjacent to a version.
	GetChangesForVersion(ctx context.Context, versionID string) ([]domain.Change, error)

	// CompareVersions computes the similarity of two stored versions
	// from their retained vectors. The result flags cross-model
	// comparisons.
	CompareVersions(ctx context.Context, versionA, versionB string) (*domain.Comparison, error)

	// Search finds standards by keyword over names, descriptions, and
	// version metadata, or semantically over version content when
	// opts.Semantic is set and an index is available.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
