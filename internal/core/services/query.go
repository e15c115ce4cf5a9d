package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vigil-cli/internal/similarity"
)

// Ensure Query implements the interface.
var _ driving.QueryService = (*Query)(nil)

// defaultSearchLimit applies when a search request does not set one.
const defaultSearchLimit = 10

// Query is the read-only surface over tracked standards. It composes
// the store's accessors with keyword and semantic search; it never
// mutates state.
type Query struct {
	store    driven.StandardStore
	index    driven.SearchIndex
	embedder driven.EmbeddingService
	log      zerolog.Logger
}

// NewQuery creates the read façade. Index and embedder are optional;
// without them semantic search degrades to keyword search.
func NewQuery(store driven.StandardStore, index driven.SearchIndex, embedder driven.EmbeddingService, log zerolog.Logger) *Query {
	return &Query{store: store, index: index, embedder: embedder, log: log}
}

// ListStandards returns all standards, optionally filtered by a keyword
// matched against name and description.
func (q *Query) ListStandards(ctx context.Context, filter string) ([]domain.Standard, error) {
	standards, err := q.store.ListStandards(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing standards: %w", err)
	}
	if filter == "" {
		return standards, nil
	}

	needle := strings.ToLower(filter)
	filtered := make([]domain.Standard, 0, len(standards))
	for _, s := range standards {
		if strings.Contains(strings.ToLower(s.Name), needle) ||
			strings.Contains(strings.ToLower(s.Description), needle) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// GetStandard retrieves a standard by ID.
func (q *Query) GetStandard(ctx context.Context, id string) (*domain.Standard, error) {
	std, err := q.store.GetStandard(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting standard %s: %w", id, err)
	}
	return std, nil
}

// GetVersionHistory returns a standard's versions ordered by version
// number ascending.
func (q *Query) GetVersionHistory(ctx context.Context, standardID string) ([]domain.Version, error) {
	versions, err := q.store.ListVersions(ctx, standardID)
	if err != nil {
		return nil, fmt.Errorf("getting version history for %s: %w", standardID, err)
	}
	return versions, nil
}

// GetVersion retrieves a version by ID.
func (q *Query) GetVersion(ctx context.Context, id string) (*domain.Version, error) {
	version, err := q.store.GetVersion(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting version %s: %w", id, err)
	}
	return version, nil
}

// GetChangesForVersion returns the changes adjacent to a version.
func (q *Query) GetChangesForVersion(ctx context.Context, versionID string) ([]domain.Change, error) {
	changes, err := q.store.ChangesForVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("getting changes for version %s: %w", versionID, err)
	}
	return changes, nil
}

// CompareVersions computes the similarity of two stored versions from
// their retained vectors, flagging cross-model comparisons.
func (q *Query) CompareVersions(ctx context.Context, versionA, versionB string) (*domain.Comparison, error) {
	a, err := q.store.GetVersion(ctx, versionA)
	if err != nil {
		return nil, fmt.Errorf("getting version %s: %w", versionA, err)
	}
	b, err := q.store.GetVersion(ctx, versionB)
	if err != nil {
		return nil, fmt.Errorf("getting version %s: %w", versionB, err)
	}

	if len(a.Embedding) == 0 || len(b.Embedding) == 0 {
		return nil, fmt.Errorf("version has no retained vector: %w", domain.ErrInvalidVector)
	}

	score, err := similarity.Cosine(a.Embedding, b.Embedding)
	if err != nil {
		return nil, fmt.Errorf("comparing versions %s and %s: %w", versionA, versionB, err)
	}

	cmp := &domain.Comparison{
		VersionA: a.ID,
		VersionB: b.ID,
		Score:    score,
		ModelA:   a.EmbeddingModel(),
		ModelB:   b.EmbeddingModel(),
	}
	cmp.CrossModel = cmp.ModelA != cmp.ModelB
	if cmp.CrossModel {
		q.log.Warn().
			Str("version_a", a.ID).
			Str("version_b", b.ID).
			Str("model_a", cmp.ModelA).
			Str("model_b", cmp.ModelB).
			Msg("comparison crosses embedding models")
	}
	return cmp, nil
}

// Search finds standards by keyword, or semantically over version
// content when requested and the index collaborators are wired.
func (q *Query) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query: %w", domain.ErrInvalidInput)
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultSearchLimit
	}

	if opts.Semantic {
		if q.index == nil || q.embedder == nil {
			q.log.Debug().Msg("semantic search unavailable, falling back to keyword")
		} else {
			return q.searchSemantic(ctx, query, opts)
		}
	}
	return q.searchKeyword(ctx, query, opts)
}

// searchKeyword matches the query against names, descriptions, and
// version metadata. Results come back most recently updated first; no
// further ranking is applied.
func (q *Query) searchKeyword(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	standards, err := q.store.SearchStandards(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	standards = page(standards, opts.Offset, opts.Limit)
	results := make([]domain.SearchResult, len(standards))
	for i, s := range standards {
		results[i] = domain.SearchResult{Standard: s}
	}
	return results, nil
}

// searchSemantic embeds the query and consults the index, hydrating
// hits from the store.
func (q *Query) searchSemantic(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	vec, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := q.index.Search(ctx, vec, opts.Limit+opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	hits = page(hits, opts.Offset, opts.Limit)

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		std, err := q.store.GetStandard(ctx, hit.StandardID)
		if err != nil {
			q.log.Warn().Str("standard_id", hit.StandardID).Err(err).Msg("dropping unhydratable hit")
			continue
		}
		version, err := q.store.GetVersion(ctx, hit.VersionID)
		if err != nil {
			q.log.Warn().Str("version_id", hit.VersionID).Err(err).Msg("dropping unhydratable hit")
			continue
		}
		results = append(results, domain.SearchResult{
			Standard: *std,
			Version:  version,
			Score:    hit.Similarity,
		})
	}
	return results, nil
}

// page applies offset and limit to a slice.
func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
