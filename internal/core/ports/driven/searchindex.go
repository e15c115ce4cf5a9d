package driven

import "context"

// SearchIndex provides semantic similarity search over version content.
// Indexing is best-effort from the tracker's point of view: a version
// write is complete whether or not the index accepted it.
type SearchIndex interface {
	// Index inserts or replaces the entry for a version.
	Index(ctx context.Context, entry IndexEntry) error

	// Delete removes a version from the index.
	Delete(ctx context.Context, versionID string) error

	// Search finds the k nearest indexed versions to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]IndexHit, error)

	// Close releases resources.
	Close() error
}

// IndexEntry is one version handed to the search index.
type IndexEntry struct {
	// VersionID identifies the indexed version.
	VersionID string

	// StandardID identifies the owning standard.
	StandardID string

	// Content is the version's full text.
	Content string

	// Embedding is the version's retained vector.
	Embedding []float32

	// Metadata carries indexable provenance: standard name, version
	// date, source URL.
	Metadata map[string]any
}

// IndexHit represents a similarity search result.
type IndexHit struct {
	// VersionID is the matched version.
	VersionID string

	// StandardID is the matched version's standard.
	StandardID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}

// IndexLoader is implemented by indexes that can be rebuilt from stored
// versions at startup.
type IndexLoader interface {
	// Load bulk-inserts entries, replacing any existing index state.
	Load(ctx context.Context, entries []IndexEntry) error
}
