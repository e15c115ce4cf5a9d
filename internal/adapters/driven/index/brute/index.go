// Package brute provides an in-process search index that answers kNN
// queries by scanning all indexed versions and scoring cosine
// similarity against precomputed magnitudes. At the scale of tracked
// standards a full scan outperforms anything with maintenance cost.
package brute

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// Ensure Index implements both interfaces.
var (
	_ driven.SearchIndex = (*Index)(nil)
	_ driven.IndexLoader = (*Index)(nil)
)

// Index is a brute-force cosine similarity index keyed by version ID.
type Index struct {
	mu      sync.RWMutex
	entries map[string]indexed
}

// indexed is one stored entry with its precomputed magnitude.
type indexed struct {
	entry     driven.IndexEntry
	magnitude float64
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]indexed),
	}
}

// Index inserts or replaces the entry for a version.
func (i *Index) Index(_ context.Context, entry driven.IndexEntry) error {
	if entry.VersionID == "" {
		return fmt.Errorf("index entry has no version ID: %w", domain.ErrInvalidInput)
	}
	mag := magnitude(entry.Embedding)
	if len(entry.Embedding) == 0 || mag == 0 {
		return fmt.Errorf("index entry %s has no usable vector: %w", entry.VersionID, domain.ErrInvalidVector)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries[entry.VersionID] = indexed{entry: entry, magnitude: mag}
	return nil
}

// Delete removes a version from the index.
func (i *Index) Delete(_ context.Context, versionID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, versionID)
	return nil
}

// Search finds the k nearest indexed versions to the query vector.
// Entries whose dimensionality does not match the query are skipped,
// not failed: the index may span embedding model generations.
func (i *Index) Search(_ context.Context, query []float32, k int) ([]driven.IndexHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector: %w", domain.ErrInvalidVector)
	}
	queryMag := magnitude(query)
	if queryMag == 0 {
		return nil, fmt.Errorf("zero magnitude query vector: %w", domain.ErrInvalidVector)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	hits := make([]driven.IndexHit, 0, len(i.entries))
	for _, stored := range i.entries {
		if len(stored.entry.Embedding) != len(query) {
			continue
		}
		score := dot(query, stored.entry.Embedding) / (queryMag * stored.magnitude)
		if math.IsNaN(score) {
			continue
		}
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		hits = append(hits, driven.IndexHit{
			VersionID:  stored.entry.VersionID,
			StandardID: stored.entry.StandardID,
			Similarity: score,
		})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].VersionID < hits[b].VersionID
	})

	if k > 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Load bulk-inserts entries, replacing any existing index state.
// Entries without a usable vector are dropped rather than failing the
// whole load, since stored versions may predate embedding support.
func (i *Index) Load(_ context.Context, entries []driven.IndexEntry) error {
	rebuilt := make(map[string]indexed, len(entries))
	for _, entry := range entries {
		if entry.VersionID == "" {
			continue
		}
		mag := magnitude(entry.Embedding)
		if len(entry.Embedding) == 0 || mag == 0 {
			continue
		}
		rebuilt[entry.VersionID] = indexed{entry: entry, magnitude: mag}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = rebuilt
	return nil
}

// Len returns the number of indexed versions.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func magnitude(v []float32) float64 { return math.Sqrt(dot(v, v)) }
