package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driven"
)

// --- Mock implementations for query testing ---

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	vector   []float32
	embedErr error
	calls    int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.vector) }
func (m *mockEmbedder) ModelName() string            { return "test-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockIndex implements driven.SearchIndex for testing.
type mockIndex struct {
	entries   []driven.IndexEntry
	hits      []driven.IndexHit
	indexErr  error
	searchErr error
	lastK     int
}

var _ driven.SearchIndex = (*mockIndex)(nil)

func (m *mockIndex) Index(_ context.Context, entry driven.IndexEntry) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockIndex) Delete(_ context.Context, versionID string) error {
	for i, e := range m.entries {
		if e.VersionID == versionID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	return nil
}

func (m *mockIndex) Search(_ context.Context, _ []float32, k int) ([]driven.IndexHit, error) {
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.hits, nil
}

func (m *mockIndex) Close() error { return nil }

// --- Test helpers ---

func newTestQuery(store driven.StandardStore, index driven.SearchIndex, embedder driven.EmbeddingService) *Query {
	return NewQuery(store, index, embedder, zerolog.Nop())
}

// seedHistory creates a standard with the given version contents, each
// sufficiently similar to extend the same standard.
func seedHistory(t *testing.T, store *memStore, name string, contents ...string) []*domain.Decision {
	t.Helper()
	tracker := newTestTracker(t, store)

	decisions := make([]*domain.Decision, len(contents))
	for i, content := range contents {
		var err error
		cand := domain.Candidate{Name: name, Text: content, Vector: []float32{1, 0, 0}}
		if i > 0 {
			cand.StandardID = decisions[0].StandardID
		}
		decisions[i], err = tracker.AddVersion(context.Background(), cand)
		require.NoError(t, err)
	}
	return decisions
}

// ==================== Query Tests ====================

func TestQuery_ListStandards(t *testing.T) {
	store := newMemStore()
	seedStandard(t, store, "NIST CSF", "Cybersecurity framework functions.", []float32{1, 0, 0})
	seedStandard(t, store, "PCI DSS", "Payment card data security.", []float32{0, 1, 0})

	query := newTestQuery(store, nil, nil)

	all, err := query.ListStandards(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Most recently updated first.
	assert.Equal(t, "PCI DSS", all[0].Name)
	assert.Equal(t, "NIST CSF", all[1].Name)
}

func TestQuery_ListStandards_Filter(t *testing.T) {
	store := newMemStore()
	seedStandard(t, store, "NIST CSF", "Cybersecurity framework functions.", []float32{1, 0, 0})
	seedStandard(t, store, "PCI DSS", "Payment card data security.", []float32{0, 1, 0})

	query := newTestQuery(store, nil, nil)

	t.Run("matches name", func(t *testing.T) {
		got, err := query.ListStandards(context.Background(), "pci")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "PCI DSS", got[0].Name)
	})

	t.Run("matches description", func(t *testing.T) {
		got, err := query.ListStandards(context.Background(), "framework")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "NIST CSF", got[0].Name)
	})

	t.Run("no match", func(t *testing.T) {
		got, err := query.ListStandards(context.Background(), "hipaa")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestQuery_GetStandard_NotFound(t *testing.T) {
	query := newTestQuery(newMemStore(), nil, nil)

	_, err := query.GetStandard(context.Background(), "std_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_GetVersionHistory(t *testing.T) {
	store := newMemStore()
	decisions := seedHistory(t, store, "ISO 27001",
		"Clause 4: Context.",
		"Clause 4: Context.\nClause 5: Leadership.",
		"Clause 4: Context.\nClause 5: Leadership.\nClause 6: Planning.")

	query := newTestQuery(store, nil, nil)

	history, err := query.GetVersionHistory(context.Background(), decisions[0].StandardID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// Ordered oldest to newest.
	for i, v := range history {
		assert.Equal(t, i+1, v.VersionNumber)
	}
}

func TestQuery_GetVersionHistory_UnknownStandard(t *testing.T) {
	query := newTestQuery(newMemStore(), nil, nil)

	_, err := query.GetVersionHistory(context.Background(), "std_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_GetVersion_NotFound(t *testing.T) {
	query := newTestQuery(newMemStore(), nil, nil)

	_, err := query.GetVersion(context.Background(), "v_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_GetChangesForVersion(t *testing.T) {
	store := newMemStore()
	decisions := seedHistory(t, store, "SOC 2",
		"Security criteria.",
		"Security criteria.\nAvailability criteria.",
		"Security criteria.\nAvailability criteria.\nConfidentiality criteria.")

	query := newTestQuery(store, nil, nil)

	// The middle version has an incoming and an outgoing change.
	changes, err := query.GetChangesForVersion(context.Background(), decisions[1].VersionID)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, decisions[1].VersionID, changes[0].ToVersionID)
	assert.Equal(t, decisions[1].VersionID, changes[1].FromVersionID)

	// The first version only has the outgoing change.
	changes, err = query.GetChangesForVersion(context.Background(), decisions[0].VersionID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, decisions[0].VersionID, changes[0].FromVersionID)
}

func TestQuery_CompareVersions(t *testing.T) {
	store := newMemStore()
	a := seedStandard(t, store, "A", "Alpha content.", []float32{1, 0, 0})
	b := seedStandard(t, store, "B", "Beta content entirely.", []float32{4, 3, 0})

	query := newTestQuery(store, nil, nil)

	cmp, err := query.CompareVersions(context.Background(), a.VersionID, b.VersionID)
	require.NoError(t, err)

	assert.Equal(t, a.VersionID, cmp.VersionA)
	assert.Equal(t, b.VersionID, cmp.VersionB)
	assert.InDelta(t, 0.8, cmp.Score, 1e-9)
	assert.Equal(t, "test-embed", cmp.ModelA)
	assert.Equal(t, "test-embed", cmp.ModelB)
	assert.False(t, cmp.CrossModel)
}

func TestQuery_CompareVersions_CrossModel(t *testing.T) {
	store := newMemStore()
	a := seedStandard(t, store, "A", "Alpha content.", []float32{1, 0, 0})

	// A version embedded by a different model.
	std := &domain.Standard{ID: "std_legacy", Name: "Legacy", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	version := &domain.Version{
		ID:            "v_legacy",
		StandardID:    "std_legacy",
		VersionNumber: 1,
		ContentHash:   "h",
		Content:       "legacy content",
		Embedding:     []float32{0, 1, 0},
		Metadata:      map[string]any{domain.MetaEmbeddingModel: "legacy-embed"},
		CreatedAt:     time.Now(),
	}
	require.NoError(t, store.CreateStandardWithVersion(context.Background(), std, version))

	query := newTestQuery(store, nil, nil)

	cmp, err := query.CompareVersions(context.Background(), a.VersionID, "v_legacy")
	require.NoError(t, err)
	assert.True(t, cmp.CrossModel)
	assert.Equal(t, "test-embed", cmp.ModelA)
	assert.Equal(t, "legacy-embed", cmp.ModelB)
}

func TestQuery_CompareVersions_NotFound(t *testing.T) {
	store := newMemStore()
	a := seedStandard(t, store, "A", "Alpha content.", []float32{1, 0, 0})

	query := newTestQuery(store, nil, nil)

	_, err := query.CompareVersions(context.Background(), a.VersionID, "v_missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuery_CompareVersions_MissingVector(t *testing.T) {
	store := newMemStore()
	a := seedStandard(t, store, "A", "Alpha content.", []float32{1, 0, 0})

	std := &domain.Standard{ID: "std_bare", Name: "Bare", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	version := &domain.Version{
		ID:            "v_bare",
		StandardID:    "std_bare",
		VersionNumber: 1,
		ContentHash:   "h",
		Content:       "no vector retained",
		CreatedAt:     time.Now(),
	}
	require.NoError(t, store.CreateStandardWithVersion(context.Background(), std, version))

	query := newTestQuery(store, nil, nil)

	_, err := query.CompareVersions(context.Background(), a.VersionID, "v_bare")
	require.ErrorIs(t, err, domain.ErrInvalidVector)
}

func TestQuery_Search_EmptyQuery(t *testing.T) {
	query := newTestQuery(newMemStore(), nil, nil)

	_, err := query.Search(context.Background(), "   ", domain.SearchOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_Search_Keyword(t *testing.T) {
	store := newMemStore()
	seedStandard(t, store, "NIST CSF", "Cybersecurity framework.", []float32{1, 0, 0})
	seedStandard(t, store, "PCI DSS", "Payment card security.", []float32{0, 1, 0})

	query := newTestQuery(store, nil, nil)

	results, err := query.Search(context.Background(), "payment", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "PCI DSS", results[0].Standard.Name)
	assert.Nil(t, results[0].Version)
}

func TestQuery_Search_KeywordPagination(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 5; i++ {
		seedStandard(t, store, fmt.Sprintf("Standard %d", i), "shared keyword corpus", []float32{1, 0, 0})
	}

	query := newTestQuery(store, nil, nil)

	page1, err := query.Search(context.Background(), "corpus", domain.SearchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := query.Search(context.Background(), "corpus", domain.SearchOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	assert.NotEqual(t, page1[0].Standard.ID, page2[0].Standard.ID)

	tail, err := query.Search(context.Background(), "corpus", domain.SearchOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	past, err := query.Search(context.Background(), "corpus", domain.SearchOptions{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestQuery_Search_Semantic(t *testing.T) {
	store := newMemStore()
	seeded := seedStandard(t, store, "NIST CSF", "Framework content body.", []float32{1, 0, 0})

	index := &mockIndex{hits: []driven.IndexHit{
		{VersionID: seeded.VersionID, StandardID: seeded.StandardID, Similarity: 0.92},
	}}
	embedder := &mockEmbedder{vector: []float32{1, 0, 0}}

	query := newTestQuery(store, index, embedder)

	results, err := query.Search(context.Background(), "incident response", domain.SearchOptions{Semantic: true})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, seeded.StandardID, results[0].Standard.ID)
	require.NotNil(t, results[0].Version)
	assert.Equal(t, seeded.VersionID, results[0].Version.ID)
	assert.InDelta(t, 0.92, results[0].Score, 1e-9)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, defaultSearchLimit, index.lastK)
}

func TestQuery_Search_SemanticFallsBackWithoutIndex(t *testing.T) {
	store := newMemStore()
	seedStandard(t, store, "NIST CSF", "Framework content.", []float32{1, 0, 0})

	query := newTestQuery(store, nil, nil)

	// Semantic requested but no index wired: keyword results come back.
	results, err := query.Search(context.Background(), "framework", domain.SearchOptions{Semantic: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].Version)
}

func TestQuery_Search_SemanticDropsUnhydratableHits(t *testing.T) {
	store := newMemStore()
	seeded := seedStandard(t, store, "Known", "Body text.", []float32{1, 0, 0})

	index := &mockIndex{hits: []driven.IndexHit{
		{VersionID: "v_gone", StandardID: "std_gone", Similarity: 0.99},
		{VersionID: seeded.VersionID, StandardID: seeded.StandardID, Similarity: 0.8},
	}}
	embedder := &mockEmbedder{vector: []float32{1, 0, 0}}

	query := newTestQuery(store, index, embedder)

	// The stale hit is dropped rather than failing the search.
	results, err := query.Search(context.Background(), "anything", domain.SearchOptions{Semantic: true})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, seeded.StandardID, results[0].Standard.ID)
}

func TestQuery_Search_SemanticEmbedFailure(t *testing.T) {
	store := newMemStore()
	index := &mockIndex{}
	embedder := &mockEmbedder{embedErr: fmt.Errorf("embedder offline")}

	query := newTestQuery(store, index, embedder)

	_, err := query.Search(context.Background(), "anything", domain.SearchOptions{Semantic: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedder offline")
}
