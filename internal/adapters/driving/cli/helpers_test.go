package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
)

// testTime anchors the canned timestamps used by the mocks.
var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testStandards() []domain.Standard {
	return []domain.Standard{
		{
			ID:          "std_1",
			Name:        "OWASP Top 10",
			Description: "Web application security risks",
			SourceURL:   "https://owasp.org/Top10/",
			CreatedAt:   testTime,
			UpdatedAt:   testTime,
		},
		{
			ID:        "std_2",
			Name:      "CIS Controls",
			CreatedAt: testTime,
			UpdatedAt: testTime,
		},
	}
}

func testVersions() []domain.Version {
	return []domain.Version{
		{
			ID:            "ver_1",
			StandardID:    "std_1",
			VersionNumber: 1,
			VersionDate:   testTime,
			ContentHash:   "a1b2c3d4e5f60718293a4b5c6d7e8f90",
			Content:       "# OWASP Top 10\n\nA01 Broken Access Control",
			Embedding:     []float32{0.1, 0.2, 0.3},
			Metadata:      map[string]any{domain.MetaEmbeddingModel: "nomic-embed-text"},
			CreatedAt:     testTime,
		},
		{
			ID:            "ver_2",
			StandardID:    "std_1",
			VersionNumber: 2,
			VersionDate:   testTime.AddDate(0, 6, 0),
			ContentHash:   "90f8e7d6c5b4a3928171605f4e3d2c1b",
			Content:       "# OWASP Top 10\n\nA01 Broken Access Control\nA11 New Category",
			Embedding:     []float32{0.2, 0.2, 0.3},
			Metadata:      map[string]any{domain.MetaEmbeddingModel: "nomic-embed-text"},
			CreatedAt:     testTime.AddDate(0, 6, 0),
		},
	}
}

func testChange() domain.Change {
	return domain.Change{
		ID:              "chg_1",
		FromVersionID:   "ver_1",
		ToVersionID:     "ver_2",
		SimilarityScore: 0.8432,
		Summary: domain.ChangeSummary{
			Magnitude:   domain.MagnitudeModerate,
			Description: "Moderate update detected",
			Details: []domain.ChangeDetail{
				{Type: domain.ChangeAddition, Description: "Added 1 new line", Content: "A11 New Category"},
			},
		},
		DetectedAt: testTime.AddDate(0, 6, 0),
	}
}

// mockQueryService implements driving.QueryService with canned data.
type mockQueryService struct{}

func (m *mockQueryService) ListStandards(_ context.Context, _ string) ([]domain.Standard, error) {
	return testStandards(), nil
}

func (m *mockQueryService) GetStandard(_ context.Context, _ string) (*domain.Standard, error) {
	std := testStandards()[0]
	return &std, nil
}

func (m *mockQueryService) GetVersionHistory(_ context.Context, _ string) ([]domain.Version, error) {
	return testVersions(), nil
}

func (m *mockQueryService) GetVersion(_ context.Context, _ string) (*domain.Version, error) {
	v := testVersions()[0]
	return &v, nil
}

func (m *mockQueryService) GetChangesForVersion(_ context.Context, _ string) ([]domain.Change, error) {
	return []domain.Change{testChange()}, nil
}

func (m *mockQueryService) CompareVersions(_ context.Context, _, _ string) (*domain.Comparison, error) {
	return &domain.Comparison{
		VersionA: "ver_1",
		VersionB: "ver_2",
		Score:    0.8432,
		ModelA:   "nomic-embed-text",
		ModelB:   "nomic-embed-text",
	}, nil
}

func (m *mockQueryService) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	versions := testVersions()
	return []domain.SearchResult{
		{
			Standard: testStandards()[0],
			Version:  &versions[1],
			Score:    0.92,
		},
	}, nil
}

// mockQueryServiceError fails every call.
type mockQueryServiceError struct{}

var errMockQuery = errors.New("store unavailable")

func (m *mockQueryServiceError) ListStandards(_ context.Context, _ string) ([]domain.Standard, error) {
	return nil, errMockQuery
}

func (m *mockQueryServiceError) GetStandard(_ context.Context, _ string) (*domain.Standard, error) {
	return nil, errMockQuery
}

func (m *mockQueryServiceError) GetVersionHistory(_ context.Context, _ string) ([]domain.Version, error) {
	return nil, errMockQuery
}

func (m *mockQueryServiceError) GetVersion(_ context.Context, _ string) (*domain.Version, error) {
	return nil, errMockQuery
}

func (m *mockQueryServiceError) GetChangesForVersion(_ context.Context, _ string) ([]domain.Change, error) {
	return nil, errMockQuery
}

func (m *mockQueryServiceError) CompareVersions(_ context.Context, _, _ string) (*domain.Comparison, error) {
	return nil, errMockQuery
}

func (m *mockQueryServiceError) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return nil, errMockQuery
}

// mockQueryServiceLongContent returns a version whose content exceeds
// the preview limit.
type mockQueryServiceLongContent struct {
	mockQueryService
}

func (m *mockQueryServiceLongContent) GetVersion(_ context.Context, _ string) (*domain.Version, error) {
	v := testVersions()[0]
	v.Content = strings.Repeat("control requirement text ", 40)
	return &v, nil
}

// mockQueryServiceCrossModel flags the comparison as cross-model.
type mockQueryServiceCrossModel struct {
	mockQueryService
}

func (m *mockQueryServiceCrossModel) CompareVersions(_ context.Context, _, _ string) (*domain.Comparison, error) {
	return &domain.Comparison{
		VersionA:   "ver_1",
		VersionB:   "ver_3",
		Score:      0.61,
		ModelA:     "nomic-embed-text",
		ModelB:     "all-minilm",
		CrossModel: true,
	}, nil
}

// mockQueryServiceEmpty returns empty collections.
type mockQueryServiceEmpty struct {
	mockQueryService
}

func (m *mockQueryServiceEmpty) ListStandards(_ context.Context, _ string) ([]domain.Standard, error) {
	return nil, nil
}

func (m *mockQueryServiceEmpty) GetChangesForVersion(_ context.Context, _ string) ([]domain.Change, error) {
	return nil, nil
}

func (m *mockQueryServiceEmpty) Search(_ context.Context, _ string, _ domain.SearchOptions) ([]domain.SearchResult, error) {
	return nil, nil
}

// mockIngestOrchestrator implements driving.IngestOrchestrator.
type mockIngestOrchestrator struct {
	decision *domain.Decision
	status   *driving.IngestStatus
}

func (m *mockIngestOrchestrator) RunCycle(_ context.Context) (*driving.IngestStatus, error) {
	if m.status != nil {
		return m.status, nil
	}
	return &driving.IngestStatus{
		StartedAt:          testTime,
		EndedAt:            testTime.Add(time.Minute),
		DocumentsProcessed: 4,
		NewStandards:       1,
		NewVersions:        2,
		Duplicates:         1,
	}, nil
}

func (m *mockIngestOrchestrator) IngestDocument(_ context.Context, _ domain.FetchedDocument) (*domain.Decision, error) {
	return m.decision, nil
}

func (m *mockIngestOrchestrator) Status() *driving.IngestStatus {
	return nil
}

// mockIngestOrchestratorError fails every call.
type mockIngestOrchestratorError struct{}

func (m *mockIngestOrchestratorError) RunCycle(_ context.Context) (*driving.IngestStatus, error) {
	return nil, errors.New("fetcher unavailable")
}

func (m *mockIngestOrchestratorError) IngestDocument(_ context.Context, _ domain.FetchedDocument) (*domain.Decision, error) {
	return nil, errors.New("embedding unavailable")
}

func (m *mockIngestOrchestratorError) Status() *driving.IngestStatus {
	return nil
}

// mockScheduler returns immediately from Start as a cancelled run does.
type mockScheduler struct{}

func (m *mockScheduler) Start(_ context.Context) error {
	return context.Canceled
}

func (m *mockScheduler) Stop() error {
	return nil
}

// setupTestServices installs the happy-path mocks and returns a cleanup
// that restores whatever was wired before.
func setupTestServices() func() {
	oldQuery := queryService
	oldIngest := ingestOrch
	oldScheduler := schedulerService

	queryService = &mockQueryService{}
	ingestOrch = &mockIngestOrchestrator{
		decision: &domain.Decision{
			Kind:       domain.DecisionNewStandard,
			StandardID: "std_1",
			VersionID:  "ver_1",
		},
	}
	schedulerService = &mockScheduler{}

	return func() {
		queryService = oldQuery
		ingestOrch = oldIngest
		schedulerService = oldScheduler
	}
}
