package mcp

import (
	"context"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	standards  []domain.Standard
	standard   *domain.Standard
	versions   []domain.Version
	version    *domain.Version
	changes    []domain.Change
	comparison *domain.Comparison
	results    []domain.SearchResult
	err        error
}

func (m *mockQueryService) ListStandards(_ context.Context, _ string) ([]domain.Standard, error) {
	return m.standards, m.err
}

func (m *mockQueryService) GetStandard(_ context.Context, _ string) (*domain.Standard, error) {
	return m.standard, m.err
}

func (m *mockQueryService) GetVersionHistory(_ context.Context, _ string) ([]domain.Version, error) {
	return m.versions, m.err
}

func (m *mockQueryService) GetVersion(_ context.Context, _ string) (*domain.Version, error) {
	return m.version, m.err
}

func (m *mockQueryService) GetChangesForVersion(_ context.Context, _ string) ([]domain.Change, error) {
	return m.changes, m.err
}

func (m *mockQueryService) CompareVersions(_ context.Context, _, _ string) (*domain.Comparison, error) {
	return m.comparison, m.err
}

func (m *mockQueryService) Search(
	_ context.Context,
	_ string,
	_ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.results, m.err
}
