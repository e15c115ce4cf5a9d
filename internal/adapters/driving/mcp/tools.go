package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/vigil-cli/internal/core/domain"
)

// SearchStandardsInput is the input schema for the search_standards tool.
type SearchStandardsInput struct {
	Query    string `json:"query" jsonschema:"the search query to find standards"`
	Semantic bool   `json:"semantic,omitempty" jsonschema:"use semantic vector search over version content instead of keyword matching"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
}

// SearchStandardsOutput is the output schema for the search_standards tool.
type SearchStandardsOutput struct {
	Results []StandardResultOutput `json:"results"`
	Count   int                    `json:"count"`
}

// StandardResultOutput represents a single search result.
type StandardResultOutput struct {
	StandardID  string  `json:"standard_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	VersionID   string  `json:"version_id,omitempty"`
	Score       float64 `json:"score,omitempty"`
}

// VersionHistoryInput is the input schema for the get_version_history tool.
type VersionHistoryInput struct {
	StandardID string `json:"standard_id" jsonschema:"the standard whose version history to list"`
}

// VersionHistoryOutput is the output schema for the get_version_history tool.
type VersionHistoryOutput struct {
	Versions []VersionOutput `json:"versions"`
	Count    int             `json:"count"`
}

// VersionOutput represents one version in a history listing.
type VersionOutput struct {
	VersionID      string `json:"version_id"`
	VersionNumber  int    `json:"version_number"`
	VersionDate    string `json:"version_date"`
	ContentHash    string `json:"content_hash"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// CompareVersionsInput is the input schema for the compare_versions tool.
type CompareVersionsInput struct {
	VersionA string `json:"version_a" jsonschema:"the first version ID"`
	VersionB string `json:"version_b" jsonschema:"the second version ID"`
}

// CompareVersionsOutput is the output schema for the compare_versions tool.
type CompareVersionsOutput struct {
	VersionA        string  `json:"version_a"`
	VersionB        string  `json:"version_b"`
	SimilarityScore float64 `json:"similarity_score"`
	ModelA          string  `json:"model_a,omitempty"`
	ModelB          string  `json:"model_b,omitempty"`
	CrossModel      bool    `json:"cross_model"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_standards",
		Description: "Search tracked security standards by keyword or semantically",
	}, s.handleSearchStandards)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_version_history",
		Description: "List all recorded versions of a standard, oldest first",
	}, s.handleVersionHistory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compare_versions",
		Description: "Compute the embedding similarity of two stored versions",
	}, s.handleCompareVersions)
}

// handleSearchStandards handles the search_standards tool invocation.
func (s *Server) handleSearchStandards(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchStandardsInput,
) (*mcp.CallToolResult, SearchStandardsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	opts := domain.SearchOptions{Limit: limit, Semantic: input.Semantic}
	results, err := s.ports.Query.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchStandardsOutput{}, err
	}

	output := SearchStandardsOutput{
		Results: make([]StandardResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		output.Results[i] = StandardResultOutput{
			StandardID:  results[i].Standard.ID,
			Name:        results[i].Standard.Name,
			Description: results[i].Standard.Description,
			Score:       results[i].Score,
		}
		if results[i].Version != nil {
			output.Results[i].VersionID = results[i].Version.ID
		}
	}

	return nil, output, nil
}

// handleVersionHistory handles the get_version_history tool invocation.
func (s *Server) handleVersionHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input VersionHistoryInput,
) (*mcp.CallToolResult, VersionHistoryOutput, error) {
	versions, err := s.ports.Query.GetVersionHistory(ctx, input.StandardID)
	if err != nil {
		return nil, VersionHistoryOutput{}, err
	}

	output := VersionHistoryOutput{
		Versions: make([]VersionOutput, len(versions)),
		Count:    len(versions),
	}

	for i := range versions {
		output.Versions[i] = VersionOutput{
			VersionID:      versions[i].ID,
			VersionNumber:  versions[i].VersionNumber,
			VersionDate:    versions[i].VersionDate.Format(time.RFC3339),
			ContentHash:    versions[i].ContentHash,
			EmbeddingModel: versions[i].EmbeddingModel(),
		}
	}

	return nil, output, nil
}

// handleCompareVersions handles the compare_versions tool invocation.
func (s *Server) handleCompareVersions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CompareVersionsInput,
) (*mcp.CallToolResult, CompareVersionsOutput, error) {
	cmp, err := s.ports.Query.CompareVersions(ctx, input.VersionA, input.VersionB)
	if err != nil {
		return nil, CompareVersionsOutput{}, err
	}

	return nil, CompareVersionsOutput{
		VersionA:        cmp.VersionA,
		VersionB:        cmp.VersionB,
		SimilarityScore: cmp.Score,
		ModelA:          cmp.ModelA,
		ModelB:          cmp.ModelB,
		CrossModel:      cmp.CrossModel,
	}, nil
}
