package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Vigil resources.
	uriScheme = "vigil://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing tracked standards.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "standards",
		Name:        "standards",
		Description: "List of all tracked security standards",
		MIMEType:    "application/json",
	}, s.handleStandardsResource)

	// Template for a standard's version history.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "standards/{standardId}/versions",
		Name:        "standard-versions",
		Description: "Version history of a specific standard",
		MIMEType:    "application/json",
	}, s.handleVersionsResource)

	// Template for version content.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "versions/{versionId}",
		Name:        "version-content",
		Description: "Full content of a specific version",
		MIMEType:    "text/plain",
	}, s.handleVersionContentResource)
}

// handleStandardsResource returns a list of all tracked standards.
func (s *Server) handleStandardsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	standards, err := s.ports.Query.ListStandards(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing standards: %w", err)
	}

	// Build simplified standard list.
	type standardInfo struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		UpdatedAt   string `json:"updated_at"`
	}

	infos := make([]standardInfo, len(standards))
	for i, std := range standards {
		infos[i] = standardInfo{
			ID:          std.ID,
			Name:        std.Name,
			Description: std.Description,
			UpdatedAt:   std.UpdatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling standards: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleVersionsResource returns the version history of a standard.
func (s *Server) handleVersionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract standardId from URI: vigil://standards/{standardId}/versions
	standardID := extractStandardID(req.Params.URI)
	if standardID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	versions, err := s.ports.Query.GetVersionHistory(ctx, standardID)
	if err != nil {
		return nil, fmt.Errorf("getting version history: %w", err)
	}

	// Build simplified version list.
	type versionInfo struct {
		ID            string `json:"id"`
		VersionNumber int    `json:"version_number"`
		VersionDate   string `json:"version_date"`
		ContentHash   string `json:"content_hash"`
	}

	infos := make([]versionInfo, len(versions))
	for i := range versions {
		infos[i] = versionInfo{
			ID:            versions[i].ID,
			VersionNumber: versions[i].VersionNumber,
			VersionDate:   versions[i].VersionDate.Format(time.RFC3339),
			ContentHash:   versions[i].ContentHash,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling versions: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleVersionContentResource returns the full content of a version.
func (s *Server) handleVersionContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract versionId from URI: vigil://versions/{versionId}
	versionID := extractVersionID(req.Params.URI)
	if versionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	version, err := s.ports.Query.GetVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("getting version content: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     version.Content,
		}},
	}, nil
}

// extractStandardID extracts the standard ID from a URI like vigil://standards/{standardId}/versions.
func extractStandardID(uri string) string {
	const prefix = uriScheme + "standards/"
	const suffix = "/versions"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}

// extractVersionID extracts the version ID from a URI like vigil://versions/{versionId}.
func extractVersionID(uri string) string {
	const prefix = uriScheme + "versions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
