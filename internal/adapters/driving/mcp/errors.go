// Package mcp provides an MCP (Model Context Protocol) server adapter for Vigil.
// It lets AI assistants search tracked security standards and inspect their
// version histories and changes.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
