// Package mcp provides an MCP (Model Context Protocol) server adapter for Planilha.
// It enables AI assistants like Claude to read and mutate collaborative sheets
// and to drive enrichment runs.
package mcp

import "errors"

// ErrMissingSheetService is returned when the sheet service is not provided.
var ErrMissingSheetService = errors.New("mcp: sheet service is required")
