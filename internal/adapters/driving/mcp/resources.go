package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for Planilha resources.
	uriScheme = "planilha://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing sheets.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sheets",
		Name:        "sheets",
		Description: "List of all sheets",
		MIMEType:    "application/json",
	}, s.handleSheetsResource)

	// Template for a sheet snapshot.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sheets/{sheetId}",
		Name:        "sheet-snapshot",
		Description: "Full snapshot of a specific sheet",
		MIMEType:    "application/json",
	}, s.handleSnapshotResource)

	// Template for a sheet's operation history.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sheets/{sheetId}/history",
		Name:        "sheet-history",
		Description: "Recent operations applied to a specific sheet, most recent first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleSheetsResource returns a list of all sheets.
func (s *Server) handleSheetsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sheets, err := s.ports.Sheets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sheets: %w", err)
	}

	infos := make([]SheetSummary, len(sheets))
	for i := range sheets {
		infos[i] = SheetSummary{
			SheetID: sheets[i].ID,
			Name:    sheets[i].Name,
			Rows:    len(sheets[i].Rows),
			Columns: len(sheets[i].Columns),
			Version: sheets[i].Metadata.Version,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sheets: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSnapshotResource returns the snapshot of a specific sheet.
func (s *Server) handleSnapshotResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sheetID := extractSheetID(req.Params.URI, "")
	if sheetID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	snap, err := s.ports.Sheets.Snapshot(ctx, sheetID)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling snapshot: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleHistoryResource returns recent operations for a specific sheet.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sheetID := extractSheetID(req.Params.URI, "/history")
	if sheetID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	ops, err := s.ports.Sheets.History(ctx, sheetID, 100)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	data, err := json.MarshalIndent(ops, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSheetID extracts the sheet id from a URI like
// planilha://sheets/{sheetId}{suffix}.
func extractSheetID(uri, suffix string) string {
	const prefix = uriScheme + "sheets/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	uri = strings.TrimPrefix(uri, prefix)

	if suffix != "" {
		if !strings.HasSuffix(uri, suffix) {
			return ""
		}
		uri = strings.TrimSuffix(uri, suffix)
	}

	if strings.Contains(uri, "/") {
		return ""
	}
	return uri
}
