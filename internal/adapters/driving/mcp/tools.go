package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// mcpUserID identifies mutations performed through the MCP server when the
// caller does not name a user.
const mcpUserID = "mcp-client"

// SheetCreateInput is the input schema for the sheet_create tool.
type SheetCreateInput struct {
	Name string           `json:"name" jsonschema:"name of the sheet to create"`
	Rows []map[string]any `json:"rows,omitempty" jsonschema:"initial rows as field/value objects; columns are inferred from them"`
}

// SheetCreateOutput is the output schema for the sheet_create tool.
type SheetCreateOutput struct {
	SheetID string `json:"sheet_id"`
	Columns int    `json:"columns"`
	Rows    int    `json:"rows"`
	Version int64  `json:"version"`
}

// SheetGetInput is the input schema for the sheet_get tool.
type SheetGetInput struct {
	SheetID string `json:"sheet_id" jsonschema:"id of the sheet to fetch"`
}

// SheetGetOutput is the output schema for the sheet_get tool.
type SheetGetOutput struct {
	Snapshot *domain.Snapshot `json:"snapshot"`
}

// SheetListOutput is the output schema for the sheet_list tool.
type SheetListOutput struct {
	Sheets []SheetSummary `json:"sheets"`
	Count  int            `json:"count"`
}

// SheetSummary is one sheet in a sheet_list result.
type SheetSummary struct {
	SheetID string `json:"sheet_id"`
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Version int64  `json:"version"`
}

// CellUpdateInput is the input schema for the cell_update tool.
type CellUpdateInput struct {
	SheetID  string `json:"sheet_id" jsonschema:"id of the sheet"`
	RowIndex int    `json:"row_index" jsonschema:"zero-based row index; rows beyond the end are created"`
	ColumnID string `json:"column_id" jsonschema:"id of the column to write"`
	Value    any    `json:"value" jsonschema:"new cell value"`
	UserID   string `json:"user_id,omitempty" jsonschema:"user attributed with the edit"`
}

// CellUpdateOutput is the output schema for the cell_update tool.
type CellUpdateOutput struct {
	Version int64 `json:"version"`
	Rows    int   `json:"rows"`
}

// RowAddInput is the input schema for the row_add tool.
type RowAddInput struct {
	SheetID string         `json:"sheet_id" jsonschema:"id of the sheet"`
	Data    map[string]any `json:"data" jsonschema:"field/value pairs for the new row"`
	UserID  string         `json:"user_id,omitempty" jsonschema:"user attributed with the edit"`
}

// RowAddOutput is the output schema for the row_add tool.
type RowAddOutput struct {
	RowIndex int   `json:"row_index"`
	Version  int64 `json:"version"`
}

// ColumnAddInput is the input schema for the column_add tool.
type ColumnAddInput struct {
	SheetID string   `json:"sheet_id" jsonschema:"id of the sheet"`
	Name    string   `json:"name" jsonschema:"display name of the new column"`
	Type    string   `json:"type,omitempty" jsonschema:"column type: text, number, date, email, phone, tax_id or select (default text)"`
	Options []string `json:"options,omitempty" jsonschema:"choices for select columns"`
	UserID  string   `json:"user_id,omitempty" jsonschema:"user attributed with the edit"`
}

// ColumnAddOutput is the output schema for the column_add tool.
type ColumnAddOutput struct {
	ColumnID string `json:"column_id"`
	Version  int64  `json:"version"`
}

// EnrichStartInput is the input schema for the enrich_start tool.
type EnrichStartInput struct {
	SheetID     string `json:"sheet_id" jsonschema:"id of the sheet to enrich"`
	Kind        string `json:"kind" jsonschema:"enrichment kind: company, address, email or phone"`
	TaxIDField  string `json:"tax_id_field,omitempty" jsonschema:"column holding the CNPJ (default cnpj)"`
	BatchSize   int    `json:"batch_size,omitempty" jsonschema:"rows per batch (default 50)"`
	Concurrency int    `json:"concurrency,omitempty" jsonschema:"batches in flight at once (default 3)"`
	UserID      string `json:"user_id,omitempty" jsonschema:"user requesting the run"`
}

// EnrichStartOutput is the output schema for the enrich_start tool.
type EnrichStartOutput struct {
	SessionID string `json:"session_id"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
}

// EnrichCancelInput is the input schema for the enrich_cancel tool.
type EnrichCancelInput struct {
	SessionID string `json:"session_id" jsonschema:"id of the session to cancel"`
}

// EnrichCancelOutput is the output schema for the enrich_cancel tool.
type EnrichCancelOutput struct {
	Status string `json:"status"`
}

// EnrichStatusInput is the input schema for the enrich_status tool.
type EnrichStatusInput struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"id of the session to inspect"`
	SheetID   string `json:"sheet_id,omitempty" jsonschema:"alternatively, the sheet whose active session to inspect"`
}

// EnrichStatusOutput is the output schema for the enrich_status tool.
type EnrichStatusOutput struct {
	SessionID string          `json:"session_id"`
	SheetID   string          `json:"sheet_id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Progress  domain.Progress `json:"progress"`
	Error     string          `json:"error,omitempty"`
}

// SheetJoinInput is the input schema for the sheet_join tool.
type SheetJoinInput struct {
	SheetID  string `json:"sheet_id" jsonschema:"id of the sheet to join"`
	UserID   string `json:"user_id,omitempty" jsonschema:"joining user (default mcp-client)"`
	UserName string `json:"user_name,omitempty" jsonschema:"display name (default the user id)"`
}

// SheetJoinOutput is the output schema for the sheet_join tool.
type SheetJoinOutput struct {
	Color       string              `json:"color"`
	ActiveUsers []domain.UserCursor `json:"active_users"`
}

// SheetLeaveInput is the input schema for the sheet_leave tool.
type SheetLeaveInput struct {
	SheetID string `json:"sheet_id" jsonschema:"id of the sheet to leave"`
	UserID  string `json:"user_id,omitempty" jsonschema:"leaving user (default mcp-client)"`
}

// SheetLeaveOutput is the output schema for the sheet_leave tool.
type SheetLeaveOutput struct {
	ActiveUsers []domain.UserCursor `json:"active_users"`
}

// CursorUpdateInput is the input schema for the cursor_update tool.
type CursorUpdateInput struct {
	SheetID   string            `json:"sheet_id" jsonschema:"id of the sheet"`
	UserID    string            `json:"user_id,omitempty" jsonschema:"user whose cursor moves (default mcp-client)"`
	Row       int               `json:"row" jsonschema:"zero-based row the cursor is on"`
	Column    string            `json:"column" jsonschema:"column id the cursor is on"`
	Selection *domain.Selection `json:"selection,omitempty" jsonschema:"optional selection range"`
}

// CursorUpdateOutput is the output schema for the cursor_update tool.
type CursorUpdateOutput struct {
	// Updated is false when the user had not joined the sheet; cursor
	// moves for unjoined users are dropped rather than rejected.
	Updated bool `json:"updated"`
}

// PresenceStatsOutput is the output schema for the presence_stats tool.
type PresenceStatsOutput struct {
	Stats domain.PresenceStats `json:"stats"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sheet_create",
		Description: "Create a new collaborative sheet, optionally seeded with rows",
	}, s.handleSheetCreate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sheet_get",
		Description: "Fetch the full snapshot of a sheet",
	}, s.handleSheetGet)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sheet_list",
		Description: "List all sheets",
	}, s.handleSheetList)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cell_update",
		Description: "Overwrite one cell of a sheet (last write wins)",
	}, s.handleCellUpdate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "row_add",
		Description: "Append a row to a sheet",
	}, s.handleRowAdd)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "column_add",
		Description: "Add a column to a sheet",
	}, s.handleColumnAdd)

	if s.ports.Enrichment != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "enrich_start",
			Description: "Start an enrichment run over a sheet's unenriched rows using the CNPJ registry",
		}, s.handleEnrichStart)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "enrich_cancel",
			Description: "Request cancellation of a running enrichment session",
		}, s.handleEnrichCancel)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "enrich_status",
			Description: "Inspect an enrichment session by id, or a sheet's active session",
		}, s.handleEnrichStatus)
	}

	if s.ports.Presence != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sheet_join",
			Description: "Join a sheet as a connected user with a live cursor",
		}, s.handleSheetJoin)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sheet_leave",
			Description: "Leave a sheet, dropping the user's cursor",
		}, s.handleSheetLeave)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "cursor_update",
			Description: "Move a joined user's cursor on a sheet",
		}, s.handleCursorUpdate)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "presence_stats",
			Description: "Summarise connected users across all sheets",
		}, s.handlePresenceStats)
	}
}

// handleSheetCreate handles the sheet_create tool invocation.
func (s *Server) handleSheetCreate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SheetCreateInput,
) (*mcp.CallToolResult, SheetCreateOutput, error) {
	sheet, err := s.ports.Sheets.Create(ctx, input.Name, input.Rows, mcpUserID)
	if err != nil {
		return nil, SheetCreateOutput{}, err
	}

	return nil, SheetCreateOutput{
		SheetID: sheet.ID,
		Columns: len(sheet.Columns),
		Rows:    len(sheet.Rows),
		Version: sheet.Metadata.Version,
	}, nil
}

// handleSheetGet handles the sheet_get tool invocation.
func (s *Server) handleSheetGet(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SheetGetInput,
) (*mcp.CallToolResult, SheetGetOutput, error) {
	snap, err := s.ports.Sheets.Snapshot(ctx, input.SheetID)
	if err != nil {
		return nil, SheetGetOutput{}, err
	}
	return nil, SheetGetOutput{Snapshot: snap}, nil
}

// handleSheetList handles the sheet_list tool invocation.
func (s *Server) handleSheetList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, SheetListOutput, error) {
	sheets, err := s.ports.Sheets.List(ctx)
	if err != nil {
		return nil, SheetListOutput{}, err
	}

	output := SheetListOutput{
		Sheets: make([]SheetSummary, len(sheets)),
		Count:  len(sheets),
	}
	for i := range sheets {
		output.Sheets[i] = SheetSummary{
			SheetID: sheets[i].ID,
			Name:    sheets[i].Name,
			Rows:    len(sheets[i].Rows),
			Columns: len(sheets[i].Columns),
			Version: sheets[i].Metadata.Version,
		}
	}
	return nil, output, nil
}

// handleCellUpdate handles the cell_update tool invocation.
func (s *Server) handleCellUpdate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CellUpdateInput,
) (*mcp.CallToolResult, CellUpdateOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = mcpUserID
	}

	sheet, err := s.ports.Sheets.UpdateCell(ctx, input.SheetID, input.RowIndex, input.ColumnID, input.Value, userID)
	if err != nil {
		return nil, CellUpdateOutput{}, err
	}

	return nil, CellUpdateOutput{
		Version: sheet.Metadata.Version,
		Rows:    len(sheet.Rows),
	}, nil
}

// handleRowAdd handles the row_add tool invocation.
func (s *Server) handleRowAdd(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RowAddInput,
) (*mcp.CallToolResult, RowAddOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = mcpUserID
	}

	sheet, err := s.ports.Sheets.AddRow(ctx, input.SheetID, input.Data, userID)
	if err != nil {
		return nil, RowAddOutput{}, err
	}

	return nil, RowAddOutput{
		RowIndex: len(sheet.Rows) - 1,
		Version:  sheet.Metadata.Version,
	}, nil
}

// handleColumnAdd handles the column_add tool invocation.
func (s *Server) handleColumnAdd(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ColumnAddInput,
) (*mcp.CallToolResult, ColumnAddOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = mcpUserID
	}

	colType := domain.ColumnText
	if input.Type != "" {
		colType = domain.ColumnType(input.Type)
	}

	spec := domain.Column{
		Name:     input.Name,
		Type:     colType,
		Editable: true,
		Options:  input.Options,
	}

	sheet, err := s.ports.Sheets.AddColumn(ctx, input.SheetID, spec, userID)
	if err != nil {
		return nil, ColumnAddOutput{}, err
	}

	return nil, ColumnAddOutput{
		ColumnID: domain.NormalizeColumnID(input.Name),
		Version:  sheet.Metadata.Version,
	}, nil
}

// handleEnrichStart handles the enrich_start tool invocation.
func (s *Server) handleEnrichStart(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EnrichStartInput,
) (*mcp.CallToolResult, EnrichStartOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = mcpUserID
	}

	kind := domain.EnrichmentKind(input.Kind)
	opts := domain.EnrichmentOptions{
		TaxIDField:  input.TaxIDField,
		BatchSize:   input.BatchSize,
		Concurrency: input.Concurrency,
	}

	sessionID, err := s.ports.Enrichment.Enrich(ctx, input.SheetID, kind, opts, userID)
	if err != nil {
		return nil, EnrichStartOutput{}, err
	}

	session, err := s.ports.Enrichment.Session(ctx, sessionID)
	if err != nil {
		return nil, EnrichStartOutput{}, err
	}

	return nil, EnrichStartOutput{
		SessionID: sessionID,
		Total:     session.Progress.Total,
		Status:    string(session.Status),
	}, nil
}

// handleEnrichCancel handles the enrich_cancel tool invocation.
func (s *Server) handleEnrichCancel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EnrichCancelInput,
) (*mcp.CallToolResult, EnrichCancelOutput, error) {
	if err := s.ports.Enrichment.Cancel(ctx, input.SessionID); err != nil {
		return nil, EnrichCancelOutput{}, err
	}

	session, err := s.ports.Enrichment.Session(ctx, input.SessionID)
	if err != nil {
		return nil, EnrichCancelOutput{}, err
	}
	return nil, EnrichCancelOutput{Status: string(session.Status)}, nil
}

// handleEnrichStatus handles the enrich_status tool invocation.
func (s *Server) handleEnrichStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EnrichStatusInput,
) (*mcp.CallToolResult, EnrichStatusOutput, error) {
	var (
		session *domain.EnrichmentSession
		err     error
	)

	switch {
	case input.SessionID != "":
		session, err = s.ports.Enrichment.Session(ctx, input.SessionID)
	case input.SheetID != "":
		session, err = s.ports.Enrichment.ActiveSession(ctx, input.SheetID)
	default:
		return nil, EnrichStatusOutput{}, errors.New("either session_id or sheet_id is required")
	}
	if err != nil {
		return nil, EnrichStatusOutput{}, err
	}

	return nil, EnrichStatusOutput{
		SessionID: session.ID,
		SheetID:   session.SheetID,
		Kind:      string(session.Kind),
		Status:    string(session.Status),
		Progress:  session.Progress,
		Error:     session.Error,
	}, nil
}

// handleSheetJoin handles the sheet_join tool invocation.
func (s *Server) handleSheetJoin(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SheetJoinInput,
) (*mcp.CallToolResult, SheetJoinOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = mcpUserID
	}
	userName := input.UserName
	if userName == "" {
		userName = userID
	}

	event, err := s.ports.Presence.Join(ctx, input.SheetID, userID, userName, "mcp:"+userID)
	if err != nil {
		return nil, SheetJoinOutput{}, err
	}

	output := SheetJoinOutput{}
	if payload, ok := event.Payload.(domain.PresencePayload); ok {
		if payload.Cursor != nil {
			output.Color = payload.Cursor.Color
		}
		output.ActiveUsers = payload.ActiveUsers
	}
	return nil, output, nil
}

// handleSheetLeave handles the sheet_leave tool invocation. Leaving a
// sheet the user never joined succeeds and simply reports the sheet's
// current users.
func (s *Server) handleSheetLeave(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SheetLeaveInput,
) (*mcp.CallToolResult, SheetLeaveOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = mcpUserID
	}

	if _, err := s.ports.Presence.Leave(ctx, input.SheetID, userID); err != nil {
		return nil, SheetLeaveOutput{}, err
	}
	return nil, SheetLeaveOutput{
		ActiveUsers: s.ports.Presence.ActiveUsers(ctx, input.SheetID),
	}, nil
}

// handleCursorUpdate handles the cursor_update tool invocation.
func (s *Server) handleCursorUpdate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CursorUpdateInput,
) (*mcp.CallToolResult, CursorUpdateOutput, error) {
	userID := input.UserID
	if userID == "" {
		userID = mcpUserID
	}

	pos := domain.Position{Row: input.Row, Column: input.Column}
	event, err := s.ports.Presence.UpdateCursor(ctx, input.SheetID, userID, pos, input.Selection)
	if err != nil {
		return nil, CursorUpdateOutput{}, err
	}
	return nil, CursorUpdateOutput{Updated: event != nil}, nil
}

// handlePresenceStats handles the presence_stats tool invocation.
func (s *Server) handlePresenceStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, PresenceStatsOutput, error) {
	stats := s.ports.Presence.Stats(ctx)
	return nil, PresenceStatsOutput{Stats: stats}, nil
}
