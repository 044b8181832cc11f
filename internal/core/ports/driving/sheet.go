package driving

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// SheetService exposes sheet mutation and read models to transports.
// Every accepted mutation bumps the sheet version and emits the matching
// broadcast event.
type SheetService interface {
	// Create builds a new sheet, installing default columns when no
	// initial rows are given.
	Create(ctx context.Context, name string, initialRows []map[string]any, ownerID string) (*domain.Sheet, error)

	// Get retrieves a sheet by id.
	Get(ctx context.Context, id string) (*domain.Sheet, error)

	// List returns all sheets.
	List(ctx context.Context) ([]domain.Sheet, error)

	// UpdateCell overwrites one cell (last write wins) and broadcasts
	// cell-updated.
	UpdateCell(ctx context.Context, sheetID string, rowIndex int, columnID string, value any, userID string) (*domain.Sheet, error)

	// AddRow appends a row and broadcasts row-added.
	AddRow(ctx context.Context, sheetID string, data map[string]any, userID string) (*domain.Sheet, error)

	// AddColumn appends a column and broadcasts column-added.
	AddColumn(ctx context.Context, sheetID string, spec domain.Column, userID string) (*domain.Sheet, error)

	// Snapshot returns the client-facing read model.
	Snapshot(ctx context.Context, sheetID string) (*domain.Snapshot, error)

	// Stats summarises enrichment coverage for a sheet.
	Stats(ctx context.Context, sheetID, taxIDField string) (*domain.EnrichmentStats, error)

	// History returns recent operations, most recent first.
	History(ctx context.Context, sheetID string, limit int) ([]domain.Operation, error)
}
