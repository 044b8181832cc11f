package driven

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// SheetStore is the single source of truth for sheet content. Every
// mutation is atomic with respect to the store and bumps the sheet's
// version by exactly 1. Operations on unknown sheet ids fail with
// domain.ErrNotFound; there is no further validation layer.
type SheetStore interface {
	// Create builds a new sheet. With no initial rows the fixed default
	// column set is installed; otherwise columns are inferred from the
	// first row's fields.
	Create(ctx context.Context, name string, initialRows []map[string]any, ownerID string) (*domain.Sheet, error)

	// Get retrieves a sheet by id.
	Get(ctx context.Context, id string) (*domain.Sheet, error)

	// List returns all sheets.
	List(ctx context.Context) ([]domain.Sheet, error)

	// UpdateCell overwrites one cell, growing the row array with empty
	// rows when rowIndex is beyond the current length. Last write wins.
	UpdateCell(ctx context.Context, id string, rowIndex int, columnID string, value any, userID string) (*domain.Sheet, error)

	// AddRow appends one row built from the given field map.
	AddRow(ctx context.Context, id string, data map[string]any, userID string) (*domain.Sheet, error)

	// AddColumn appends a column. The id is derived from the name once
	// and never recomputed. Re-adding the same name is an idempotent
	// no-op; a different name normalising to an existing id fails with
	// domain.ErrColumnExists.
	AddColumn(ctx context.Context, id string, spec domain.Column, userID string) (*domain.Sheet, error)

	// EnsureColumns creates any of the given columns that do not exist
	// yet, skipping existing ids silently. Returns the created ids.
	EnsureColumns(ctx context.Context, id string, cols []domain.Column, userID string) ([]string, error)

	// ApplyEnrichmentResults writes one batch's enriched fields back into
	// the sheet: creates columns on first sight, clears loading state,
	// stamps the _enriched markers. One version bump for the whole batch.
	ApplyEnrichmentResults(ctx context.Context, id string, results []domain.RowResult, userID string) (*domain.Sheet, error)

	// MarkCellsLoading sets the loading sentinel on the Cartesian product
	// of the given rows and columns. One version bump.
	MarkCellsLoading(ctx context.Context, id string, rowIndices []int, columnIDs []string) error

	// UnenrichedRows selects rows whose tax-id field is non-blank and
	// whose _enriched marker is not set. Indices refer to the live sheet.
	UnenrichedRows(ctx context.Context, id, taxIDField string) ([]domain.RowRef, error)

	// EnrichmentStats summarises enrichment coverage.
	EnrichmentStats(ctx context.Context, id, taxIDField string) (*domain.EnrichmentStats, error)

	// Snapshot returns the client-facing read model.
	Snapshot(ctx context.Context, id string) (*domain.Snapshot, error)

	// OperationHistory returns recent operations, most recent first,
	// bounded by the retained ring buffer.
	OperationHistory(ctx context.Context, id string, limit int) ([]domain.Operation, error)
}
