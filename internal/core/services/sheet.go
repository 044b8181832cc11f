package services

import (
	"context"
	"fmt"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driving"
)

// Ensure SheetService implements the interface.
var _ driving.SheetService = (*SheetService)(nil)

// SheetService wraps the sheet store and broadcasts an event for every
// accepted mutation. Command-level failures are returned to the caller
// only, never broadcast.
type SheetService struct {
	store driven.SheetStore
	relay driven.Broadcaster
}

// NewSheetService creates a new sheet service.
func NewSheetService(store driven.SheetStore, relay driven.Broadcaster) *SheetService {
	return &SheetService{store: store, relay: relay}
}

// Create builds a new sheet.
func (s *SheetService) Create(ctx context.Context, name string, initialRows []map[string]any, ownerID string) (*domain.Sheet, error) {
	sheet, err := s.store.Create(ctx, name, initialRows, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	return sheet, nil
}

// Get retrieves a sheet by id.
func (s *SheetService) Get(ctx context.Context, id string) (*domain.Sheet, error) {
	return s.store.Get(ctx, id)
}

// List returns all sheets.
func (s *SheetService) List(ctx context.Context) ([]domain.Sheet, error) {
	return s.store.List(ctx)
}

// UpdateCell overwrites one cell and broadcasts cell-updated.
// Concurrent updates to the same cell are last-write-wins: whichever call
// the store serialises last overwrites, with no merge.
func (s *SheetService) UpdateCell(ctx context.Context, sheetID string, rowIndex int, columnID string, value any, userID string) (*domain.Sheet, error) {
	sheet, err := s.store.UpdateCell(ctx, sheetID, rowIndex, columnID, value, userID)
	if err != nil {
		return nil, fmt.Errorf("update cell: %w", err)
	}
	s.relay.Publish(ctx, domain.NewEvent(domain.EventCellUpdated, sheetID, domain.CellUpdatedPayload{
		RowIndex: rowIndex,
		ColumnID: columnID,
		Value:    value,
		UserID:   userID,
		Version:  sheet.Metadata.Version,
	}))
	return sheet, nil
}

// AddRow appends a row and broadcasts row-added.
func (s *SheetService) AddRow(ctx context.Context, sheetID string, data map[string]any, userID string) (*domain.Sheet, error) {
	sheet, err := s.store.AddRow(ctx, sheetID, data, userID)
	if err != nil {
		return nil, fmt.Errorf("add row: %w", err)
	}
	s.relay.Publish(ctx, domain.NewEvent(domain.EventRowAdded, sheetID, domain.RowAddedPayload{
		RowIndex: sheet.Metadata.TotalRows - 1,
		Data:     data,
		UserID:   userID,
		Version:  sheet.Metadata.Version,
	}))
	return sheet, nil
}

// AddColumn appends a column and broadcasts column-added.
func (s *SheetService) AddColumn(ctx context.Context, sheetID string, spec domain.Column, userID string) (*domain.Sheet, error) {
	sheet, err := s.store.AddColumn(ctx, sheetID, spec, userID)
	if err != nil {
		return nil, fmt.Errorf("add column: %w", err)
	}
	if col := sheet.Column(domain.NormalizeColumnID(spec.Name)); col != nil {
		s.relay.Publish(ctx, domain.NewEvent(domain.EventColumnAdded, sheetID, domain.ColumnAddedPayload{
			Column:  *col,
			UserID:  userID,
			Version: sheet.Metadata.Version,
		}))
	}
	return sheet, nil
}

// Snapshot returns the client-facing read model.
func (s *SheetService) Snapshot(ctx context.Context, sheetID string) (*domain.Snapshot, error) {
	return s.store.Snapshot(ctx, sheetID)
}

// Stats summarises enrichment coverage for a sheet.
func (s *SheetService) Stats(ctx context.Context, sheetID, taxIDField string) (*domain.EnrichmentStats, error) {
	return s.store.EnrichmentStats(ctx, sheetID, taxIDField)
}

// History returns recent operations, most recent first.
func (s *SheetService) History(ctx context.Context, sheetID string, limit int) ([]domain.Operation, error) {
	return s.store.OperationHistory(ctx, sheetID, limit)
}
