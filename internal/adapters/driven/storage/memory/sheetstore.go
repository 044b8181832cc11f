package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
)

// Ensure SheetStore implements the interface.
var _ driven.SheetStore = (*SheetStore)(nil)

// SheetStore is the in-memory implementation of driven.SheetStore.
// All mutations run under one lock, so each store entry point is atomic
// and the per-sheet version gives a total order over mutations.
type SheetStore struct {
	mu     sync.RWMutex
	sheets map[string]*sheetRecord
}

// sheetRecord pairs a sheet with its bounded operation log.
type sheetRecord struct {
	sheet *domain.Sheet
	ops   []domain.Operation
}

// NewSheetStore creates a new in-memory sheet store.
func NewSheetStore() *SheetStore {
	return &SheetStore{sheets: make(map[string]*sheetRecord)}
}

// Create builds a new sheet. With no initial rows the default column set
// is installed; otherwise columns are inferred from the first row, with
// field names sorted so the layout is deterministic.
func (s *SheetStore) Create(_ context.Context, name string, initialRows []map[string]any, ownerID string) (*domain.Sheet, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: sheet name is required", domain.ErrInvalidInput)
	}

	now := time.Now()
	sheet := &domain.Sheet{
		ID:   uuid.NewString(),
		Name: name,
		Metadata: domain.Metadata{
			LastModified: now,
			Version:      1,
		},
		Permissions: domain.Permissions{OwnerID: ownerID},
		Settings:    domain.Settings{AutoSave: true, Collaboration: true, Enrichment: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if len(initialRows) == 0 {
		sheet.Columns = domain.DefaultColumns()
	} else {
		sheet.Columns = inferColumns(initialRows[0])
		for _, data := range initialRows {
			sheet.Rows = append(sheet.Rows, buildRow(data, ownerID, now))
		}
	}

	for _, col := range sheet.Columns {
		if col.Editable {
			sheet.Metadata.EditableColumns = append(sheet.Metadata.EditableColumns, col.ID)
		}
	}
	sheet.Metadata.TotalColumns = len(sheet.Columns)
	sheet.Metadata.TotalRows = len(sheet.Rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[sheet.ID] = &sheetRecord{sheet: sheet}
	return sheet.Clone(), nil
}

// Get retrieves a sheet by id.
func (s *SheetStore) Get(_ context.Context, id string) (*domain.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.sheet.Clone(), nil
}

// List returns all sheets, ordered by creation time.
func (s *SheetStore) List(_ context.Context) ([]domain.Sheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Sheet, 0, len(s.sheets))
	for _, rec := range s.sheets {
		result = append(result, *rec.sheet.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// UpdateCell overwrites one cell's value and modification metadata.
// Rows are grown with empty rows when rowIndex is past the end; the row
// array never shrinks. Last write wins.
func (s *SheetStore) UpdateCell(_ context.Context, id string, rowIndex int, columnID string, value any, userID string) (*domain.Sheet, error) {
	if rowIndex < 0 {
		return nil, fmt.Errorf("%w: negative row index %d", domain.ErrInvalidInput, rowIndex)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sheet := rec.sheet

	growRows(sheet, rowIndex+1)

	old := sheet.Rows[rowIndex][columnID].Value
	now := time.Now()
	sheet.Rows[rowIndex][columnID] = domain.Cell{
		Value:    value,
		Metadata: &domain.CellMetadata{LastModified: now, ModifiedBy: userID},
	}

	bump(sheet, now)
	appendOp(rec, domain.Operation{
		Type:      domain.OpCellUpdate,
		SheetID:   id,
		UserID:    userID,
		Timestamp: now,
		Version:   sheet.Metadata.Version,
		Data: map[string]any{
			"rowIndex": rowIndex,
			"columnId": columnID,
			"oldValue": old,
			"newValue": value,
		},
	})
	return sheet.Clone(), nil
}

// AddRow appends one row built from the given field map.
func (s *SheetStore) AddRow(_ context.Context, id string, data map[string]any, userID string) (*domain.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sheet := rec.sheet

	now := time.Now()
	sheet.Rows = append(sheet.Rows, buildRow(data, userID, now))
	sheet.Metadata.TotalRows = len(sheet.Rows)

	bump(sheet, now)
	appendOp(rec, domain.Operation{
		Type:      domain.OpRowInsert,
		SheetID:   id,
		UserID:    userID,
		Timestamp: now,
		Version:   sheet.Metadata.Version,
		Data: map[string]any{
			"rowIndex": len(sheet.Rows) - 1,
			"data":     data,
		},
	})
	return sheet.Clone(), nil
}

// AddColumn appends a column with an id derived from the display name.
// Re-adding the identical name is an idempotent no-op; a different name
// normalising to an existing id is rejected rather than silently aliasing
// the first column's storage.
func (s *SheetStore) AddColumn(_ context.Context, id string, spec domain.Column, userID string) (*domain.Sheet, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("%w: column name is required", domain.ErrInvalidInput)
	}
	if spec.Type == "" {
		spec.Type = domain.ColumnText
	}
	if !spec.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown column type %q", domain.ErrInvalidInput, spec.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sheet := rec.sheet

	spec.ID = domain.NormalizeColumnID(spec.Name)
	if existing := sheet.Column(spec.ID); existing != nil {
		if existing.Name == spec.Name {
			return sheet.Clone(), nil
		}
		return nil, fmt.Errorf("%w: %q collides with column %q", domain.ErrColumnExists, spec.Name, existing.Name)
	}

	now := time.Now()
	sheet.Columns = append(sheet.Columns, spec)
	sheet.Metadata.TotalColumns = len(sheet.Columns)
	if spec.Editable {
		sheet.Metadata.EditableColumns = append(sheet.Metadata.EditableColumns, spec.ID)
	}

	bump(sheet, now)
	appendOp(rec, domain.Operation{
		Type:      domain.OpColumnInsert,
		SheetID:   id,
		UserID:    userID,
		Timestamp: now,
		Version:   sheet.Metadata.Version,
		Data: map[string]any{
			"columnId": spec.ID,
			"name":     spec.Name,
			"type":     string(spec.Type),
		},
	})
	return sheet.Clone(), nil
}

// EnsureColumns creates the given columns where missing, skipping existing
// ids silently. Each created column is one accepted mutation.
func (s *SheetStore) EnsureColumns(_ context.Context, id string, cols []domain.Column, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sheet := rec.sheet

	var created []string
	for _, col := range cols {
		if col.ID == "" {
			col.ID = domain.NormalizeColumnID(col.Name)
		}
		if sheet.Column(col.ID) != nil {
			continue
		}
		now := time.Now()
		sheet.Columns = append(sheet.Columns, col)
		sheet.Metadata.TotalColumns = len(sheet.Columns)
		if col.Editable {
			sheet.Metadata.EditableColumns = append(sheet.Metadata.EditableColumns, col.ID)
		}
		bump(sheet, now)
		appendOp(rec, domain.Operation{
			Type:      domain.OpColumnInsert,
			SheetID:   id,
			UserID:    userID,
			Timestamp: now,
			Version:   sheet.Metadata.Version,
			Data: map[string]any{
				"columnId": col.ID,
				"name":     col.Name,
				"type":     string(col.Type),
			},
		})
		created = append(created, col.ID)
	}
	return created, nil
}

// ApplyEnrichmentResults writes one batch's results back into the sheet.
// Enriched columns are created on first sight; every applied row has its
// remaining loading cells swept back to empty and its _enriched markers
// stamped. The whole batch is a single version bump.
func (s *SheetStore) ApplyEnrichmentResults(_ context.Context, id string, results []domain.RowResult, userID string) (*domain.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sheet := rec.sheet

	now := time.Now()
	rowIndices := make([]int, 0, len(results))

	for _, res := range results {
		if res.RowIndex < 0 || res.RowIndex >= len(sheet.Rows) {
			continue
		}
		row := sheet.Rows[res.RowIndex]

		for field, value := range res.Fields {
			if value == nil {
				continue
			}
			if sheet.Column(field) == nil {
				sheet.Columns = append(sheet.Columns, domain.Column{
					ID:   field,
					Name: field,
					Type: domain.ColumnEnriched,
				})
				sheet.Metadata.TotalColumns = len(sheet.Columns)
			}
			row[field] = domain.Cell{
				Value:    value,
				Metadata: &domain.CellMetadata{LastModified: now, ModifiedBy: userID},
			}
		}

		// Sweep any cell still marked loading so no row leaves an
		// enrichment pass stuck in the loading state.
		for colID, cell := range row {
			if cell.IsLoading {
				row[colID] = domain.Cell{Metadata: cell.Metadata}
			}
		}

		row[domain.MarkerEnriched] = domain.Cell{Value: true}
		row[domain.MarkerEnrichedAt] = domain.Cell{Value: now}
		rowIndices = append(rowIndices, res.RowIndex)
	}

	bump(sheet, now)
	appendOp(rec, domain.Operation{
		Type:      domain.OpEnrichmentUpdate,
		SheetID:   id,
		UserID:    userID,
		Timestamp: now,
		Version:   sheet.Metadata.Version,
		Data: map[string]any{
			"rowIndices": rowIndices,
			"count":      len(rowIndices),
		},
	})
	return sheet.Clone(), nil
}

// MarkCellsLoading sets the loading sentinel on the Cartesian product of
// the given rows and columns. One version bump for the whole marking.
func (s *SheetStore) MarkCellsLoading(_ context.Context, id string, rowIndices []int, columnIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sheets[id]
	if !ok {
		return domain.ErrNotFound
	}
	sheet := rec.sheet

	now := time.Now()
	for _, idx := range rowIndices {
		if idx < 0 || idx >= len(sheet.Rows) {
			continue
		}
		for _, colID := range columnIDs {
			sheet.Rows[idx][colID] = domain.Cell{
				Value:     domain.LoadingPlaceholder,
				IsLoading: true,
			}
		}
	}

	bump(sheet, now)
	appendOp(rec, domain.Operation{
		Type:      domain.OpSheetUpdated,
		SheetID:   id,
		Timestamp: now,
		Version:   sheet.Metadata.Version,
		Data: map[string]any{
			"action":     "mark_loading",
			"rowIndices": rowIndices,
			"columnIds":  columnIDs,
		},
	})
	return nil
}

// UnenrichedRows selects rows whose tax-id field is non-blank and whose
// _enriched marker is not true. This predicate is what makes repeated
// passes at-most-once per row.
func (s *SheetStore) UnenrichedRows(_ context.Context, id, taxIDField string) ([]domain.RowRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	var refs []domain.RowRef
	for i, row := range rec.sheet.Rows {
		if enriched, _ := row[domain.MarkerEnriched].Value.(bool); enriched {
			continue
		}
		if !hasTaxID(row, taxIDField) {
			continue
		}
		refs = append(refs, domain.RowRef{Index: i, Data: row.Values()})
	}
	return refs, nil
}

// EnrichmentStats summarises enrichment coverage for a sheet.
func (s *SheetStore) EnrichmentStats(_ context.Context, id, taxIDField string) (*domain.EnrichmentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	stats := &domain.EnrichmentStats{Total: len(rec.sheet.Rows)}
	for _, row := range rec.sheet.Rows {
		withID := hasTaxID(row, taxIDField)
		enriched, _ := row[domain.MarkerEnriched].Value.(bool)
		if withID {
			stats.WithTaxID++
		}
		if enriched {
			stats.Enriched++
		}
		if withID && !enriched {
			stats.Unenriched++
		}
	}
	return stats, nil
}

// Snapshot returns the flattened read model handed to clients and to the
// enrichment pipeline.
func (s *SheetStore) Snapshot(_ context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sheet := rec.sheet

	snap := &domain.Snapshot{
		SheetID:  sheet.ID,
		Name:     sheet.Name,
		Columns:  make([]domain.Column, len(sheet.Columns)),
		Rows:     make([]map[string]domain.SnapshotCell, len(sheet.Rows)),
		Metadata: sheet.Metadata,
	}
	copy(snap.Columns, sheet.Columns)
	snap.Metadata.EditableColumns = append([]string(nil), sheet.Metadata.EditableColumns...)
	for i, row := range sheet.Rows {
		flat := make(map[string]domain.SnapshotCell, len(row))
		for colID, cell := range row {
			flat[colID] = domain.SnapshotCell{Value: cell.Value, IsLoading: cell.IsLoading}
		}
		snap.Rows[i] = flat
	}
	return snap, nil
}

// OperationHistory returns recent operations, most recent first.
func (s *SheetStore) OperationHistory(_ context.Context, id string, limit int) ([]domain.Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sheets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	n := len(rec.ops)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]domain.Operation, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, rec.ops[i])
	}
	return result, nil
}

// bump advances the version by exactly 1 and refreshes bookkeeping.
func bump(sheet *domain.Sheet, now time.Time) {
	sheet.Metadata.Version++
	sheet.Metadata.LastModified = now
	sheet.UpdatedAt = now
}

// appendOp pushes an operation, dropping the oldest past the ring cap.
func appendOp(rec *sheetRecord, op domain.Operation) {
	rec.ops = append(rec.ops, op)
	if len(rec.ops) > domain.OperationLogCap {
		rec.ops = rec.ops[len(rec.ops)-domain.OperationLogCap:]
	}
}

// growRows extends the row array with empty rows up to n entries.
// Sparse-append semantics: the array never shrinks.
func growRows(sheet *domain.Sheet, n int) {
	for len(sheet.Rows) < n {
		sheet.Rows = append(sheet.Rows, domain.Row{})
	}
	if len(sheet.Rows) > sheet.Metadata.TotalRows {
		sheet.Metadata.TotalRows = len(sheet.Rows)
	}
}

// hasTaxID reports whether a row carries a non-blank tax-id value.
func hasTaxID(row domain.Row, taxIDField string) bool {
	if taxIDField == "" {
		taxIDField = domain.DefaultTaxIDField
	}
	_, ok := domain.ExtractTaxID(row.Values(), taxIDField)
	return ok
}

// inferColumns derives the column set from the first row of imported
// data. Field names are sorted so repeated imports produce the same
// layout regardless of map iteration order.
func inferColumns(first map[string]any) []domain.Column {
	names := make([]string, 0, len(first))
	for name := range first {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]domain.Column, 0, len(names))
	for _, name := range names {
		id := domain.NormalizeColumnID(name)
		cols = append(cols, domain.Column{
			ID:       id,
			Name:     name,
			Type:     domain.InferColumnType(first[name]),
			Editable: domain.IsEditableField(id),
		})
	}
	return cols
}

// buildRow converts a field map into a row of cells stamped with
// modification metadata.
func buildRow(data map[string]any, userID string, now time.Time) domain.Row {
	row := make(domain.Row, len(data))
	for field, value := range data {
		row[domain.NormalizeColumnID(field)] = domain.Cell{
			Value:    value,
			Metadata: &domain.CellMetadata{LastModified: now, ModifiedBy: userID},
		}
	}
	return row
}
