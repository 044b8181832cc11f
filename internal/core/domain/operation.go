package domain

import "time"

// OperationType classifies an audit log entry.
type OperationType string

// Operation types.
const (
	OpCellUpdate         OperationType = "cell_update"
	OpRowInsert          OperationType = "row_insert"
	OpColumnInsert       OperationType = "column_insert"
	OpEnrichmentUpdate   OperationType = "enrichment_update"
	OpEnrichmentProgress OperationType = "enrichment_progress"
	OpSheetUpdated       OperationType = "sheet_updated"
)

// OperationLogCap bounds the per-sheet operation ring buffer.
// History is for audit, not replay: old entries are simply dropped.
const OperationLogCap = 1000

// Operation is one append-only audit log entry for a sheet mutation.
type Operation struct {
	Type      OperationType  `json:"type"`
	SheetID   string         `json:"sheetId"`
	UserID    string         `json:"userId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
	Version   int64          `json:"version"`
}
