package domain

import (
	"strings"
	"time"
)

// ColumnType classifies the values a column holds.
type ColumnType string

// Available column types.
const (
	ColumnText     ColumnType = "text"
	ColumnNumber   ColumnType = "number"
	ColumnDate     ColumnType = "date"
	ColumnEmail    ColumnType = "email"
	ColumnPhone    ColumnType = "phone"
	ColumnTaxID    ColumnType = "tax_id"
	ColumnSelect   ColumnType = "select"
	ColumnEnriched ColumnType = "enriched"
)

// IsValid returns true if the column type is recognised.
func (t ColumnType) IsValid() bool {
	switch t {
	case ColumnText, ColumnNumber, ColumnDate, ColumnEmail,
		ColumnPhone, ColumnTaxID, ColumnSelect, ColumnEnriched:
		return true
	default:
		return false
	}
}

// Marker cells flagging a row's enrichment state. They live in the row map
// under ids that never collide with normalised column names.
const (
	// MarkerEnriched is set to true once a row has completed an
	// enrichment pass; such rows are excluded from future passes.
	MarkerEnriched = "_enriched"

	// MarkerEnrichedAt records when the row's enrichment completed.
	MarkerEnrichedAt = "_enriched_at"
)

// LoadingPlaceholder is the sentinel value written into cells while a
// registry lookup for their row is outstanding.
const LoadingPlaceholder = "Loading..."

// Column describes one column of a sheet.
// The id is derived once from the display name and never recomputed.
type Column struct {
	// ID is the stable storage key (lower-cased name, spaces to underscores).
	ID string

	// Name is the human-readable display name.
	Name string

	// Type classifies the column's values.
	Type ColumnType

	// Editable marks the column as user-writable.
	Editable bool

	// Options holds the choices for select columns.
	Options []string

	// Enrichment tags enrichment-produced columns with the kind
	// that created them. Empty for user-created columns.
	Enrichment EnrichmentKind
}

// CellMetadata records who last touched a cell and when.
type CellMetadata struct {
	LastModified time.Time
	ModifiedBy   string
}

// Cell is a single sheet cell.
type Cell struct {
	// Value is the cell content. Untyped: the store performs no
	// column-type validation on write.
	Value any

	// IsLoading marks a transient state set only by the enrichment
	// pipeline while a registry lookup is outstanding.
	IsLoading bool

	// Formula is an optional formula source (stored, never evaluated).
	Formula string

	// Metadata records the last modification, when known.
	Metadata *CellMetadata
}

// Row maps column ids to cells. A row need not have an entry
// for every column.
type Row map[string]Cell

// Metadata is per-sheet bookkeeping.
type Metadata struct {
	TotalRows    int
	TotalColumns int
	LastModified time.Time

	// Version increases by exactly 1 on every accepted mutation.
	// Readers never observe two mutations with the same version.
	Version int64

	// EditableColumns lists the ids of user-writable columns, in
	// creation order.
	EditableColumns []string
}

// Permissions is the flat access list for a sheet.
type Permissions struct {
	OwnerID string
	Editors []string
	Viewers []string
	Public  bool
}

// Settings holds per-sheet feature toggles.
type Settings struct {
	AutoSave      bool
	Collaboration bool
	Enrichment    bool
}

// Sheet is the canonical in-memory representation of a spreadsheet.
type Sheet struct {
	ID          string
	Name        string
	Columns     []Column
	Rows        []Row
	Metadata    Metadata
	Permissions Permissions
	Settings    Settings
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Column returns the column with the given id, or nil.
func (s *Sheet) Column(id string) *Column {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return &s.Columns[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the sheet. Stores hand out clones so
// callers can never alias internal state.
func (s *Sheet) Clone() *Sheet {
	c := *s
	c.Columns = make([]Column, len(s.Columns))
	copy(c.Columns, s.Columns)
	for i := range c.Columns {
		if opts := s.Columns[i].Options; opts != nil {
			c.Columns[i].Options = append([]string(nil), opts...)
		}
	}
	c.Rows = make([]Row, len(s.Rows))
	for i, row := range s.Rows {
		nr := make(Row, len(row))
		for id, cell := range row {
			if cell.Metadata != nil {
				md := *cell.Metadata
				cell.Metadata = &md
			}
			nr[id] = cell
		}
		c.Rows[i] = nr
	}
	c.Metadata.EditableColumns = append([]string(nil), s.Metadata.EditableColumns...)
	c.Permissions.Editors = append([]string(nil), s.Permissions.Editors...)
	c.Permissions.Viewers = append([]string(nil), s.Permissions.Viewers...)
	return &c
}

// NormalizeColumnID derives a column's stable storage id from its display
// name: lower-cased, spaces replaced with underscores. The derivation is
// pure and referentially stable; ids are never recomputed after creation.
func NormalizeColumnID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// editableFields is the fixed allow-list of field names whose columns are
// created user-writable.
var editableFields = map[string]bool{
	"name":     true,
	"nome":     true,
	"company":  true,
	"empresa":  true,
	"cnpj":     true,
	"email":    true,
	"phone":    true,
	"telefone": true,
	"status":   true,
	"notes":    true,
}

// IsEditableField reports whether a column id is on the editable allow-list.
func IsEditableField(id string) bool {
	return editableFields[id]
}

// DefaultColumns is the fixed column set installed on sheets created
// without initial rows.
func DefaultColumns() []Column {
	return []Column{
		{ID: "name", Name: "Name", Type: ColumnText, Editable: true},
		{ID: "company", Name: "Company", Type: ColumnText, Editable: true},
		{ID: "cnpj", Name: "CNPJ", Type: ColumnTaxID, Editable: true},
		{ID: "email", Name: "Email", Type: ColumnEmail, Editable: true},
		{ID: "phone", Name: "Phone", Type: ColumnPhone, Editable: true},
		{ID: "status", Name: "Status", Type: ColumnSelect, Editable: true,
			Options: []string{"new", "contacted", "qualified", "discarded"}},
	}
}

// InferColumnType guesses a column type from a sample value.
// Used when a sheet is created from existing rows.
func InferColumnType(value any) ColumnType {
	switch v := value.(type) {
	case int, int32, int64, float32, float64:
		return ColumnNumber
	case string:
		s := strings.TrimSpace(v)
		switch {
		case s == "":
			return ColumnText
		case strings.Contains(s, "@"):
			return ColumnEmail
		case looksLikeCNPJ(s):
			return ColumnTaxID
		case looksLikePhone(s):
			return ColumnPhone
		case looksLikeDate(s):
			return ColumnDate
		default:
			return ColumnText
		}
	default:
		return ColumnText
	}
}

// looksLikePhone matches common BR phone renderings, e.g.
// "(11) 91234-5678" or "+55 11 1234-5678".
func looksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '(' || r == ')' || r == '-' || r == '+':
		default:
			return false
		}
	}
	return digits >= 8 && digits <= 13 && digits < len(s)
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02T15:04:05Z07:00",
}

func looksLikeDate(s string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// SnapshotCell is the flattened cell shape handed to clients.
type SnapshotCell struct {
	Value     any  `json:"value"`
	IsLoading bool `json:"isLoading,omitempty"`
}

// Snapshot is the read-model of a sheet delivered to subscribers and to
// the enrichment pipeline.
type Snapshot struct {
	SheetID  string                    `json:"sheetId"`
	Name     string                    `json:"name"`
	Columns  []Column                  `json:"columns"`
	Rows     []map[string]SnapshotCell `json:"rows"`
	Metadata Metadata                  `json:"metadata"`
}

// RowRef is an unenriched row candidate: the row's original index in the
// live sheet plus its flattened values. Indices always refer back to the
// sheet, never to a filtered subset's position.
type RowRef struct {
	Index int
	Data  map[string]any
}

// Values flattens a row to its raw cell values.
func (r Row) Values() map[string]any {
	out := make(map[string]any, len(r))
	for id, cell := range r {
		out[id] = cell.Value
	}
	return out
}
