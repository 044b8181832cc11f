package domain

import "time"

// EventType identifies a broadcast event.
type EventType string

// The broadcast event catalogue. Every event is fanned out to all
// subscribers of its sheet; there are no point-to-point events besides
// the initial sheet-data sent to a newly joined subscriber.
const (
	// EventSheetData carries a full snapshot: the authoritative sync sent
	// to new subscribers and after each enrichment batch lands.
	EventSheetData EventType = "sheet-data"

	EventCellUpdated EventType = "cell-updated"
	EventRowAdded    EventType = "row-added"
	EventColumnAdded EventType = "column-added"

	EventUserJoined    EventType = "user-joined"
	EventUserLeft      EventType = "user-left"
	EventCursorUpdated EventType = "cursor-updated"

	EventEnrichmentStarted   EventType = "enrichment-started"
	EventEnrichmentProgress  EventType = "enrichment-progress"
	EventEnrichmentPartial   EventType = "enrichment-partial-result"
	EventEnrichmentError     EventType = "enrichment-error"
	EventEnrichmentCancelled EventType = "enrichment-cancelled"
)

// Event is one broadcast message for a sheet.
type Event struct {
	Type      EventType `json:"type"`
	SheetID   string    `json:"sheetId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, sheetID string, payload any) Event {
	return Event{Type: t, SheetID: sheetID, Timestamp: time.Now(), Payload: payload}
}

// CellUpdatedPayload accompanies EventCellUpdated.
type CellUpdatedPayload struct {
	RowIndex int    `json:"rowIndex"`
	ColumnID string `json:"columnId"`
	Value    any    `json:"value"`
	UserID   string `json:"userId"`
	Version  int64  `json:"version"`
}

// RowAddedPayload accompanies EventRowAdded.
type RowAddedPayload struct {
	RowIndex int            `json:"rowIndex"`
	Data     map[string]any `json:"data"`
	UserID   string         `json:"userId"`
	Version  int64          `json:"version"`
}

// ColumnAddedPayload accompanies EventColumnAdded.
type ColumnAddedPayload struct {
	Column  Column `json:"column"`
	UserID  string `json:"userId"`
	Version int64  `json:"version"`
}

// PresencePayload accompanies EventUserJoined and EventUserLeft.
type PresencePayload struct {
	UserID      string       `json:"userId"`
	Cursor      *UserCursor  `json:"cursor,omitempty"`
	ActiveUsers []UserCursor `json:"activeUsers"`
}

// CursorPayload accompanies EventCursorUpdated.
type CursorPayload struct {
	UserID    string     `json:"userId"`
	Position  Position   `json:"position"`
	Selection *Selection `json:"selection,omitempty"`
}

// EnrichmentStartedPayload accompanies EventEnrichmentStarted.
type EnrichmentStartedPayload struct {
	SessionID string         `json:"sessionId"`
	Kind      EnrichmentKind `json:"enrichmentType"`
	UserID    string         `json:"userId"`
	Total     int            `json:"total"`
}

// EnrichmentProgressPayload accompanies EventEnrichmentProgress.
type EnrichmentProgressPayload struct {
	SessionID string   `json:"sessionId"`
	Progress  Progress `json:"progress"`
}

// EnrichmentPartialPayload accompanies EventEnrichmentPartial with one
// settled batch's results.
type EnrichmentPartialPayload struct {
	SessionID string      `json:"sessionId"`
	Batch     int         `json:"batch"`
	Results   []RowResult `json:"results"`
}

// EnrichmentErrorPayload accompanies EventEnrichmentError.
type EnrichmentErrorPayload struct {
	SessionID string `json:"sessionId"`
	Error     string `json:"error"`
}

// EnrichmentCancelledPayload accompanies EventEnrichmentCancelled.
type EnrichmentCancelledPayload struct {
	SessionID string `json:"sessionId"`
}
