package driving

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// PresenceTracker tracks which users are connected to each sheet and
// where their cursors are. Entirely rebuilt from live connections; nothing
// survives the process.
type PresenceTracker interface {
	// Join registers a user on a sheet, assigns a deterministic cursor
	// colour, and returns the user-joined event (also broadcast).
	Join(ctx context.Context, sheetID, userID, userName, connectionID string) (*domain.Event, error)

	// Leave removes a user from a sheet. Returns nil (no event, no
	// error) when the user was not tracked there.
	Leave(ctx context.Context, sheetID, userID string) (*domain.Event, error)

	// UpdateCursor moves a user's cursor. Best-effort: returns nil when
	// the user is not joined.
	UpdateCursor(ctx context.Context, sheetID, userID string, pos domain.Position, sel *domain.Selection) (*domain.Event, error)

	// ActiveUsers lists the cursors currently on a sheet.
	ActiveUsers(ctx context.Context, sheetID string) []domain.UserCursor

	// UserSheets lists the sheets a user is currently present on.
	UserSheets(ctx context.Context, userID string) []string

	// Stats summarises presence across all sheets.
	Stats(ctx context.Context) domain.PresenceStats
}
