package driven

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// Broadcaster is the thin pub/sub indirection between the core and the
// transport layer: core components publish events for a sheet, and the
// transport delivers them to every subscriber of that sheet.
//
// Publish is best-effort and never blocks the caller: a subscriber that
// cannot keep up loses events rather than stalling mutation paths.
type Broadcaster interface {
	// Publish fans an event out to all subscribers of event.SheetID.
	Publish(ctx context.Context, event domain.Event)

	// Subscribe registers interest in one sheet's events. The returned
	// cancel function unregisters the subscription and closes the channel.
	Subscribe(sheetID string) (<-chan domain.Event, func())
}
