package driving

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// EnrichmentOrchestrator runs enrichment passes over a sheet's
// currently-unenriched rows.
type EnrichmentOrchestrator interface {
	// Enrich starts one pass and returns the session id. Selection,
	// column pre-creation and loading marks happen synchronously so
	// setup failures (domain.ErrNothingToEnrich, domain.ErrNotFound,
	// domain.ErrEnrichmentRunning) are returned directly; the batch
	// pipeline then runs in the background, reporting through the
	// broadcaster and the session store.
	Enrich(ctx context.Context, sheetID string, kind domain.EnrichmentKind, opts domain.EnrichmentOptions, userID string) (string, error)

	// Cancel requests cooperative cancellation. Forward-only: batches
	// already in flight finish, applied results stay. Cancelling a
	// finished session is a no-op.
	Cancel(ctx context.Context, sessionID string) error

	// Wait blocks until the session reaches a terminal state or the
	// context is done.
	Wait(ctx context.Context, sessionID string) error

	// Session returns a session by id.
	Session(ctx context.Context, sessionID string) (*domain.EnrichmentSession, error)

	// ActiveSession returns a sheet's running session, or
	// domain.ErrNotFound when idle.
	ActiveSession(ctx context.Context, sheetID string) (*domain.EnrichmentSession, error)
}
