package driven

import (
	"context"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
)

// SessionStore tracks enrichment sessions. Implementations bound the
// number of retained terminal sessions; running sessions are never evicted.
type SessionStore interface {
	// Save stores or replaces a session.
	Save(ctx context.Context, session *domain.EnrichmentSession) error

	// Get retrieves a session by id.
	Get(ctx context.Context, id string) (*domain.EnrichmentSession, error)

	// ActiveForSheet returns the sheet's non-terminal session, or
	// domain.ErrNotFound when none is running.
	ActiveForSheet(ctx context.Context, sheetID string) (*domain.EnrichmentSession, error)

	// SetStatus transitions a session. Terminal statuses stamp EndTime;
	// errMsg is recorded for domain.SessionError. Terminal states are
	// final: a transition out of one is a silent no-op.
	SetStatus(ctx context.Context, id string, status domain.SessionStatus, errMsg string) error

	// RecordProgress updates a session's progress counters.
	RecordProgress(ctx context.Context, id string, progress domain.Progress) error

	// AppendResults pushes one settled batch's results onto the session.
	AppendResults(ctx context.Context, id string, results []domain.RowResult) error
}
