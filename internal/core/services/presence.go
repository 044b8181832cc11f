package services

import (
	"context"
	"sort"
	"sync"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driving"
	"github.com/planilha-labs/planilha-cli/internal/logger"
)

// Ensure PresenceTracker implements the interface.
var _ driving.PresenceTracker = (*PresenceTracker)(nil)

// PresenceTracker tracks live users and cursors per sheet. State is
// rebuilt entirely from live connections; nothing survives the process.
// A user may be present on several sheets at once.
type PresenceTracker struct {
	relay driven.Broadcaster

	mu          sync.RWMutex
	cursors     map[string]map[string]*domain.UserCursor // sheetID -> userID -> cursor
	connections map[string]map[string]string             // sheetID -> userID -> connectionID
	userSheets  map[string]map[string]struct{}           // userID -> set of sheetIDs
}

// NewPresenceTracker creates a new presence tracker.
func NewPresenceTracker(relay driven.Broadcaster) *PresenceTracker {
	return &PresenceTracker{
		relay:       relay,
		cursors:     make(map[string]map[string]*domain.UserCursor),
		connections: make(map[string]map[string]string),
		userSheets:  make(map[string]map[string]struct{}),
	}
}

// Join registers a user on a sheet with a cursor at the default position
// and a colour derived deterministically from the user id. The returned
// user-joined event is also broadcast to the sheet's subscribers.
func (p *PresenceTracker) Join(ctx context.Context, sheetID, userID, userName, connectionID string) (*domain.Event, error) {
	p.mu.Lock()
	if p.cursors[sheetID] == nil {
		p.cursors[sheetID] = make(map[string]*domain.UserCursor)
		p.connections[sheetID] = make(map[string]string)
	}
	cursor := &domain.UserCursor{
		UserID:   userID,
		UserName: userName,
		Color:    domain.ColorForUser(userID),
	}
	p.cursors[sheetID][userID] = cursor
	p.connections[sheetID][userID] = connectionID
	if p.userSheets[userID] == nil {
		p.userSheets[userID] = make(map[string]struct{})
	}
	p.userSheets[userID][sheetID] = struct{}{}
	active := p.activeUsersLocked(sheetID)
	p.mu.Unlock()

	logger.Debug("presence: %s joined sheet %s", userID, sheetID)
	event := domain.NewEvent(domain.EventUserJoined, sheetID, domain.PresencePayload{
		UserID:      userID,
		Cursor:      cursor,
		ActiveUsers: active,
	})
	p.relay.Publish(ctx, event)
	return &event, nil
}

// Leave removes a user from a sheet. A leave for a user who never joined
// is a no-op returning nil, not an error.
func (p *PresenceTracker) Leave(ctx context.Context, sheetID, userID string) (*domain.Event, error) {
	p.mu.Lock()
	if _, tracked := p.cursors[sheetID][userID]; !tracked {
		p.mu.Unlock()
		return nil, nil
	}
	delete(p.cursors[sheetID], userID)
	delete(p.connections[sheetID], userID)
	if len(p.cursors[sheetID]) == 0 {
		delete(p.cursors, sheetID)
		delete(p.connections, sheetID)
	}
	delete(p.userSheets[userID], sheetID)
	if len(p.userSheets[userID]) == 0 {
		delete(p.userSheets, userID)
	}
	active := p.activeUsersLocked(sheetID)
	p.mu.Unlock()

	logger.Debug("presence: %s left sheet %s", userID, sheetID)
	event := domain.NewEvent(domain.EventUserLeft, sheetID, domain.PresencePayload{
		UserID:      userID,
		ActiveUsers: active,
	})
	p.relay.Publish(ctx, event)
	return &event, nil
}

// UpdateCursor mutates a joined user's cursor in place. Best-effort:
// returns nil when the user is not joined, and never fails loudly.
func (p *PresenceTracker) UpdateCursor(ctx context.Context, sheetID, userID string, pos domain.Position, sel *domain.Selection) (*domain.Event, error) {
	p.mu.Lock()
	cursor, tracked := p.cursors[sheetID][userID]
	if !tracked {
		p.mu.Unlock()
		return nil, nil
	}
	cursor.Position = pos
	cursor.Selection = sel
	p.mu.Unlock()

	event := domain.NewEvent(domain.EventCursorUpdated, sheetID, domain.CursorPayload{
		UserID:    userID,
		Position:  pos,
		Selection: sel,
	})
	p.relay.Publish(ctx, event)
	return &event, nil
}

// ActiveUsers lists the cursors currently on a sheet.
func (p *PresenceTracker) ActiveUsers(_ context.Context, sheetID string) []domain.UserCursor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeUsersLocked(sheetID)
}

// UserSheets lists the sheets a user is currently present on.
func (p *PresenceTracker) UserSheets(_ context.Context, userID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sheets := make([]string, 0, len(p.userSheets[userID]))
	for sheetID := range p.userSheets[userID] {
		sheets = append(sheets, sheetID)
	}
	sort.Strings(sheets)
	return sheets
}

// Stats summarises live presence across all sheets.
func (p *PresenceTracker) Stats(_ context.Context) domain.PresenceStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := domain.PresenceStats{
		ActiveUsers:  len(p.userSheets),
		ActiveSheets: len(p.cursors),
	}
	total := 0
	for _, users := range p.cursors {
		total += len(users)
		if len(users) > 1 {
			stats.SheetsWithMultipleUsers++
		}
	}
	if stats.ActiveSheets > 0 {
		stats.AverageUsersPerSheet = float64(total) / float64(stats.ActiveSheets)
	}
	return stats
}

// activeUsersLocked snapshots a sheet's cursors in stable user order.
// Caller holds p.mu.
func (p *PresenceTracker) activeUsersLocked(sheetID string) []domain.UserCursor {
	users := make([]domain.UserCursor, 0, len(p.cursors[sheetID]))
	for _, cursor := range p.cursors[sheetID] {
		users = append(users, *cursor)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
	return users
}
