package memory

import (
	"context"
	"sync"
	"time"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// DefaultSessionCap bounds retained sessions. When full, the oldest
// terminal session is evicted; running sessions are never evicted.
const DefaultSessionCap = 100

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	cap      int
	sessions map[string]*domain.EnrichmentSession
	order    []string // insertion order, for eviction
}

// NewSessionStore creates a session store retaining at most cap sessions.
// A cap of 0 uses DefaultSessionCap.
func NewSessionStore(cap int) *SessionStore {
	if cap <= 0 {
		cap = DefaultSessionCap
	}
	return &SessionStore{
		cap:      cap,
		sessions: make(map[string]*domain.EnrichmentSession),
	}
}

// Save stores or replaces a session, evicting the oldest terminal session
// when the cap is exceeded.
func (s *SessionStore) Save(_ context.Context, session *domain.EnrichmentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; !exists {
		s.order = append(s.order, session.ID)
	}
	s.sessions[session.ID] = session.Clone()
	s.evictLocked()
	return nil
}

// Get retrieves a session by id.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.EnrichmentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session.Clone(), nil
}

// ActiveForSheet returns the sheet's non-terminal session, if any.
func (s *SessionStore) ActiveForSheet(_ context.Context, sheetID string) (*domain.EnrichmentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, session := range s.sessions {
		if session.SheetID == sheetID && !session.Status.IsTerminal() {
			return session.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

// SetStatus transitions a session, stamping EndTime on terminal states.
// Terminal states are final: a transition out of one is silently ignored,
// so a cancellation can never be overwritten by a late pipeline update.
func (s *SessionStore) SetStatus(_ context.Context, id string, status domain.SessionStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if session.Status.IsTerminal() {
		return nil
	}
	session.Status = status
	if status.IsTerminal() {
		session.EndTime = time.Now()
	}
	if errMsg != "" {
		session.Error = errMsg
	}
	return nil
}

// RecordProgress updates a session's progress counters.
func (s *SessionStore) RecordProgress(_ context.Context, id string, progress domain.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	session.Progress = progress
	return nil
}

// AppendResults pushes one settled batch's results onto the session.
func (s *SessionStore) AppendResults(_ context.Context, id string, results []domain.RowResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	session.Results = append(session.Results, results...)
	return nil
}

// evictLocked drops the oldest terminal sessions past the cap.
// Caller holds s.mu.
func (s *SessionStore) evictLocked() {
	for len(s.sessions) > s.cap {
		evicted := false
		for i, id := range s.order {
			if session, ok := s.sessions[id]; ok && session.Status.IsTerminal() {
				delete(s.sessions, id)
				s.order = append(s.order[:i], s.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return // everything still running; never evict live sessions
		}
	}
}
