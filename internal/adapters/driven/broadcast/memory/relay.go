// Package memory provides the in-process implementation of the broadcast
// relay: a per-sheet fan-out from core mutation paths to transport
// subscribers.
package memory

import (
	"context"
	"sync"

	"github.com/planilha-labs/planilha-cli/internal/core/domain"
	"github.com/planilha-labs/planilha-cli/internal/core/ports/driven"
	"github.com/planilha-labs/planilha-cli/internal/logger"
)

// Ensure Relay implements the interface.
var _ driven.Broadcaster = (*Relay)(nil)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events; mutation paths never block.
const subscriberBuffer = 64

// Relay is an in-process pub/sub broadcaster keyed by sheet id.
type Relay struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan domain.Event
}

// NewRelay creates a new in-process relay.
func NewRelay() *Relay {
	return &Relay{subs: make(map[string]map[int]chan domain.Event)}
}

// Publish fans the event out to every subscriber of its sheet.
// Best-effort: full subscriber channels drop the event.
func (r *Relay) Publish(_ context.Context, event domain.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, ch := range r.subs[event.SheetID] {
		select {
		case ch <- event:
		default:
			logger.Warn("relay: dropping %s for slow subscriber %d on sheet %s",
				event.Type, id, event.SheetID)
		}
	}
}

// Subscribe registers interest in one sheet's events. The cancel function
// unregisters the subscription and closes the channel; it is safe to call
// more than once.
func (r *Relay) Subscribe(sheetID string) (<-chan domain.Event, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.subs[sheetID] == nil {
		r.subs[sheetID] = make(map[int]chan domain.Event)
	}
	id := r.nextID
	r.nextID++
	ch := make(chan domain.Event, subscriberBuffer)
	r.subs[sheetID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs[sheetID], id)
			if len(r.subs[sheetID]) == 0 {
				delete(r.subs, sheetID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers for a sheet.
func (r *Relay) SubscriberCount(sheetID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[sheetID])
}
