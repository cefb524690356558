package repository

import (
	"context"
	"sync"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// MemoryEventLog is the in-memory sync event log shared by the memory
// repositories, with the same seq semantics as the sync_events table.
type MemoryEventLog struct {
	mu      sync.Mutex
	events  []*domain.Event
	nextSeq int64
}

// NewMemoryEventLog creates an empty event log.
func NewMemoryEventLog() *MemoryEventLog {
	return &MemoryEventLog{nextSeq: 1}
}

var _ EventsRepository = (*MemoryEventLog)(nil)

// Append assigns the next seq and stores the event.
func (l *MemoryEventLog) Append(ev *domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev.Seq = l.nextSeq
	l.nextSeq++
	l.events = append(l.events, ev)
}

// ListEventsSince returns events with seq > cursor in commit order.
func (l *MemoryEventLog) ListEventsSince(ctx context.Context, cursor int64, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 200
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*domain.Event
	for _, ev := range l.events {
		if ev.Seq > cursor {
			out = append(out, ev)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}
