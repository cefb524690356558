// Package recon is the client-side reconciliation collaborator: a local entity
// set that merges sync events idempotently by (entity id, updated_at), so the
// push stream and the polling fallback can race over the same change without
// ever duplicating a record.
package recon

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

type key struct {
	kind domain.EntityKind
	id   string
}

// Entry is the locally held snapshot of one entity.
type Entry struct {
	Kind      domain.EntityKind
	ID        string
	UpdatedAt time.Time
	Entity    json.RawMessage
}

// Store holds the client's merged view. Safe for concurrent use by a push
// goroutine and a polling goroutine.
type Store struct {
	mu      sync.RWMutex
	entries map[key]Entry
	cursor  int64
}

// NewStore creates an empty reconciliation store.
func NewStore() *Store {
	return &Store{entries: map[key]Entry{}}
}

// Apply merges one event and reports whether local state changed. An event for
// an id already present updates in place; a stale or already-applied event
// (updated_at not newer than the held snapshot) is a no-op, which is what
// makes the push and poll surfaces safe to race.
func (s *Store) Apply(ev *domain.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Seq > s.cursor {
		s.cursor = ev.Seq
	}

	k := key{kind: ev.EntityKind, id: ev.EntityID}

	if ev.Type == domain.EventDeleted {
		if _, ok := s.entries[k]; !ok {
			return false
		}
		delete(s.entries, k)
		return true
	}

	if held, ok := s.entries[k]; ok && !ev.UpdatedAt.After(held.UpdatedAt) {
		return false
	}
	s.entries[k] = Entry{
		Kind:      ev.EntityKind,
		ID:        ev.EntityID,
		UpdatedAt: ev.UpdatedAt,
		Entity:    ev.Entity,
	}
	return true
}

// Cursor returns the highest event seq applied, for the next listSince call.
func (s *Store) Cursor() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// Get returns the held snapshot for an entity, if present.
func (s *Store) Get(kind domain.EntityKind, id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key{kind: kind, id: id}]
	return e, ok
}

// Len returns the number of held entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns all held entries of one kind.
func (s *Store) Snapshot(kind domain.EntityKind) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for k, e := range s.entries {
		if k.kind == kind {
			out = append(out, e)
		}
	}
	return out
}
