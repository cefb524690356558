package service

import (
	"context"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

const defaultEventPageSize = 200

// SyncService is the pull surface of event delivery: listSince over the
// committed event log, filtered per actor exactly as push delivery is. A
// client that lost its websocket resumes from its last seq here without gaps.
type SyncService struct {
	events repository.EventsRepository
	roster *RosterCache
}

// NewSyncService creates the sync service.
func NewSyncService(events repository.EventsRepository, roster *RosterCache) *SyncService {
	return &SyncService{events: events, roster: roster}
}

// EventsPage is one listSince response. Cursor is the highest seq scanned
// (not the highest delivered), so the client always advances past events it
// was not allowed to see.
type EventsPage struct {
	Events []*domain.Event `json:"events"`
	Cursor int64           `json:"cursor"`
}

// ListSince returns the events after cursor that the actor may read, in seq
// order.
func (s *SyncService) ListSince(ctx context.Context, actor domain.Actor, cursor int64, limit int) (*EventsPage, error) {
	if limit <= 0 || limit > defaultEventPageSize {
		limit = defaultEventPageSize
	}

	all, err := s.events.ListEventsSince(ctx, cursor, limit)
	if err != nil {
		return nil, err
	}

	roster := s.roster.Roster()
	page := &EventsPage{Events: make([]*domain.Event, 0, len(all)), Cursor: cursor}
	for _, ev := range all {
		page.Cursor = ev.Seq
		if policy.CanReadEvent(actor, *ev, roster) {
			page.Events = append(page.Events, ev)
		}
	}
	return page, nil
}
