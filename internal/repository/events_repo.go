package repository

import (
	"context"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// EventsRepository reads the committed sync event log. Appends happen inside
// the entity repositories' transactions; this interface is the pull surface
// (listSince) and is gap-free relative to push delivery because both feed from
// the same rows.
type EventsRepository interface {
	// ListEventsSince returns events with seq > cursor in seq order, visible
	// to nobody in particular: visibility filtering happens per actor in the
	// dispatcher and service layers.
	ListEventsSince(ctx context.Context, cursor int64, limit int) ([]*domain.Event, error)
}
