package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// PostgresEventsRepository reads the sync_events table.
type PostgresEventsRepository struct {
	db *sql.DB
}

// NewPostgresEventsRepository creates the events repository.
func NewPostgresEventsRepository(db *sql.DB) *PostgresEventsRepository {
	return &PostgresEventsRepository{db: db}
}

var _ EventsRepository = (*PostgresEventsRepository)(nil)

const eventColumns = `seq, name, event_type, entity_kind, entity_id, entity, updated_at, ts`

// ListEventsSince returns events with seq > cursor in commit order.
func (r *PostgresEventsRepository) ListEventsSince(ctx context.Context, cursor int64, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+`
		 FROM sync_events
		 WHERE seq > $1
		 ORDER BY seq ASC
		 LIMIT $2`,
		cursor, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events since %d: %w", cursor, err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		ev := &domain.Event{}
		if err := rows.Scan(&ev.Seq, &ev.Name, &ev.Type, &ev.EntityKind, &ev.EntityID, &ev.Entity, &ev.UpdatedAt, &ev.TS); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// insertEvent appends one event row inside the caller's transaction and fills
// in the assigned seq. Entity writes and their events commit or roll back
// together; nothing is dispatched before commit.
func insertEvent(ctx context.Context, tx *sql.Tx, ev *domain.Event) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO sync_events (name, event_type, entity_kind, entity_id, entity, updated_at, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq`,
		ev.Name, ev.Type, ev.EntityKind, ev.EntityID, []byte(ev.Entity), ev.UpdatedAt, ev.TS,
	).Scan(&ev.Seq)
	if err != nil {
		return fmt.Errorf("insert sync event: %w", err)
	}
	return nil
}
