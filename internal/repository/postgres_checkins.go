package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// PostgresCheckInsRepository implements CheckInsRepository over the checkins
// table. There are no update or delete paths: check-ins are immutable.
type PostgresCheckInsRepository struct {
	db *sql.DB
}

// NewPostgresCheckInsRepository creates the check-ins repository.
func NewPostgresCheckInsRepository(db *sql.DB) *PostgresCheckInsRepository {
	return &PostgresCheckInsRepository{db: db}
}

var _ CheckInsRepository = (*PostgresCheckInsRepository)(nil)

const checkinColumns = `checkin_id, mother_id, mother_name, response, comment, channel, created_at`

func scanCheckIn(row interface {
	Scan(dest ...interface{}) error
}) (*domain.CheckIn, error) {
	c := &domain.CheckIn{}
	err := row.Scan(&c.ID, &c.MotherID, &c.MotherName, &c.Response, &c.Comment, &c.Channel, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCheckIn inserts the row and its sync event in one transaction.
func (r *PostgresCheckInsRepository) CreateCheckIn(ctx context.Context, c *domain.CheckIn) (*domain.Event, error) {
	ts := now()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Channel == "" {
		c.Channel = domain.ChannelApp
	}
	c.CreatedAt = ts

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create checkin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkins (checkin_id, mother_id, mother_name, response, comment, channel, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.MotherID, c.MotherName, c.Response, c.Comment, c.Channel, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert checkin: %w", err)
	}

	ev, err := domain.NewEvent(domain.EventCreated, domain.KindCheckIn, c.ID, c, c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create checkin: %w", err)
	}
	return ev, nil
}

// GetCheckIn fetches one row.
func (r *PostgresCheckInsRepository) GetCheckIn(ctx context.Context, id string) (*domain.CheckIn, error) {
	c, err := scanCheckIn(r.db.QueryRowContext(ctx,
		`SELECT `+checkinColumns+` FROM checkins WHERE checkin_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get checkin %s: %w", id, err)
	}
	return c, nil
}

// ListCheckInsForMother returns a mother's check-ins, newest first.
func (r *PostgresCheckInsRepository) ListCheckInsForMother(ctx context.Context, motherID string, limit int) ([]*domain.CheckIn, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+checkinColumns+` FROM checkins
		 WHERE mother_id = $1 ORDER BY created_at DESC LIMIT $2`,
		motherID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins for mother %s: %w", motherID, err)
	}
	defer rows.Close()
	return collectCheckIns(rows)
}

// LatestCheckInForMother returns the single most recent check-in.
func (r *PostgresCheckInsRepository) LatestCheckInForMother(ctx context.Context, motherID string) (*domain.CheckIn, error) {
	c, err := scanCheckIn(r.db.QueryRowContext(ctx,
		`SELECT `+checkinColumns+` FROM checkins
		 WHERE mother_id = $1 ORDER BY created_at DESC LIMIT 1`, motherID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest checkin for mother %s: %w", motherID, err)
	}
	return c, nil
}

// ListCheckInsForMothers returns recent check-ins across the mothers, newest first.
func (r *PostgresCheckInsRepository) ListCheckInsForMothers(ctx context.Context, motherIDs []string, limit int) ([]*domain.CheckIn, error) {
	if len(motherIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+checkinColumns+` FROM checkins
		 WHERE mother_id = ANY($1) ORDER BY created_at DESC LIMIT $2`,
		pq.Array(motherIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkins for %s: %w", strings.Join(motherIDs, ","), err)
	}
	defer rows.Close()
	return collectCheckIns(rows)
}

func collectCheckIns(rows *sql.Rows) ([]*domain.CheckIn, error) {
	var out []*domain.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
