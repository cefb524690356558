package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// PostgresAssignmentsRepository implements AssignmentsRepository over the
// assignments table. A partial unique index on (mother_id) WHERE status =
// 'active' backs the one-active-assignment invariant at the schema level.
type PostgresAssignmentsRepository struct {
	db *sql.DB
}

// NewPostgresAssignmentsRepository creates the assignments repository.
func NewPostgresAssignmentsRepository(db *sql.DB) *PostgresAssignmentsRepository {
	return &PostgresAssignmentsRepository{db: db}
}

var _ AssignmentsRepository = (*PostgresAssignmentsRepository)(nil)

const assignmentColumns = `assignment_id, chw_id, mother_id, status, assigned_at, deactivated_at`

// Reassign deactivates the mother's current active assignment and activates
// the new one in a single transaction.
func (r *PostgresAssignmentsRepository) Reassign(ctx context.Context, motherID, chwID string) (*domain.Assignment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reassign: %w", err)
	}
	defer tx.Rollback()

	ts := now()

	_, err = tx.ExecContext(ctx,
		`UPDATE assignments SET status = 'inactive', deactivated_at = $1
		 WHERE mother_id = $2 AND status = 'active'`,
		ts, motherID,
	)
	if err != nil {
		return nil, fmt.Errorf("deactivate prior assignment: %w", err)
	}

	a := &domain.Assignment{
		ID:         uuid.NewString(),
		CHWID:      chwID,
		MotherID:   motherID,
		Status:     domain.AssignmentActive,
		AssignedAt: ts,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO assignments (assignment_id, chw_id, mother_id, status, assigned_at)
		 VALUES ($1, $2, $3, 'active', $4)`,
		a.ID, a.CHWID, a.MotherID, a.AssignedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reassign: %w", err)
	}
	return a, nil
}

// ActiveCHW returns the CHW under the mother's single active assignment.
func (r *PostgresAssignmentsRepository) ActiveCHW(ctx context.Context, motherID string) (string, error) {
	var chwID string
	err := r.db.QueryRowContext(ctx,
		`SELECT chw_id FROM assignments WHERE mother_id = $1 AND status = 'active'`, motherID,
	).Scan(&chwID)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("active chw for mother %s: %w", motherID, err)
	}
	return chwID, nil
}

// AssignedMothers returns mothers under active assignment to the CHW.
func (r *PostgresAssignmentsRepository) AssignedMothers(ctx context.Context, chwID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT mother_id FROM assignments WHERE chw_id = $1 AND status = 'active' ORDER BY assigned_at`, chwID)
	if err != nil {
		return nil, fmt.Errorf("assigned mothers for chw %s: %w", chwID, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var motherID string
		if err := rows.Scan(&motherID); err != nil {
			return nil, fmt.Errorf("scan assigned mother: %w", err)
		}
		out = append(out, motherID)
	}
	return out, rows.Err()
}

// ListActive returns every active assignment.
func (r *PostgresAssignmentsRepository) ListActive(ctx context.Context) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE status = 'active' ORDER BY assigned_at`)
	if err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Assignment
	for rows.Next() {
		a := &domain.Assignment{}
		if err := rows.Scan(&a.ID, &a.CHWID, &a.MotherID, &a.Status, &a.AssignedAt, &a.DeactivatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
