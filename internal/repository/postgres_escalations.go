package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
)

// PostgresEscalationsRepository implements EscalationsRepository over the
// escalations table.
type PostgresEscalationsRepository struct {
	db *sql.DB
}

// NewPostgresEscalationsRepository creates the escalations repository.
func NewPostgresEscalationsRepository(db *sql.DB) *PostgresEscalationsRepository {
	return &PostgresEscalationsRepository{db: db}
}

var _ EscalationsRepository = (*PostgresEscalationsRepository)(nil)

const escalationColumns = `escalation_id, mother_id, mother_name, chw_id, chw_name,
	nurse_id, nurse_name, issue_type, case_description, priority, status, notes,
	source_checkin_id, created_at, updated_at, resolved_at`

func scanEscalation(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Escalation, error) {
	e := &domain.Escalation{}
	err := row.Scan(
		&e.ID, &e.MotherID, &e.MotherName, &e.CHWID, &e.CHWName,
		&e.NurseID, &e.NurseName, &e.IssueType, &e.CaseDescription,
		&e.Priority, &e.Status, &e.Notes, &e.SourceCheckInID,
		&e.CreatedAt, &e.UpdatedAt, &e.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEscalation inserts the row and its sync event in one transaction.
func (r *PostgresEscalationsRepository) CreateEscalation(ctx context.Context, e *domain.Escalation) (*domain.Event, error) {
	ts := now()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Status = domain.EscalationPending
	e.CreatedAt = ts
	e.UpdatedAt = ts

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create escalation: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO escalations (escalation_id, mother_id, mother_name, chw_id, chw_name,
			nurse_id, nurse_name, issue_type, case_description, priority, status, notes,
			source_checkin_id, created_at, updated_at, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		e.ID, e.MotherID, e.MotherName, e.CHWID, e.CHWName,
		e.NurseID, e.NurseName, e.IssueType, e.CaseDescription,
		e.Priority, e.Status, e.Notes, e.SourceCheckInID,
		e.CreatedAt, e.UpdatedAt, e.ResolvedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert escalation: %w", err)
	}

	ev, err := domain.NewEvent(domain.EventCreated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create escalation: %w", err)
	}
	return ev, nil
}

// GetEscalation fetches one row.
func (r *PostgresEscalationsRepository) GetEscalation(ctx context.Context, id string) (*domain.Escalation, error) {
	e, err := scanEscalation(r.db.QueryRowContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations WHERE escalation_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get escalation %s: %w", id, err)
	}
	return e, nil
}

// ListEscalations queries with dynamic filters, newest first.
func (r *PostgresEscalationsRepository) ListEscalations(ctx context.Context, filters EscalationFilters) ([]*domain.Escalation, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	argN := 1

	add := func(cond string, val interface{}) {
		where = append(where, fmt.Sprintf(cond, argN))
		args = append(args, val)
		argN++
	}

	if filters.MotherID != nil {
		add("mother_id = $%d", *filters.MotherID)
	}
	if filters.CHWID != nil {
		add("chw_id = $%d", *filters.CHWID)
	}
	if filters.NurseID != nil {
		add("nurse_id = $%d", *filters.NurseID)
	}
	if filters.NurseOrPending != nil {
		add("(nurse_id = $%d OR (status = 'pending' AND nurse_id IS NULL))", *filters.NurseOrPending)
	}
	if filters.Status != nil {
		add("status = $%d", string(*filters.Status))
	}
	if filters.Priority != nil {
		add("priority = $%d", string(*filters.Priority))
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		`SELECT `+escalationColumns+`
		 FROM escalations
		 WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d`,
		strings.Join(where, " AND "), argN,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Escalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan escalation: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// lockEscalation loads the row FOR UPDATE and verifies the caller's base
// version. The lock holds the OCC check and the subsequent write together.
func lockEscalation(ctx context.Context, tx *sql.Tx, id string, base time.Time) (*domain.Escalation, error) {
	e, err := scanEscalation(tx.QueryRowContext(ctx,
		`SELECT `+escalationColumns+` FROM escalations WHERE escalation_id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock escalation %s: %w", id, err)
	}
	if !e.UpdatedAt.Equal(base) {
		return nil, domain.ErrConflict
	}
	return e, nil
}

// UpdateEscalationStatus validates and applies a status transition, binding
// the acting nurse when the case is claimed out of the pending queue.
func (r *PostgresEscalationsRepository) UpdateEscalationStatus(ctx context.Context, id string, base time.Time, requested domain.EscalationStatus, actor domain.Actor, notes *string) (*domain.Escalation, *domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin update escalation status: %w", err)
	}
	defer tx.Rollback()

	e, err := lockEscalation(ctx, tx, id, base)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.CheckEscalationTransition(e.Status, requested); err != nil {
		return nil, nil, err
	}

	ts := now()
	e.Status = requested
	e.UpdatedAt = ts
	if e.NurseID == nil {
		nurseID := actor.ID
		e.NurseID = &nurseID
		if actor.Name != "" {
			nurseName := actor.Name
			e.NurseName = &nurseName
		}
	}
	if notes != nil {
		e.Notes = appendNote(e.Notes, *notes)
	}
	if requested.Terminal() {
		e.ResolvedAt = &ts
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE escalations
		 SET status = $1, nurse_id = $2, nurse_name = $3, notes = $4, resolved_at = $5, updated_at = $6
		 WHERE escalation_id = $7 AND updated_at = $8`,
		e.Status, e.NurseID, e.NurseName, e.Notes, e.ResolvedAt, e.UpdatedAt, id, base,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update escalation status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrConflict
	}

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit update escalation status: %w", err)
	}
	return e, ev, nil
}

// UpdateEscalationFields patches CHW-owned fields inside the mutability window.
func (r *PostgresEscalationsRepository) UpdateEscalationFields(ctx context.Context, id string, base time.Time, patch domain.EscalationPatch) (*domain.Escalation, *domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin update escalation fields: %w", err)
	}
	defer tx.Rollback()

	e, err := lockEscalation(ctx, tx, id, base)
	if err != nil {
		return nil, nil, err
	}
	if !policy.IsEditable(e.CreatedAt, now()) {
		return nil, nil, domain.ErrWindowExpired
	}
	if (patch.Priority != nil || patch.IssueType != nil) && !policy.PriorityEditable(e.Status) {
		return nil, nil, &domain.InvalidTransitionError{
			Kind:      domain.KindEscalation,
			Current:   string(e.Status),
			Requested: "field edit",
		}
	}

	if patch.Priority != nil {
		e.Priority = *patch.Priority
	}
	if patch.IssueType != nil {
		e.IssueType = patch.IssueType
	}
	if patch.CaseDescription != nil {
		e.CaseDescription = *patch.CaseDescription
	}
	e.UpdatedAt = now()

	res, err := tx.ExecContext(ctx,
		`UPDATE escalations
		 SET priority = $1, issue_type = $2, case_description = $3, updated_at = $4
		 WHERE escalation_id = $5 AND updated_at = $6`,
		e.Priority, e.IssueType, e.CaseDescription, e.UpdatedAt, id, base,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update escalation fields: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrConflict
	}

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit update escalation fields: %w", err)
	}
	return e, ev, nil
}

// AppendEscalationNotes amends notes outside the window rules.
func (r *PostgresEscalationsRepository) AppendEscalationNotes(ctx context.Context, id string, base time.Time, notes string) (*domain.Escalation, *domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin append escalation notes: %w", err)
	}
	defer tx.Rollback()

	e, err := lockEscalation(ctx, tx, id, base)
	if err != nil {
		return nil, nil, err
	}

	e.Notes = appendNote(e.Notes, notes)
	e.UpdatedAt = now()

	res, err := tx.ExecContext(ctx,
		`UPDATE escalations SET notes = $1, updated_at = $2
		 WHERE escalation_id = $3 AND updated_at = $4`,
		e.Notes, e.UpdatedAt, id, base,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("append escalation notes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrConflict
	}

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit append escalation notes: %w", err)
	}
	return e, ev, nil
}

// DeleteEscalation hard-deletes inside the mutability window only.
func (r *PostgresEscalationsRepository) DeleteEscalation(ctx context.Context, id string, base time.Time) (*domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete escalation: %w", err)
	}
	defer tx.Rollback()

	e, err := lockEscalation(ctx, tx, id, base)
	if err != nil {
		return nil, err
	}
	if !policy.IsEditable(e.CreatedAt, now()) {
		return nil, domain.ErrWindowExpired
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM escalations WHERE escalation_id = $1 AND updated_at = $2`, id, base)
	if err != nil {
		return nil, fmt.Errorf("delete escalation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrConflict
	}

	ev, err := domain.NewEvent(domain.EventDeleted, domain.KindEscalation, e.ID, e, now())
	if err != nil {
		return nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete escalation: %w", err)
	}
	return ev, nil
}

// appendNote appends a note onto the existing notes text, newline separated.
func appendNote(existing *string, note string) *string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == nil || *existing == "" {
		return &note
	}
	joined := *existing + "\n" + note
	return &joined
}
