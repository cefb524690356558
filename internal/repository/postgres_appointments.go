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

// PostgresAppointmentsRepository implements AppointmentsRepository over the
// appointments table.
type PostgresAppointmentsRepository struct {
	db *sql.DB
}

// NewPostgresAppointmentsRepository creates the appointments repository.
func NewPostgresAppointmentsRepository(db *sql.DB) *PostgresAppointmentsRepository {
	return &PostgresAppointmentsRepository{db: db}
}

var _ AppointmentsRepository = (*PostgresAppointmentsRepository)(nil)

const appointmentColumns = `appointment_id, mother_id, health_worker_id, scheduled_time,
	appointment_type, recurrence_rule, recurrence_end, status, escalated,
	escalation_reason, notes, created_at, updated_at`

func scanAppointment(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Appointment, error) {
	a := &domain.Appointment{}
	err := row.Scan(
		&a.ID, &a.MotherID, &a.HealthWorkerID, &a.ScheduledTime,
		&a.AppointmentType, &a.RecurrenceRule, &a.RecurrenceEnd, &a.Status,
		&a.Escalated, &a.EscalationReason, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAppointment inserts the row and its sync event in one transaction.
// Retroactive scheduling is rejected at the store.
func (r *PostgresAppointmentsRepository) CreateAppointment(ctx context.Context, a *domain.Appointment) (*domain.Event, error) {
	ts := now()
	if a.ScheduledTime.Before(ts) {
		return nil, &domain.ValidationError{Field: "scheduled_time", Reason: "must not be before creation time"}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.RecurrenceRule == "" {
		a.RecurrenceRule = domain.RecurrenceNone
	}
	a.Status = domain.AppointmentScheduled
	a.CreatedAt = ts
	a.UpdatedAt = ts

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create appointment: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO appointments (appointment_id, mother_id, health_worker_id, scheduled_time,
			appointment_type, recurrence_rule, recurrence_end, status, escalated,
			escalation_reason, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.MotherID, a.HealthWorkerID, a.ScheduledTime,
		a.AppointmentType, a.RecurrenceRule, a.RecurrenceEnd, a.Status, a.Escalated,
		a.EscalationReason, a.Notes, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	ev, err := domain.NewEvent(domain.EventCreated, domain.KindAppointment, a.ID, a, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create appointment: %w", err)
	}
	return ev, nil
}

// GetAppointment fetches one row.
func (r *PostgresAppointmentsRepository) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := scanAppointment(r.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE appointment_id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return a, nil
}

// ListAppointments queries with dynamic filters, soonest first.
func (r *PostgresAppointmentsRepository) ListAppointments(ctx context.Context, filters AppointmentFilters) ([]*domain.Appointment, error) {
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
	if filters.HealthWorkerID != nil {
		add("health_worker_id = $%d", *filters.HealthWorkerID)
	}
	if filters.Status != nil {
		add("status = $%d", string(*filters.Status))
	}
	if filters.From != nil {
		add("scheduled_time >= $%d", *filters.From)
	}
	if filters.To != nil {
		add("scheduled_time <= $%d", *filters.To)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		`SELECT `+appointmentColumns+`
		 FROM appointments
		 WHERE %s
		 ORDER BY scheduled_time ASC
		 LIMIT $%d`,
		strings.Join(where, " AND "), argN,
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func lockAppointment(ctx context.Context, tx *sql.Tx, id string, base time.Time) (*domain.Appointment, error) {
	a, err := scanAppointment(tx.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE appointment_id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock appointment %s: %w", id, err)
	}
	if !a.UpdatedAt.Equal(base) {
		return nil, domain.ErrConflict
	}
	return a, nil
}

// UpdateAppointmentStatus validates and applies a status transition.
func (r *PostgresAppointmentsRepository) UpdateAppointmentStatus(ctx context.Context, id string, base time.Time, requested domain.AppointmentStatus) (*domain.Appointment, *domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin update appointment status: %w", err)
	}
	defer tx.Rollback()

	a, err := lockAppointment(ctx, tx, id, base)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.CheckAppointmentTransition(a.Status, requested); err != nil {
		return nil, nil, err
	}

	a.Status = requested
	a.UpdatedAt = now()

	res, err := tx.ExecContext(ctx,
		`UPDATE appointments SET status = $1, updated_at = $2
		 WHERE appointment_id = $3 AND updated_at = $4`,
		a.Status, a.UpdatedAt, id, base,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update appointment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrConflict
	}

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindAppointment, a.ID, a, a.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit update appointment status: %w", err)
	}
	return a, ev, nil
}

// UpdateAppointmentFields patches schedulable fields inside the mutability window.
func (r *PostgresAppointmentsRepository) UpdateAppointmentFields(ctx context.Context, id string, base time.Time, patch domain.AppointmentPatch) (*domain.Appointment, *domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin update appointment fields: %w", err)
	}
	defer tx.Rollback()

	a, err := lockAppointment(ctx, tx, id, base)
	if err != nil {
		return nil, nil, err
	}
	if !policy.IsEditable(a.CreatedAt, now()) {
		return nil, nil, domain.ErrWindowExpired
	}

	if patch.ScheduledTime != nil {
		a.ScheduledTime = *patch.ScheduledTime
	}
	if patch.AppointmentType != nil {
		a.AppointmentType = patch.AppointmentType
	}
	if patch.RecurrenceRule != nil {
		a.RecurrenceRule = *patch.RecurrenceRule
	}
	if patch.RecurrenceEnd != nil {
		a.RecurrenceEnd = patch.RecurrenceEnd
	}
	if patch.Notes != nil {
		a.Notes = patch.Notes
	}
	a.UpdatedAt = now()

	res, err := tx.ExecContext(ctx,
		`UPDATE appointments
		 SET scheduled_time = $1, appointment_type = $2, recurrence_rule = $3,
		     recurrence_end = $4, notes = $5, updated_at = $6
		 WHERE appointment_id = $7 AND updated_at = $8`,
		a.ScheduledTime, a.AppointmentType, a.RecurrenceRule,
		a.RecurrenceEnd, a.Notes, a.UpdatedAt, id, base,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("update appointment fields: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil, domain.ErrConflict
	}

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindAppointment, a.ID, a, a.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit update appointment fields: %w", err)
	}
	return a, ev, nil
}

// DeleteAppointment hard-deletes inside the mutability window only.
func (r *PostgresAppointmentsRepository) DeleteAppointment(ctx context.Context, id string, base time.Time) (*domain.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete appointment: %w", err)
	}
	defer tx.Rollback()

	a, err := lockAppointment(ctx, tx, id, base)
	if err != nil {
		return nil, err
	}
	if !policy.IsEditable(a.CreatedAt, now()) {
		return nil, domain.ErrWindowExpired
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM appointments WHERE appointment_id = $1 AND updated_at = $2`, id, base)
	if err != nil {
		return nil, fmt.Errorf("delete appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, domain.ErrConflict
	}

	ev, err := domain.NewEvent(domain.EventDeleted, domain.KindAppointment, a.ID, a, now())
	if err != nil {
		return nil, err
	}
	if err := insertEvent(ctx, tx, ev); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete appointment: %w", err)
	}
	return ev, nil
}
