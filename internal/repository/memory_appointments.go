package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
)

// MemoryAppointmentsRepository is the in-memory AppointmentsRepository for dev
// mode and tests.
type MemoryAppointmentsRepository struct {
	mu     sync.Mutex
	rows   map[string]*domain.Appointment
	events *MemoryEventLog
}

// NewMemoryAppointmentsRepository creates the repository over a shared event log.
func NewMemoryAppointmentsRepository(events *MemoryEventLog) *MemoryAppointmentsRepository {
	return &MemoryAppointmentsRepository{
		rows:   map[string]*domain.Appointment{},
		events: events,
	}
}

var _ AppointmentsRepository = (*MemoryAppointmentsRepository)(nil)

func cloneAppointment(a *domain.Appointment) *domain.Appointment {
	cp := *a
	return &cp
}

// CreateAppointment stores the row and appends its event. Retroactive
// scheduling is rejected at the store.
func (r *MemoryAppointmentsRepository) CreateAppointment(ctx context.Context, a *domain.Appointment) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

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
	r.rows[a.ID] = cloneAppointment(a)

	ev, err := domain.NewEvent(domain.EventCreated, domain.KindAppointment, a.ID, a, a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.events.Append(ev)
	return ev, nil
}

// GetAppointment fetches one row.
func (r *MemoryAppointmentsRepository) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAppointment(a), nil
}

// ListAppointments filters in memory, soonest first.
func (r *MemoryAppointmentsRepository) ListAppointments(ctx context.Context, filters AppointmentFilters) ([]*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Appointment
	for _, a := range r.rows {
		if filters.MotherID != nil && a.MotherID != *filters.MotherID {
			continue
		}
		if filters.HealthWorkerID != nil && a.HealthWorkerID != *filters.HealthWorkerID {
			continue
		}
		if filters.Status != nil && a.Status != *filters.Status {
			continue
		}
		if filters.From != nil && a.ScheduledTime.Before(*filters.From) {
			continue
		}
		if filters.To != nil && a.ScheduledTime.After(*filters.To) {
			continue
		}
		out = append(out, cloneAppointment(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledTime.Before(out[j].ScheduledTime) })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (r *MemoryAppointmentsRepository) locked(id string, base time.Time) (*domain.Appointment, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !a.UpdatedAt.Equal(base) {
		return nil, domain.ErrConflict
	}
	return a, nil
}

// UpdateAppointmentStatus applies a validated transition under the store lock.
func (r *MemoryAppointmentsRepository) UpdateAppointmentStatus(ctx context.Context, id string, base time.Time, requested domain.AppointmentStatus) (*domain.Appointment, *domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.locked(id, base)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.CheckAppointmentTransition(a.Status, requested); err != nil {
		return nil, nil, err
	}

	a.Status = requested
	a.UpdatedAt = now()

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindAppointment, a.ID, a, a.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	r.events.Append(ev)
	return cloneAppointment(a), ev, nil
}

// UpdateAppointmentFields patches fields inside the mutability window.
func (r *MemoryAppointmentsRepository) UpdateAppointmentFields(ctx context.Context, id string, base time.Time, patch domain.AppointmentPatch) (*domain.Appointment, *domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.locked(id, base)
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

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindAppointment, a.ID, a, a.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	r.events.Append(ev)
	return cloneAppointment(a), ev, nil
}

// DeleteAppointment hard-deletes inside the mutability window only.
func (r *MemoryAppointmentsRepository) DeleteAppointment(ctx context.Context, id string, base time.Time) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, err := r.locked(id, base)
	if err != nil {
		return nil, err
	}
	if !policy.IsEditable(a.CreatedAt, now()) {
		return nil, domain.ErrWindowExpired
	}

	delete(r.rows, id)

	ev, err := domain.NewEvent(domain.EventDeleted, domain.KindAppointment, a.ID, a, now())
	if err != nil {
		return nil, err
	}
	r.events.Append(ev)
	return ev, nil
}

// Seed inserts a row as-is, bypassing invariants. Test helper.
func (r *MemoryAppointmentsRepository) Seed(a *domain.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[a.ID] = cloneAppointment(a)
}
