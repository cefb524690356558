package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/metrics"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

// AppointmentService wraps the appointment store with role gating and
// visibility, mirroring EscalationService.
type AppointmentService struct {
	appointments repository.AppointmentsRepository
	assignments  repository.AssignmentsRepository
	dispatcher   *dispatcher.Dispatcher
	logger       *zap.Logger
}

// NewAppointmentService creates the appointment service.
func NewAppointmentService(appointments repository.AppointmentsRepository, assignments repository.AssignmentsRepository, d *dispatcher.Dispatcher, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{appointments: appointments, assignments: assignments, dispatcher: d, logger: logger}
}

// CreateAppointmentRequest schedules a visit. A health worker is always the
// assignee: the acting CHW or nurse when they schedule, HealthWorkerID (or
// the mother's active CHW) when the mother self-requests.
type CreateAppointmentRequest struct {
	MotherID        string     `json:"mother_id"`
	HealthWorkerID  string     `json:"health_worker_id,omitempty"`
	ScheduledTime   time.Time  `json:"scheduled_time"`
	AppointmentType *string    `json:"appointment_type,omitempty"`
	RecurrenceRule  string     `json:"recurrence_rule,omitempty"`
	RecurrenceEnd   *time.Time `json:"recurrence_end,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
}

// CreateAppointment schedules a visit. A CHW or nurse schedules on behalf of
// a mother and becomes the assignee; a mother self-requests a visit with
// herself, falling back to her active CHW when no worker is named.
func (s *AppointmentService) CreateAppointment(ctx context.Context, actor domain.Actor, req CreateAppointmentRequest) (*domain.Appointment, error) {
	var motherID, healthWorkerID string
	switch actor.Role {
	case domain.RoleMother:
		if req.MotherID != "" && req.MotherID != actor.ID {
			return nil, domain.ErrForbidden
		}
		motherID = actor.ID
		healthWorkerID = req.HealthWorkerID
		if healthWorkerID == "" {
			chwID, err := s.assignments.ActiveCHW(ctx, actor.ID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, &domain.ValidationError{Field: "health_worker_id", Reason: "required when no active assignment exists"}
			}
			if err != nil {
				return nil, err
			}
			healthWorkerID = chwID
		}
	case domain.RoleCHW, domain.RoleNurse:
		if req.MotherID == "" {
			return nil, &domain.ValidationError{Field: "mother_id", Reason: "required"}
		}
		motherID = req.MotherID
		healthWorkerID = actor.ID
	default:
		return nil, domain.ErrForbidden
	}
	if req.ScheduledTime.IsZero() {
		return nil, &domain.ValidationError{Field: "scheduled_time", Reason: "required"}
	}

	rule := domain.RecurrenceRule(req.RecurrenceRule)
	if rule == "" {
		rule = domain.RecurrenceNone
	}
	if !domain.ValidRecurrenceRule(rule) {
		return nil, &domain.ValidationError{Field: "recurrence_rule", Reason: "unknown value " + req.RecurrenceRule}
	}
	if rule != domain.RecurrenceNone && req.RecurrenceEnd != nil && !req.RecurrenceEnd.After(req.ScheduledTime) {
		return nil, &domain.ValidationError{Field: "recurrence_end", Reason: "must fall after scheduled_time"}
	}

	a := &domain.Appointment{
		MotherID:       motherID,
		HealthWorkerID: healthWorkerID,
		ScheduledTime:  req.ScheduledTime.UTC(),
		AppointmentType: req.AppointmentType,
		RecurrenceRule: rule,
		RecurrenceEnd:  req.RecurrenceEnd,
		Notes:          req.Notes,
	}

	ev, err := s.appointments.CreateAppointment(ctx, a)
	metrics.Writes.WithLabelValues(string(domain.KindAppointment), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment created",
		zap.String("appointment_id", a.ID),
		zap.String("health_worker_id", a.HealthWorkerID),
		zap.Time("scheduled_time", a.ScheduledTime))
	s.dispatcher.Publish(ev)
	return a, nil
}

// GetAppointment fetches one visit under the actor's visibility.
func (s *AppointmentService) GetAppointment(ctx context.Context, actor domain.Actor, id string) (*domain.Appointment, error) {
	a, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadAppointment(actor, *a) {
		return nil, domain.ErrForbidden
	}
	return a, nil
}

// ListAppointmentsRequest narrows the role-scoped listing.
type ListAppointmentsRequest struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// ListAppointments returns the actor's schedule view: a mother her visits, a
// health worker the visits they hold.
func (s *AppointmentService) ListAppointments(ctx context.Context, actor domain.Actor, req ListAppointmentsRequest) ([]*domain.Appointment, error) {
	filters := repository.AppointmentFilters{
		From:  req.From,
		To:    req.To,
		Limit: req.Limit,
	}

	switch actor.Role {
	case domain.RoleMother:
		filters.MotherID = &actor.ID
	case domain.RoleCHW, domain.RoleNurse:
		filters.HealthWorkerID = &actor.ID
	default:
		return nil, domain.ErrForbidden
	}

	if req.Status != "" {
		status := domain.AppointmentStatus(req.Status)
		if !domain.ValidAppointmentStatus(status) {
			return nil, &domain.ValidationError{Field: "status", Reason: "unknown value " + req.Status}
		}
		filters.Status = &status
	}

	return s.appointments.ListAppointments(ctx, filters)
}

// UpdateAppointmentStatus completes or cancels a visit. Only the assigned
// health worker advances it.
func (s *AppointmentService) UpdateAppointmentStatus(ctx context.Context, actor domain.Actor, id string, req UpdateStatusRequest) (*domain.Appointment, error) {
	requested := domain.AppointmentStatus(req.Status)
	if !domain.ValidAppointmentStatus(requested) {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown value " + req.Status}
	}
	if req.UpdatedAt.IsZero() {
		return nil, &domain.ValidationError{Field: "updated_at", Reason: "base version required"}
	}

	current, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteAppointment(actor, *current) {
		return nil, domain.ErrForbidden
	}
	if !policy.CanAdvanceAppointment(actor, *current) {
		return nil, domain.ErrForbidden
	}

	updated, ev, err := s.appointments.UpdateAppointmentStatus(ctx, id, req.UpdatedAt, requested)
	metrics.Writes.WithLabelValues(string(domain.KindAppointment), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment status updated",
		zap.String("appointment_id", id),
		zap.String("status", string(updated.Status)))
	s.dispatcher.Publish(ev)
	return updated, nil
}

// UpdateAppointmentFieldsRequest patches the schedulable fields within the
// mutability window.
type UpdateAppointmentFieldsRequest struct {
	Patch     domain.AppointmentPatch `json:"patch"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// UpdateAppointmentFields reschedules or annotates a visit. Only the assigned
// health worker, only within the mutability window.
func (s *AppointmentService) UpdateAppointmentFields(ctx context.Context, actor domain.Actor, id string, req UpdateAppointmentFieldsRequest) (*domain.Appointment, error) {
	if req.Patch.Empty() {
		return nil, &domain.ValidationError{Field: "patch", Reason: "no fields to update"}
	}
	if req.Patch.RecurrenceRule != nil && !domain.ValidRecurrenceRule(*req.Patch.RecurrenceRule) {
		return nil, &domain.ValidationError{Field: "recurrence_rule", Reason: "unknown value " + string(*req.Patch.RecurrenceRule)}
	}
	if req.UpdatedAt.IsZero() {
		return nil, &domain.ValidationError{Field: "updated_at", Reason: "base version required"}
	}

	current, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteAppointment(actor, *current) {
		return nil, domain.ErrForbidden
	}
	if !policy.CanAdvanceAppointment(actor, *current) {
		return nil, domain.ErrForbidden
	}

	updated, ev, err := s.appointments.UpdateAppointmentFields(ctx, id, req.UpdatedAt, req.Patch)
	metrics.Writes.WithLabelValues(string(domain.KindAppointment), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Publish(ev)
	return updated, nil
}

// DeleteAppointment removes a freshly created visit. Only the assigned health
// worker, only within the mutability window.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, actor domain.Actor, id string, base time.Time) error {
	if base.IsZero() {
		return &domain.ValidationError{Field: "updated_at", Reason: "base version required"}
	}

	current, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanWriteAppointment(actor, *current) {
		return domain.ErrForbidden
	}
	if !policy.CanAdvanceAppointment(actor, *current) {
		return domain.ErrForbidden
	}

	ev, err := s.appointments.DeleteAppointment(ctx, id, base)
	metrics.Writes.WithLabelValues(string(domain.KindAppointment), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return err
	}

	s.logger.Info("appointment deleted",
		zap.String("appointment_id", id), zap.String("health_worker_id", actor.ID))
	s.dispatcher.Publish(ev)
	return nil
}
