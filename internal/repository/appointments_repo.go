package repository

import (
	"context"
	"time"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// AppointmentsRepository is the authoritative store for appointments, with the
// same store-side invariants as EscalationsRepository (legal transitions,
// mutability window on edits/deletes, optimistic concurrency, transactional
// event append).
type AppointmentsRepository interface {
	CreateAppointment(ctx context.Context, a *domain.Appointment) (*domain.Event, error)

	GetAppointment(ctx context.Context, id string) (*domain.Appointment, error)

	ListAppointments(ctx context.Context, filters AppointmentFilters) ([]*domain.Appointment, error)

	UpdateAppointmentStatus(ctx context.Context, id string, base time.Time, requested domain.AppointmentStatus) (*domain.Appointment, *domain.Event, error)

	UpdateAppointmentFields(ctx context.Context, id string, base time.Time, patch domain.AppointmentPatch) (*domain.Appointment, *domain.Event, error)

	DeleteAppointment(ctx context.Context, id string, base time.Time) (*domain.Event, error)
}
