// Package repository is the entity store: the single writer of truth for
// escalations, appointments, assignments, check-ins and the sync event log.
// Every mutation commits its sync event row in the same transaction as the
// entity write, and every update is guarded by the caller's base updated_at
// (optimistic concurrency). Postgres implementations back production; in-memory
// implementations back dev mode and service tests with the same semantics.
package repository

import (
	"time"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// EscalationFilters narrows ListEscalations. Nil fields are ignored.
type EscalationFilters struct {
	MotherID *string
	CHWID    *string
	NurseID  *string
	Status   *domain.EscalationStatus
	Priority *domain.Priority

	// NurseOrPending scopes to rows bound to this nurse OR still pending and
	// unclaimed (the nurse queue view). Set by the service for nurse actors.
	NurseOrPending *string

	Limit int
}

// AppointmentFilters narrows ListAppointments. Nil fields are ignored.
type AppointmentFilters struct {
	MotherID       *string
	HealthWorkerID *string
	Status         *domain.AppointmentStatus
	From           *time.Time
	To             *time.Time

	Limit int
}

// now returns the store-side timestamp, truncated so it round-trips through
// postgres TIMESTAMPTZ and RFC3339 JSON unchanged. The OCC comparison depends
// on that round-trip being exact.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
