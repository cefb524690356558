package repository

import (
	"context"
	"time"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// EscalationsRepository is the authoritative store for escalations.
//
// Store-side invariants (enforced here, not only in callers):
//   - status transitions must be legal for the current state
//   - field edits and deletes are rejected once the mutability window from
//     created_at has closed
//   - every update checks the caller's base updated_at and fails with
//     domain.ErrConflict when stale
//   - each committed write appends exactly one sync event in the same
//     transaction; the returned event carries the assigned seq
type EscalationsRepository interface {
	CreateEscalation(ctx context.Context, e *domain.Escalation) (*domain.Event, error)

	GetEscalation(ctx context.Context, id string) (*domain.Escalation, error)

	ListEscalations(ctx context.Context, filters EscalationFilters) ([]*domain.Escalation, error)

	// UpdateEscalationStatus moves status. When the row is unclaimed
	// (nurse_id IS NULL) the acting nurse is bound to it atomically with the
	// move. A non-nil notes amends the notes field in the same write.
	UpdateEscalationStatus(ctx context.Context, id string, base time.Time, requested domain.EscalationStatus, actor domain.Actor, notes *string) (*domain.Escalation, *domain.Event, error)

	// UpdateEscalationFields patches the CHW-owned fields, subject to the
	// mutability window.
	UpdateEscalationFields(ctx context.Context, id string, base time.Time, patch domain.EscalationPatch) (*domain.Escalation, *domain.Event, error)

	// AppendEscalationNotes amends notes only. Exempt from the mutability
	// window so the nurse audit trail stays appendable.
	AppendEscalationNotes(ctx context.Context, id string, base time.Time, notes string) (*domain.Escalation, *domain.Event, error)

	// DeleteEscalation hard-deletes, subject to the mutability window. After
	// the window the delete is rejected with domain.ErrWindowExpired, never
	// silently ignored.
	DeleteEscalation(ctx context.Context, id string, base time.Time) (*domain.Event, error)
}
