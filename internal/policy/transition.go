// Package policy holds the pure decision functions of the coordination core:
// status transition legality, the mutability window, and role visibility.
// Nothing in this package performs I/O; callers supply every fact needed.
package policy

import (
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// escalationTransitions lists every legal forward move. resolved and rejected
// are absorbing.
var escalationTransitions = map[domain.EscalationStatus][]domain.EscalationStatus{
	domain.EscalationPending:    {domain.EscalationInProgress, domain.EscalationResolved, domain.EscalationRejected},
	domain.EscalationInProgress: {domain.EscalationResolved, domain.EscalationRejected},
	domain.EscalationResolved:   {},
	domain.EscalationRejected:   {},
}

// appointmentTransitions: completed and cancelled are absorbing.
var appointmentTransitions = map[domain.AppointmentStatus][]domain.AppointmentStatus{
	domain.AppointmentScheduled: {domain.AppointmentCompleted, domain.AppointmentCancelled},
	domain.AppointmentCompleted: {},
	domain.AppointmentCancelled: {},
}

// CheckEscalationTransition validates a requested escalation status move.
func CheckEscalationTransition(current, requested domain.EscalationStatus) error {
	for _, next := range escalationTransitions[current] {
		if next == requested {
			return nil
		}
	}
	return &domain.InvalidTransitionError{
		Kind:      domain.KindEscalation,
		Current:   string(current),
		Requested: string(requested),
	}
}

// CheckAppointmentTransition validates a requested appointment status move.
func CheckAppointmentTransition(current, requested domain.AppointmentStatus) error {
	for _, next := range appointmentTransitions[current] {
		if next == requested {
			return nil
		}
	}
	return &domain.InvalidTransitionError{
		Kind:      domain.KindAppointment,
		Current:   string(current),
		Requested: string(requested),
	}
}

// CanAdvanceEscalation decides whether the actor may move this escalation's
// status at all. Only the nurse bound to nurse_id may advance it; while the
// case is pending and unclaimed, any nurse may claim it (binding nurse_id
// atomically with the move).
func CanAdvanceEscalation(actor domain.Actor, e domain.Escalation) bool {
	if actor.Role != domain.RoleNurse {
		return false
	}
	if e.NurseID == nil {
		return e.Status == domain.EscalationPending
	}
	return *e.NurseID == actor.ID
}

// CanAdvanceAppointment decides whether the actor may move this appointment's
// status. Only the assigned health worker (CHW or nurse) completes or cancels
// a visit.
func CanAdvanceAppointment(actor domain.Actor, a domain.Appointment) bool {
	if actor.Role != domain.RoleCHW && actor.Role != domain.RoleNurse {
		return false
	}
	return a.HealthWorkerID == actor.ID
}

// CanEditEscalationFields decides whether the actor may patch the CHW-owned
// fields (priority, issue_type, case_description). Restricted to the creating
// CHW; nurses amend via notes instead so the audit trail survives the window.
func CanEditEscalationFields(actor domain.Actor, e domain.Escalation) bool {
	return actor.Role == domain.RoleCHW && e.CHWID == actor.ID
}

// CanAppendEscalationNotes decides whether the actor may append to notes.
// Allowed for the acting nurse at any time, window or not.
func CanAppendEscalationNotes(actor domain.Actor, e domain.Escalation) bool {
	if actor.Role != domain.RoleNurse {
		return false
	}
	if e.NurseID == nil {
		return e.Status == domain.EscalationPending
	}
	return *e.NurseID == actor.ID
}

// PriorityEditable reports whether priority (and issue_type) edits are still
// meaningful for this status: only pending and in_progress cases accept them.
func PriorityEditable(s domain.EscalationStatus) bool {
	return s == domain.EscalationPending || s == domain.EscalationInProgress
}
