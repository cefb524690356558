package policy

import (
	"encoding/json"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// RosterView is an immutable snapshot of the active CHW-mother assignment set,
// supplied by the caller so visibility stays a pure function of
// (role, ownership, assignment).
type RosterView interface {
	// ActiveCHW returns the CHW currently assigned to a mother, if any.
	ActiveCHW(motherID string) (string, bool)
	// AssignedMothers returns the mothers under active assignment to a CHW.
	AssignedMothers(chwID string) []string
}

// EmptyRoster is a RosterView with no active assignments.
type EmptyRoster struct{}

func (EmptyRoster) ActiveCHW(string) (string, bool)  { return "", false }
func (EmptyRoster) AssignedMothers(string) []string  { return nil }

// CanReadEscalation applies §visibility for escalation reads: the mother it
// concerns, the CHW who raised it, the nurse it is bound to, and any nurse
// while it sits in the unclaimed pending queue.
func CanReadEscalation(actor domain.Actor, e domain.Escalation) bool {
	switch actor.Role {
	case domain.RoleMother:
		return e.MotherID == actor.ID
	case domain.RoleCHW:
		return e.CHWID == actor.ID
	case domain.RoleNurse:
		if e.NurseID != nil && *e.NurseID == actor.ID {
			return true
		}
		return e.Status == domain.EscalationPending
	}
	return false
}

// CanWriteEscalation mirrors CanReadEscalation for mutation attempts. Which
// mutation is then legal for the role is decided by the transition rules; a
// false here must surface as forbidden, never as a silent no-op.
func CanWriteEscalation(actor domain.Actor, e domain.Escalation) bool {
	return CanReadEscalation(actor, e)
}

// CanReadAppointment: the mother, or the assigned health worker.
func CanReadAppointment(actor domain.Actor, a domain.Appointment) bool {
	switch actor.Role {
	case domain.RoleMother:
		return a.MotherID == actor.ID
	case domain.RoleCHW, domain.RoleNurse:
		return a.HealthWorkerID == actor.ID
	}
	return false
}

// CanWriteAppointment mirrors CanReadAppointment.
func CanWriteAppointment(actor domain.Actor, a domain.Appointment) bool {
	return CanReadAppointment(actor, a)
}

// CanReadCheckIn: the mother herself, or a CHW holding an active assignment
// for the mother at evaluation time.
func CanReadCheckIn(actor domain.Actor, c domain.CheckIn, roster RosterView) bool {
	switch actor.Role {
	case domain.RoleMother:
		return c.MotherID == actor.ID
	case domain.RoleCHW:
		chwID, ok := roster.ActiveCHW(c.MotherID)
		return ok && chwID == actor.ID
	}
	return false
}

// CanReadAssignment: nurses read assignment rows to build the roster view;
// a CHW reads their own rows. Assignment writes are not an actor-facing
// operation at all.
func CanReadAssignment(actor domain.Actor, a domain.Assignment) bool {
	switch actor.Role {
	case domain.RoleNurse:
		return true
	case domain.RoleCHW:
		return a.CHWID == actor.ID
	case domain.RoleMother:
		return a.MotherID == actor.ID
	}
	return false
}

// CanReadEvent decides whether a sync event may be delivered to a subscriber.
// The entity snapshot embedded in the event is judged exactly as a direct read
// of the entity would be, so an actor never receives an event for a record
// they could not fetch themselves.
func CanReadEvent(actor domain.Actor, ev domain.Event, roster RosterView) bool {
	switch ev.EntityKind {
	case domain.KindEscalation:
		var e domain.Escalation
		if err := json.Unmarshal(ev.Entity, &e); err != nil {
			return false
		}
		return CanReadEscalation(actor, e)
	case domain.KindAppointment:
		var a domain.Appointment
		if err := json.Unmarshal(ev.Entity, &a); err != nil {
			return false
		}
		return CanReadAppointment(actor, a)
	case domain.KindCheckIn:
		var c domain.CheckIn
		if err := json.Unmarshal(ev.Entity, &c); err != nil {
			return false
		}
		return CanReadCheckIn(actor, c, roster)
	}
	return false
}
