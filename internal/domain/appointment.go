package domain

import "time"

// AppointmentStatus is the appointment workflow state.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// ValidAppointmentStatus reports whether s is a known status.
func ValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is valid.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

// RecurrenceRule is the stored repeat pattern. Regeneration of follow-up
// instances is owned by an external scheduling collaborator, not this core.
type RecurrenceRule string

const (
	RecurrenceNone     RecurrenceRule = "none"
	RecurrenceWeekly   RecurrenceRule = "weekly"
	RecurrenceBiweekly RecurrenceRule = "biweekly"
	RecurrenceMonthly  RecurrenceRule = "monthly"
)

// ValidRecurrenceRule reports whether r is a known rule.
func ValidRecurrenceRule(r RecurrenceRule) bool {
	switch r {
	case RecurrenceNone, RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Appointment is a scheduled visit between a mother and a health worker
// (appointments table). HealthWorkerID is a CHW or nurse profile ID.
type Appointment struct {
	ID string `db:"appointment_id" json:"id"`

	MotherID       string `db:"mother_id" json:"mother_id"`
	HealthWorkerID string `db:"health_worker_id" json:"health_worker_id"`

	ScheduledTime   time.Time      `db:"scheduled_time" json:"scheduled_time"`
	AppointmentType *string        `db:"appointment_type" json:"appointment_type,omitempty"`
	RecurrenceRule  RecurrenceRule `db:"recurrence_rule" json:"recurrence_rule"`
	RecurrenceEnd   *time.Time     `db:"recurrence_end" json:"recurrence_end,omitempty"`

	Status AppointmentStatus `db:"status" json:"status"`

	Escalated        bool    `db:"escalated" json:"escalated"`
	EscalationReason *string `db:"escalation_reason" json:"escalation_reason,omitempty"`
	Notes            *string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AppointmentPatch is a partial edit of the schedulable fields. Nil means
// leave unchanged.
type AppointmentPatch struct {
	ScheduledTime   *time.Time      `json:"scheduled_time,omitempty"`
	AppointmentType *string         `json:"appointment_type,omitempty"`
	RecurrenceRule  *RecurrenceRule `json:"recurrence_rule,omitempty"`
	RecurrenceEnd   *time.Time      `json:"recurrence_end,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p AppointmentPatch) Empty() bool {
	return p.ScheduledTime == nil && p.AppointmentType == nil &&
		p.RecurrenceRule == nil && p.RecurrenceEnd == nil && p.Notes == nil
}
