package domain

import "time"

// EscalationStatus is the escalation workflow state.
type EscalationStatus string

const (
	EscalationPending    EscalationStatus = "pending"
	EscalationInProgress EscalationStatus = "in_progress"
	EscalationResolved   EscalationStatus = "resolved"
	EscalationRejected   EscalationStatus = "rejected"
)

// ValidEscalationStatus reports whether s is a known status.
func ValidEscalationStatus(s EscalationStatus) bool {
	switch s {
	case EscalationPending, EscalationInProgress, EscalationResolved, EscalationRejected:
		return true
	}
	return false
}

// Terminal reports whether no further status transition is valid.
func (s EscalationStatus) Terminal() bool {
	return s == EscalationResolved || s == EscalationRejected
}

// Priority is the clinical urgency of an escalation.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Escalation is a clinical concern raised about one mother, routed from a CHW
// to a nurse (escalations table).
type Escalation struct {
	ID string `db:"escalation_id" json:"id"`

	MotherID   string `db:"mother_id" json:"mother_id"`
	MotherName string `db:"mother_name" json:"mother_name,omitempty"`
	CHWID      string `db:"chw_id" json:"chw_id"`
	CHWName    string `db:"chw_name" json:"chw_name,omitempty"`

	// NurseID stays nil while the case sits in the unclaimed pending queue.
	NurseID   *string `db:"nurse_id" json:"nurse_id,omitempty"`
	NurseName *string `db:"nurse_name" json:"nurse_name,omitempty"`

	IssueType       *string          `db:"issue_type" json:"issue_type,omitempty"`
	CaseDescription string           `db:"case_description" json:"case_description"`
	Priority        Priority         `db:"priority" json:"priority"`
	Status          EscalationStatus `db:"status" json:"status"`
	Notes           *string          `db:"notes" json:"notes,omitempty"`

	// SourceCheckInID links an escalation composed from a check-in back to it.
	SourceCheckInID *string `db:"source_checkin_id" json:"source_checkin_id,omitempty"`

	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// EscalationPatch is a partial edit of the CHW-owned fields. Nil means leave
// unchanged. Status and notes are not patchable here: status moves through the
// transition path, notes through the nurse append path.
type EscalationPatch struct {
	Priority        *Priority `json:"priority,omitempty"`
	IssueType       *string   `json:"issue_type,omitempty"`
	CaseDescription *string   `json:"case_description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p EscalationPatch) Empty() bool {
	return p.Priority == nil && p.IssueType == nil && p.CaseDescription == nil
}
