package domain

import "time"

// AssignmentStatus is the care-relationship state.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "active"
	AssignmentInactive AssignmentStatus = "inactive"
)

// Assignment binds a CHW to a mother (assignments table). A mother has at
// most one active assignment at any instant; reassignment deactivates the
// prior row atomically with activating the new one.
type Assignment struct {
	ID       string `db:"assignment_id" json:"id"`
	CHWID    string `db:"chw_id" json:"chw_id"`
	MotherID string `db:"mother_id" json:"mother_id"`

	Status AssignmentStatus `db:"status" json:"status"`

	AssignedAt    time.Time  `db:"assigned_at" json:"assigned_at"`
	DeactivatedAt *time.Time `db:"deactivated_at" json:"deactivated_at,omitempty"`
}
