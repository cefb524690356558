// Package composer derives escalation drafts from check-in records. A draft is
// a suggestion only: it is never committed until a CHW explicitly confirms
// creation, keeping a human decision in the escalation path.
package composer

import (
	"fmt"
	"strings"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// Draft is a pre-filled escalation the CHW may confirm, amend, or discard.
type Draft struct {
	MotherID        string          `json:"mother_id"`
	MotherName      string          `json:"mother_name,omitempty"`
	SourceCheckInID string          `json:"source_checkin_id"`
	Priority        domain.Priority `json:"priority"`
	CaseDescription string          `json:"case_description"`
}

// Compose maps a check-in to an escalation draft. A not_ok response suggests
// high priority; anything else medium (used when a CHW escalates a nominally
// ok check-in over a concerning comment).
func Compose(c domain.CheckIn) Draft {
	d := Draft{
		MotherID:        c.MotherID,
		SourceCheckInID: c.ID,
		Priority:        domain.PriorityMedium,
	}
	if c.MotherName != nil {
		d.MotherName = *c.MotherName
	}
	if c.Response == domain.CheckInNotOK {
		d.Priority = domain.PriorityHigh
	}
	d.CaseDescription = describe(c)
	return d
}

func describe(c domain.CheckIn) string {
	if c.Comment != nil && strings.TrimSpace(*c.Comment) != "" {
		return fmt.Sprintf("Escalated from check-in: %s", strings.TrimSpace(*c.Comment))
	}
	response := "OK"
	if c.Response == domain.CheckInNotOK {
		response = "not OK"
	}
	return fmt.Sprintf("Mother reported %s on daily check-in at %s with no further comment",
		response, c.CreatedAt.Format("2006-01-02 15:04 MST"))
}
