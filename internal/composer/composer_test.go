package composer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

func TestCompose_NotOKSuggestsHigh(t *testing.T) {
	comment := "Bleeding and dizziness"
	name := "Jane"
	c := domain.CheckIn{
		ID:         "chk-1",
		MotherID:   "mother-1",
		MotherName: &name,
		Response:   domain.CheckInNotOK,
		Comment:    &comment,
	}

	d := Compose(c)
	assert.Equal(t, "mother-1", d.MotherID)
	assert.Equal(t, "Jane", d.MotherName)
	assert.Equal(t, "chk-1", d.SourceCheckInID)
	assert.Equal(t, domain.PriorityHigh, d.Priority)
	assert.Equal(t, "Escalated from check-in: Bleeding and dizziness", d.CaseDescription)
}

func TestCompose_OKSuggestsMedium(t *testing.T) {
	comment := "A bit of swelling in the feet"
	c := domain.CheckIn{
		ID:       "chk-2",
		MotherID: "mother-1",
		Response: domain.CheckInOK,
		Comment:  &comment,
	}

	d := Compose(c)
	assert.Equal(t, domain.PriorityMedium, d.Priority,
		"an ok check-in escalated over its comment starts at medium")
	assert.Equal(t, "Escalated from check-in: A bit of swelling in the feet", d.CaseDescription)
}

func TestCompose_NoCommentFallsBackToTemplate(t *testing.T) {
	c := domain.CheckIn{
		ID:        "chk-3",
		MotherID:  "mother-1",
		Response:  domain.CheckInNotOK,
		CreatedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	d := Compose(c)
	assert.Equal(t, domain.PriorityHigh, d.Priority)
	assert.Contains(t, d.CaseDescription, "not OK")
	assert.Contains(t, d.CaseDescription, "2026-03-01 09:30")
}

func TestCompose_BlankCommentTreatedAsMissing(t *testing.T) {
	blank := "   "
	c := domain.CheckIn{
		ID:       "chk-4",
		MotherID: "mother-1",
		Response: domain.CheckInOK,
		Comment:  &blank,
	}

	d := Compose(c)
	assert.NotContains(t, d.CaseDescription, "Escalated from check-in")
	assert.Contains(t, d.CaseDescription, "reported OK")
}
