package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

func TestCheckEscalationTransition_LegalMoves(t *testing.T) {
	legal := []struct {
		from, to domain.EscalationStatus
	}{
		{domain.EscalationPending, domain.EscalationInProgress},
		{domain.EscalationPending, domain.EscalationResolved},
		{domain.EscalationPending, domain.EscalationRejected},
		{domain.EscalationInProgress, domain.EscalationResolved},
		{domain.EscalationInProgress, domain.EscalationRejected},
	}
	for _, tc := range legal {
		assert.NoError(t, CheckEscalationTransition(tc.from, tc.to),
			"%s -> %s should be legal", tc.from, tc.to)
	}
}

func TestCheckEscalationTransition_TerminalStatesAbsorb(t *testing.T) {
	for _, terminal := range []domain.EscalationStatus{domain.EscalationResolved, domain.EscalationRejected} {
		for _, to := range []domain.EscalationStatus{
			domain.EscalationPending, domain.EscalationInProgress,
			domain.EscalationResolved, domain.EscalationRejected,
		} {
			err := CheckEscalationTransition(terminal, to)
			require.Error(t, err, "%s -> %s must be rejected", terminal, to)
			assert.True(t, domain.IsInvalidTransition(err))
		}
	}
}

func TestCheckEscalationTransition_NoBackwardMoves(t *testing.T) {
	err := CheckEscalationTransition(domain.EscalationInProgress, domain.EscalationPending)
	require.Error(t, err)

	var ite *domain.InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	assert.Equal(t, domain.KindEscalation, ite.Kind)
	assert.Equal(t, "in_progress", ite.Current)
	assert.Equal(t, "pending", ite.Requested)
}

func TestCheckAppointmentTransition(t *testing.T) {
	assert.NoError(t, CheckAppointmentTransition(domain.AppointmentScheduled, domain.AppointmentCompleted))
	assert.NoError(t, CheckAppointmentTransition(domain.AppointmentScheduled, domain.AppointmentCancelled))

	// completed and cancelled absorb
	assert.Error(t, CheckAppointmentTransition(domain.AppointmentCompleted, domain.AppointmentScheduled))
	assert.Error(t, CheckAppointmentTransition(domain.AppointmentCompleted, domain.AppointmentCancelled))
	assert.Error(t, CheckAppointmentTransition(domain.AppointmentCancelled, domain.AppointmentCompleted))

	// self-moves are not transitions
	assert.Error(t, CheckAppointmentTransition(domain.AppointmentScheduled, domain.AppointmentScheduled))
}

func TestCanAdvanceEscalation(t *testing.T) {
	nurse := domain.Actor{ID: "nurse-1", Role: domain.RoleNurse}
	otherNurse := domain.Actor{ID: "nurse-2", Role: domain.RoleNurse}
	chw := domain.Actor{ID: "chw-1", Role: domain.RoleCHW}

	unclaimed := domain.Escalation{Status: domain.EscalationPending}
	assert.True(t, CanAdvanceEscalation(nurse, unclaimed), "any nurse may claim a pending case")
	assert.False(t, CanAdvanceEscalation(chw, unclaimed), "CHW never advances status")

	nurseID := "nurse-1"
	claimed := domain.Escalation{Status: domain.EscalationInProgress, NurseID: &nurseID}
	assert.True(t, CanAdvanceEscalation(nurse, claimed))
	assert.False(t, CanAdvanceEscalation(otherNurse, claimed), "only the bound nurse advances a claimed case")
}

func TestCanAdvanceAppointment(t *testing.T) {
	chw := domain.Actor{ID: "chw-1", Role: domain.RoleCHW}
	mother := domain.Actor{ID: "mother-1", Role: domain.RoleMother}

	a := domain.Appointment{MotherID: "mother-1", HealthWorkerID: "chw-1"}
	assert.True(t, CanAdvanceAppointment(chw, a))
	assert.False(t, CanAdvanceAppointment(mother, a), "the mother never completes or cancels")
	assert.False(t, CanAdvanceAppointment(domain.Actor{ID: "chw-2", Role: domain.RoleCHW}, a))
}

func TestCanEditEscalationFields(t *testing.T) {
	e := domain.Escalation{CHWID: "chw-1", Status: domain.EscalationPending}
	assert.True(t, CanEditEscalationFields(domain.Actor{ID: "chw-1", Role: domain.RoleCHW}, e))
	assert.False(t, CanEditEscalationFields(domain.Actor{ID: "chw-2", Role: domain.RoleCHW}, e))
	assert.False(t, CanEditEscalationFields(domain.Actor{ID: "nurse-1", Role: domain.RoleNurse}, e))
}

func TestCanAppendEscalationNotes(t *testing.T) {
	nurseID := "nurse-1"
	e := domain.Escalation{Status: domain.EscalationInProgress, NurseID: &nurseID}
	assert.True(t, CanAppendEscalationNotes(domain.Actor{ID: "nurse-1", Role: domain.RoleNurse}, e))
	assert.False(t, CanAppendEscalationNotes(domain.Actor{ID: "nurse-2", Role: domain.RoleNurse}, e))
	assert.False(t, CanAppendEscalationNotes(domain.Actor{ID: "chw-1", Role: domain.RoleCHW}, e))

	pending := domain.Escalation{Status: domain.EscalationPending}
	assert.True(t, CanAppendEscalationNotes(domain.Actor{ID: "nurse-2", Role: domain.RoleNurse}, pending))
}

func TestPriorityEditable(t *testing.T) {
	assert.True(t, PriorityEditable(domain.EscalationPending))
	assert.True(t, PriorityEditable(domain.EscalationInProgress))
	assert.False(t, PriorityEditable(domain.EscalationResolved))
	assert.False(t, PriorityEditable(domain.EscalationRejected))
}
