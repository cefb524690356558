package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

var (
	testMother = domain.Actor{ID: "mother-1", Name: "Jane", Role: domain.RoleMother}
	testCHW    = domain.Actor{ID: "chw-1", Name: "Alice", Role: domain.RoleCHW}
	testNurse  = domain.Actor{ID: "nurse-1", Name: "Grace", Role: domain.RoleNurse}
)

type serviceFixture struct {
	escalations *repository.MemoryEscalationsRepository
	checkins    *repository.MemoryCheckInsRepository
	assignments *repository.MemoryAssignmentsRepository
	roster      *RosterCache
	escSvc      *EscalationService
	checkinSvc  *CheckInService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	logger := zap.NewNop()
	events := repository.NewMemoryEventLog()
	escalations := repository.NewMemoryEscalationsRepository(events)
	checkins := repository.NewMemoryCheckInsRepository(events)
	assignments := repository.NewMemoryAssignmentsRepository()

	_, err := assignments.Reassign(context.Background(), "mother-1", "chw-1")
	require.NoError(t, err)

	roster := NewRosterCache(assignments, time.Minute, logger)
	hub := dispatcher.NewHub(roster, 0, logger)
	d := dispatcher.New(nil, hub, logger)

	return &serviceFixture{
		escalations: escalations,
		checkins:    checkins,
		assignments: assignments,
		roster:      roster,
		escSvc:      NewEscalationService(escalations, checkins, roster, d, logger),
		checkinSvc:  NewCheckInService(checkins, roster, d, logger),
	}
}

func (f *serviceFixture) raise(t *testing.T) *domain.Escalation {
	t.Helper()
	e, err := f.escSvc.CreateEscalation(context.Background(), testCHW, CreateEscalationRequest{
		MotherID:        "mother-1",
		MotherName:      "Jane",
		CaseDescription: "Severe swelling in both feet",
		Priority:        "high",
	})
	require.NoError(t, err)
	return e
}

func TestCreateEscalation_CHWOnRoster(t *testing.T) {
	f := newServiceFixture(t)

	e := f.raise(t)
	assert.Equal(t, domain.EscalationPending, e.Status)
	assert.Equal(t, "chw-1", e.CHWID)
	assert.Equal(t, domain.PriorityHigh, e.Priority)
	assert.NotEmpty(t, e.ID)
}

func TestCreateEscalation_OnlyCHWMayRaise(t *testing.T) {
	f := newServiceFixture(t)

	for _, actor := range []domain.Actor{testMother, testNurse} {
		_, err := f.escSvc.CreateEscalation(context.Background(), actor, CreateEscalationRequest{
			MotherID:        "mother-1",
			CaseDescription: "Severe swelling",
		})
		assert.ErrorIs(t, err, domain.ErrForbidden, "role %s", actor.Role)
	}
}

func TestCreateEscalation_OffRosterCHWForbidden(t *testing.T) {
	f := newServiceFixture(t)

	stranger := domain.Actor{ID: "chw-2", Name: "Beth", Role: domain.RoleCHW}
	_, err := f.escSvc.CreateEscalation(context.Background(), stranger, CreateEscalationRequest{
		MotherID:        "mother-1",
		CaseDescription: "Severe swelling",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateEscalation_PriorityDefaultsToMedium(t *testing.T) {
	f := newServiceFixture(t)

	e, err := f.escSvc.CreateEscalation(context.Background(), testCHW, CreateEscalationRequest{
		MotherID:        "mother-1",
		CaseDescription: "Mild dizziness in the mornings",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, e.Priority)
}

func TestCreateEscalation_MissingDescriptionRejected(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.escSvc.CreateEscalation(context.Background(), testCHW, CreateEscalationRequest{
		MotherID: "mother-1",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "case_description", verr.Field)
}

func TestUpdateEscalationStatus_NurseClaimBindsCase(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	updated, err := f.escSvc.UpdateEscalationStatus(context.Background(), testNurse, e.ID, UpdateStatusRequest{
		Status:    string(domain.EscalationInProgress),
		UpdatedAt: e.UpdatedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EscalationInProgress, updated.Status)
	require.NotNil(t, updated.NurseID)
	assert.Equal(t, "nurse-1", *updated.NurseID)
}

func TestUpdateEscalationStatus_MotherCannotAdvanceOwnCase(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	_, err := f.escSvc.UpdateEscalationStatus(context.Background(), testMother, e.ID, UpdateStatusRequest{
		Status:    string(domain.EscalationInProgress),
		UpdatedAt: e.UpdatedAt,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateEscalationStatus_OtherNurseLockedOutOfBoundCase(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	claimed, err := f.escSvc.UpdateEscalationStatus(context.Background(), testNurse, e.ID, UpdateStatusRequest{
		Status:    string(domain.EscalationInProgress),
		UpdatedAt: e.UpdatedAt,
	})
	require.NoError(t, err)

	rival := domain.Actor{ID: "nurse-2", Name: "Helen", Role: domain.RoleNurse}
	_, err = f.escSvc.UpdateEscalationStatus(context.Background(), rival, e.ID, UpdateStatusRequest{
		Status:    string(domain.EscalationResolved),
		UpdatedAt: claimed.UpdatedAt,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateEscalationStatus_StaleBaseConflicts(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	_, err := f.escSvc.UpdateEscalationStatus(context.Background(), testNurse, e.ID, UpdateStatusRequest{
		Status:    string(domain.EscalationInProgress),
		UpdatedAt: e.UpdatedAt,
	})
	require.NoError(t, err)

	_, err = f.escSvc.UpdateEscalationStatus(context.Background(), testNurse, e.ID, UpdateStatusRequest{
		Status:    string(domain.EscalationResolved),
		UpdatedAt: e.UpdatedAt, // base predates the claim
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdateEscalationFields_CreatingCHWPatchesPriority(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	low := domain.PriorityLow
	updated, err := f.escSvc.UpdateEscalationFields(context.Background(), testCHW, e.ID, UpdateFieldsRequest{
		Patch:     domain.EscalationPatch{Priority: &low},
		UpdatedAt: e.UpdatedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityLow, updated.Priority)
}

func TestUpdateEscalationFields_NurseForbidden(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	low := domain.PriorityLow
	_, err := f.escSvc.UpdateEscalationFields(context.Background(), testNurse, e.ID, UpdateFieldsRequest{
		Patch:     domain.EscalationPatch{Priority: &low},
		UpdatedAt: e.UpdatedAt,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAppendEscalationNotes_ActingNurse(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	claimed, err := f.escSvc.UpdateEscalationStatus(context.Background(), testNurse, e.ID, UpdateStatusRequest{
		Status:    string(domain.EscalationInProgress),
		UpdatedAt: e.UpdatedAt,
	})
	require.NoError(t, err)

	updated, err := f.escSvc.AppendEscalationNotes(context.Background(), testNurse, e.ID, AppendNotesRequest{
		Notes:     "Advised immediate clinic visit",
		UpdatedAt: claimed.UpdatedAt,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Contains(t, *updated.Notes, "Advised immediate clinic visit")
}

func TestAppendEscalationNotes_CHWForbidden(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	_, err := f.escSvc.AppendEscalationNotes(context.Background(), testCHW, e.ID, AppendNotesRequest{
		Notes:     "Follow-up scheduled",
		UpdatedAt: e.UpdatedAt,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteEscalation_OnlyCreatingCHW(t *testing.T) {
	f := newServiceFixture(t)
	e := f.raise(t)

	err := f.escSvc.DeleteEscalation(context.Background(), testNurse, e.ID, e.UpdatedAt)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.escSvc.DeleteEscalation(context.Background(), testCHW, e.ID, e.UpdatedAt)
	require.NoError(t, err)

	_, err = f.escSvc.GetEscalation(context.Background(), testCHW, e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListEscalations_RoleScopes(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.assignments.Reassign(context.Background(), "mother-2", "chw-2")
	require.NoError(t, err)
	f.roster.Invalidate()

	f.raise(t)
	other := domain.Actor{ID: "chw-2", Name: "Beth", Role: domain.RoleCHW}
	_, err = f.escSvc.CreateEscalation(context.Background(), other, CreateEscalationRequest{
		MotherID:        "mother-2",
		CaseDescription: "Bleeding reported",
		Priority:        "high",
	})
	require.NoError(t, err)

	mine, err := f.escSvc.ListEscalations(context.Background(), testCHW, ListEscalationsRequest{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mother-1", mine[0].MotherID)

	hers, err := f.escSvc.ListEscalations(context.Background(), testMother, ListEscalationsRequest{})
	require.NoError(t, err)
	require.Len(t, hers, 1)
	assert.Equal(t, "mother-1", hers[0].MotherID)

	// Both cases are unclaimed, so the whole pending queue is the nurse view.
	queue, err := f.escSvc.ListEscalations(context.Background(), testNurse, ListEscalationsRequest{})
	require.NoError(t, err)
	assert.Len(t, queue, 2)
}

func TestComposeDraft_FromNotOKCheckIn(t *testing.T) {
	f := newServiceFixture(t)

	comment := "Severe headache since last night"
	c, err := f.checkinSvc.CreateCheckIn(context.Background(), testMother, CreateCheckInRequest{
		Response: string(domain.CheckInNotOK),
		Comment:  &comment,
	})
	require.NoError(t, err)

	draft, err := f.escSvc.ComposeDraft(context.Background(), testCHW, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "mother-1", draft.MotherID)
	assert.Equal(t, domain.PriorityHigh, draft.Priority)
	assert.Contains(t, draft.CaseDescription, comment)
}

func TestComposeDraft_OffRosterCHWForbidden(t *testing.T) {
	f := newServiceFixture(t)

	c, err := f.checkinSvc.CreateCheckIn(context.Background(), testMother, CreateCheckInRequest{
		Response: string(domain.CheckInOK),
	})
	require.NoError(t, err)

	stranger := domain.Actor{ID: "chw-2", Name: "Beth", Role: domain.RoleCHW}
	_, err = f.escSvc.ComposeDraft(context.Background(), stranger, c.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
