package recon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

func escEvent(t *testing.T, seq int64, typ domain.EventType, id string, status domain.EscalationStatus, updatedAt time.Time) *domain.Event {
	t.Helper()
	ev, err := domain.NewEvent(typ, domain.KindEscalation, id, domain.Escalation{
		ID:     id,
		Status: status,
	}, updatedAt)
	require.NoError(t, err)
	ev.Seq = seq
	return ev
}

func TestApply_CreateThenUpdate(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, s.Apply(escEvent(t, 1, domain.EventCreated, "esc-1", domain.EscalationPending, t0)))
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Apply(escEvent(t, 2, domain.EventUpdated, "esc-1", domain.EscalationInProgress, t0.Add(time.Minute))))
	assert.Equal(t, 1, s.Len(), "update replaces in place, never duplicates")

	held, ok := s.Get(domain.KindEscalation, "esc-1")
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Minute), held.UpdatedAt)
	assert.Equal(t, int64(2), s.Cursor())
}

func TestApply_DuplicateDeliveryIsNoOp(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ev := escEvent(t, 1, domain.EventCreated, "esc-1", domain.EscalationPending, t0)
	assert.True(t, s.Apply(ev))

	// The same change arriving again over the polling surface changes nothing.
	assert.False(t, s.Apply(ev))
	assert.Equal(t, 1, s.Len())
}

func TestApply_StaleEventIgnored(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, s.Apply(escEvent(t, 2, domain.EventUpdated, "esc-1", domain.EscalationInProgress, t0.Add(time.Minute))))

	// The older create arrives late (push/poll race): updated_at is not
	// newer, so the fresher snapshot wins.
	assert.False(t, s.Apply(escEvent(t, 1, domain.EventCreated, "esc-1", domain.EscalationPending, t0)))

	held, ok := s.Get(domain.KindEscalation, "esc-1")
	require.True(t, ok)
	assert.Equal(t, t0.Add(time.Minute), held.UpdatedAt)
}

func TestApply_Delete(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Apply(escEvent(t, 1, domain.EventCreated, "esc-1", domain.EscalationPending, t0))
	assert.True(t, s.Apply(escEvent(t, 2, domain.EventDeleted, "esc-1", domain.EscalationPending, t0)))
	assert.Equal(t, 0, s.Len())

	// Redelivered delete is a no-op.
	assert.False(t, s.Apply(escEvent(t, 2, domain.EventDeleted, "esc-1", domain.EscalationPending, t0)))
}

func TestCursor_AdvancesPastFilteredEvents(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Even a stale or duplicate event advances the cursor, so polling never
	// refetches the same page.
	ev := escEvent(t, 7, domain.EventCreated, "esc-1", domain.EscalationPending, t0)
	s.Apply(ev)
	s.Apply(ev)
	assert.Equal(t, int64(7), s.Cursor())
}

func TestSnapshot_FiltersByKind(t *testing.T) {
	s := NewStore()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Apply(escEvent(t, 1, domain.EventCreated, "esc-1", domain.EscalationPending, t0))

	aev, err := domain.NewEvent(domain.EventCreated, domain.KindAppointment, "appt-1",
		domain.Appointment{ID: "appt-1"}, t0)
	require.NoError(t, err)
	aev.Seq = 2
	s.Apply(aev)

	assert.Len(t, s.Snapshot(domain.KindEscalation), 1)
	assert.Len(t, s.Snapshot(domain.KindAppointment), 1)
	assert.Equal(t, 2, s.Len())
}
