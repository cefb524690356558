package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

func TestReassign_SingleActivePerMother(t *testing.T) {
	repo := NewMemoryAssignmentsRepository()
	ctx := context.Background()

	first, err := repo.Reassign(ctx, "mother-1", "chw-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AssignmentActive, first.Status)

	second, err := repo.Reassign(ctx, "mother-1", "chw-2")
	require.NoError(t, err)

	chwID, err := repo.ActiveCHW(ctx, "mother-1")
	require.NoError(t, err)
	assert.Equal(t, "chw-2", chwID)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1, "reassignment leaves exactly one active row")
	assert.Equal(t, second.ID, active[0].ID)
}

func TestActiveCHW_NoneActive(t *testing.T) {
	repo := NewMemoryAssignmentsRepository()
	_, err := repo.ActiveCHW(context.Background(), "mother-unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignedMothers(t *testing.T) {
	repo := NewMemoryAssignmentsRepository()
	ctx := context.Background()

	_, err := repo.Reassign(ctx, "mother-1", "chw-1")
	require.NoError(t, err)
	_, err = repo.Reassign(ctx, "mother-2", "chw-1")
	require.NoError(t, err)
	_, err = repo.Reassign(ctx, "mother-3", "chw-2")
	require.NoError(t, err)

	mothers, err := repo.AssignedMothers(ctx, "chw-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"mother-1", "mother-2"}, mothers)

	// mother-2 moves away: chw-1's roster shrinks.
	_, err = repo.Reassign(ctx, "mother-2", "chw-2")
	require.NoError(t, err)
	mothers, err = repo.AssignedMothers(ctx, "chw-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"mother-1"}, mothers)
}
