package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// MemoryAssignmentsRepository is the in-memory AssignmentsRepository for dev
// mode and tests. The single mutex makes Reassign atomic.
type MemoryAssignmentsRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.Assignment
}

// NewMemoryAssignmentsRepository creates an empty repository.
func NewMemoryAssignmentsRepository() *MemoryAssignmentsRepository {
	return &MemoryAssignmentsRepository{rows: map[string]*domain.Assignment{}}
}

var _ AssignmentsRepository = (*MemoryAssignmentsRepository)(nil)

// Reassign deactivates the mother's active assignment and activates the new
// one atomically.
func (r *MemoryAssignmentsRepository) Reassign(ctx context.Context, motherID, chwID string) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := now()
	for _, a := range r.rows {
		if a.MotherID == motherID && a.Status == domain.AssignmentActive {
			a.Status = domain.AssignmentInactive
			deactivated := ts
			a.DeactivatedAt = &deactivated
		}
	}

	a := &domain.Assignment{
		ID:         uuid.NewString(),
		CHWID:      chwID,
		MotherID:   motherID,
		Status:     domain.AssignmentActive,
		AssignedAt: ts,
	}
	r.rows[a.ID] = a
	cp := *a
	return &cp, nil
}

// ActiveCHW returns the CHW under the mother's single active assignment.
func (r *MemoryAssignmentsRepository) ActiveCHW(ctx context.Context, motherID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.MotherID == motherID && a.Status == domain.AssignmentActive {
			return a.CHWID, nil
		}
	}
	return "", domain.ErrNotFound
}

// AssignedMothers returns mothers under active assignment to the CHW.
func (r *MemoryAssignmentsRepository) AssignedMothers(ctx context.Context, chwID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.rows {
		if a.CHWID == chwID && a.Status == domain.AssignmentActive {
			out = append(out, a.MotherID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListActive returns every active assignment.
func (r *MemoryAssignmentsRepository) ListActive(ctx context.Context) ([]*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Assignment
	for _, a := range r.rows {
		if a.Status == domain.AssignmentActive {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out, nil
}
