package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

// AssignmentService serves the roster read surface. Assignment writes are an
// administrative operation (the admin CLI), never an actor-facing one, so
// Reassign takes no actor.
type AssignmentService struct {
	assignments repository.AssignmentsRepository
	roster      *RosterCache
	logger      *zap.Logger
}

// NewAssignmentService creates the assignment service.
func NewAssignmentService(assignments repository.AssignmentsRepository, roster *RosterCache, logger *zap.Logger) *AssignmentService {
	return &AssignmentService{assignments: assignments, roster: roster, logger: logger}
}

// Reassign moves a mother to a new CHW, deactivating any prior assignment in
// the same transaction, and invalidates the visibility roster cache.
func (s *AssignmentService) Reassign(ctx context.Context, motherID, chwID string) (*domain.Assignment, error) {
	if motherID == "" {
		return nil, &domain.ValidationError{Field: "mother_id", Reason: "required"}
	}
	if chwID == "" {
		return nil, &domain.ValidationError{Field: "chw_id", Reason: "required"}
	}

	a, err := s.assignments.Reassign(ctx, motherID, chwID)
	if err != nil {
		return nil, err
	}
	s.roster.Invalidate()

	s.logger.Info("mother reassigned",
		zap.String("mother_id", motherID), zap.String("chw_id", chwID))
	return a, nil
}

// AssignedMothers returns the mothers on a CHW's active roster. A CHW reads
// only their own roster; a nurse reads any.
func (s *AssignmentService) AssignedMothers(ctx context.Context, actor domain.Actor, chwID string) ([]string, error) {
	switch actor.Role {
	case domain.RoleNurse:
	case domain.RoleCHW:
		if chwID != actor.ID {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.ErrForbidden
	}
	return s.assignments.AssignedMothers(ctx, chwID)
}

// ListActive returns every active assignment, filtered to what the actor may
// see. For a nurse this is the full roster; a CHW or mother sees only their
// own rows.
func (s *AssignmentService) ListActive(ctx context.Context, actor domain.Actor) ([]*domain.Assignment, error) {
	all, err := s.assignments.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]*domain.Assignment, 0, len(all))
	for _, a := range all {
		if policy.CanReadAssignment(actor, *a) {
			visible = append(visible, a)
		}
	}
	return visible, nil
}
