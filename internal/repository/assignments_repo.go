package repository

import (
	"context"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// AssignmentsRepository stores the CHW-mother care relationships. At most one
// active assignment exists per mother; Reassign deactivates the prior row and
// activates the new one in a single transaction.
type AssignmentsRepository interface {
	Reassign(ctx context.Context, motherID, chwID string) (*domain.Assignment, error)

	// ActiveCHW returns the CHW currently assigned to the mother, or
	// domain.ErrNotFound when none is active.
	ActiveCHW(ctx context.Context, motherID string) (string, error)

	// AssignedMothers returns the mothers under active assignment to the CHW.
	AssignedMothers(ctx context.Context, chwID string) ([]string, error)

	// ListActive returns every active assignment (the nurse roster view).
	ListActive(ctx context.Context) ([]*domain.Assignment, error)
}
