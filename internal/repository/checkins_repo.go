package repository

import (
	"context"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// CheckInsRepository stores check-ins. Rows are immutable once created and
// never transition; creation appends a sync event like any other write.
type CheckInsRepository interface {
	CreateCheckIn(ctx context.Context, c *domain.CheckIn) (*domain.Event, error)

	GetCheckIn(ctx context.Context, id string) (*domain.CheckIn, error)

	// ListCheckInsForMother returns a mother's check-ins, newest first.
	ListCheckInsForMother(ctx context.Context, motherID string, limit int) ([]*domain.CheckIn, error)

	// LatestCheckInForMother returns the most recent check-in, or
	// domain.ErrNotFound when the mother has none.
	LatestCheckInForMother(ctx context.Context, motherID string) (*domain.CheckIn, error)

	// ListCheckInsForMothers returns recent check-ins across a set of mothers
	// (the CHW dashboard view), newest first.
	ListCheckInsForMothers(ctx context.Context, motherIDs []string, limit int) ([]*domain.CheckIn, error)
}
