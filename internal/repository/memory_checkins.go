package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// MemoryCheckInsRepository is the in-memory CheckInsRepository for dev mode
// and tests.
type MemoryCheckInsRepository struct {
	mu     sync.Mutex
	rows   map[string]*domain.CheckIn
	events *MemoryEventLog
}

// NewMemoryCheckInsRepository creates the repository over a shared event log.
func NewMemoryCheckInsRepository(events *MemoryEventLog) *MemoryCheckInsRepository {
	return &MemoryCheckInsRepository{
		rows:   map[string]*domain.CheckIn{},
		events: events,
	}
}

var _ CheckInsRepository = (*MemoryCheckInsRepository)(nil)

func cloneCheckIn(c *domain.CheckIn) *domain.CheckIn {
	cp := *c
	return &cp
}

// CreateCheckIn stores the row and appends its event.
func (r *MemoryCheckInsRepository) CreateCheckIn(ctx context.Context, c *domain.CheckIn) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Channel == "" {
		c.Channel = domain.ChannelApp
	}
	c.CreatedAt = now()
	r.rows[c.ID] = cloneCheckIn(c)

	ev, err := domain.NewEvent(domain.EventCreated, domain.KindCheckIn, c.ID, c, c.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.events.Append(ev)
	return ev, nil
}

// GetCheckIn fetches one row.
func (r *MemoryCheckInsRepository) GetCheckIn(ctx context.Context, id string) (*domain.CheckIn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCheckIn(c), nil
}

// ListCheckInsForMother returns a mother's check-ins, newest first.
func (r *MemoryCheckInsRepository) ListCheckInsForMother(ctx context.Context, motherID string, limit int) ([]*domain.CheckIn, error) {
	return r.list(func(c *domain.CheckIn) bool { return c.MotherID == motherID }, limit, 30)
}

// LatestCheckInForMother returns the single most recent check-in.
func (r *MemoryCheckInsRepository) LatestCheckInForMother(ctx context.Context, motherID string) (*domain.CheckIn, error) {
	rows, err := r.ListCheckInsForMother(ctx, motherID, 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return rows[0], nil
}

// ListCheckInsForMothers returns recent check-ins across the mothers, newest first.
func (r *MemoryCheckInsRepository) ListCheckInsForMothers(ctx context.Context, motherIDs []string, limit int) ([]*domain.CheckIn, error) {
	set := map[string]bool{}
	for _, id := range motherIDs {
		set[id] = true
	}
	return r.list(func(c *domain.CheckIn) bool { return set[c.MotherID] }, limit, 50)
}

func (r *MemoryCheckInsRepository) list(match func(*domain.CheckIn) bool, limit, defaultLimit int) ([]*domain.CheckIn, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.CheckIn
	for _, c := range r.rows {
		if match(c) {
			out = append(out, cloneCheckIn(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Seed inserts a row as-is. Test helper.
func (r *MemoryCheckInsRepository) Seed(c *domain.CheckIn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[c.ID] = cloneCheckIn(c)
}
