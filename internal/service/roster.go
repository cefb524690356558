package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

// rosterSnapshot is an immutable view of the active assignment set.
type rosterSnapshot struct {
	chwByMother  map[string]string
	mothersByCHW map[string][]string
}

var _ policy.RosterView = (*rosterSnapshot)(nil)

func (r *rosterSnapshot) ActiveCHW(motherID string) (string, bool) {
	chwID, ok := r.chwByMother[motherID]
	return chwID, ok
}

func (r *rosterSnapshot) AssignedMothers(chwID string) []string {
	return r.mothersByCHW[chwID]
}

// RosterCache serves assignment snapshots to the visibility checks without a
// store round trip per event. Snapshots are rebuilt lazily after the TTL, so
// a reassignment takes effect on event delivery within one TTL at most.
type RosterCache struct {
	repo   repository.AssignmentsRepository
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.RWMutex
	snapshot *rosterSnapshot
	loadedAt time.Time
}

// NewRosterCache creates a cache over the assignments store.
func NewRosterCache(repo repository.AssignmentsRepository, ttl time.Duration, logger *zap.Logger) *RosterCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RosterCache{repo: repo, ttl: ttl, logger: logger}
}

// Roster returns the current snapshot, rebuilding it when stale. On a rebuild
// failure the previous snapshot is served so delivery degrades to stale
// rather than stopping.
func (c *RosterCache) Roster() policy.RosterView {
	c.mu.RLock()
	snap, loadedAt := c.snapshot, c.loadedAt
	c.mu.RUnlock()

	if snap != nil && time.Since(loadedAt) < c.ttl {
		return snap
	}

	fresh, err := c.load()
	if err != nil {
		c.logger.Warn("roster rebuild failed, serving stale snapshot", zap.Error(err))
		if snap != nil {
			return snap
		}
		return policy.EmptyRoster{}
	}

	c.mu.Lock()
	c.snapshot = fresh
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return fresh
}

// Invalidate discards the cached snapshot so the next Roster call rebuilds.
// Called after a reassignment commits.
func (c *RosterCache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

func (c *RosterCache) load() (*rosterSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	active, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	snap := &rosterSnapshot{
		chwByMother:  make(map[string]string, len(active)),
		mothersByCHW: make(map[string][]string),
	}
	for _, a := range active {
		if a.Status != domain.AssignmentActive {
			continue
		}
		snap.chwByMother[a.MotherID] = a.CHWID
		snap.mothersByCHW[a.CHWID] = append(snap.mothersByCHW[a.CHWID], a.MotherID)
	}
	return snap, nil
}
