package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
)

// MemoryEscalationsRepository is the in-memory EscalationsRepository for dev
// mode and tests. It enforces the same store-side invariants as postgres:
// legal transitions, the mutability window, optimistic concurrency, and one
// event per committed write.
type MemoryEscalationsRepository struct {
	mu     sync.Mutex
	rows   map[string]*domain.Escalation
	events *MemoryEventLog
}

// NewMemoryEscalationsRepository creates the repository over a shared event log.
func NewMemoryEscalationsRepository(events *MemoryEventLog) *MemoryEscalationsRepository {
	return &MemoryEscalationsRepository{
		rows:   map[string]*domain.Escalation{},
		events: events,
	}
}

var _ EscalationsRepository = (*MemoryEscalationsRepository)(nil)

func cloneEscalation(e *domain.Escalation) *domain.Escalation {
	cp := *e
	return &cp
}

// CreateEscalation stores the row and appends its event.
func (r *MemoryEscalationsRepository) CreateEscalation(ctx context.Context, e *domain.Escalation) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := now()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Status = domain.EscalationPending
	e.CreatedAt = ts
	e.UpdatedAt = ts
	r.rows[e.ID] = cloneEscalation(e)

	ev, err := domain.NewEvent(domain.EventCreated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.events.Append(ev)
	return ev, nil
}

// GetEscalation fetches one row.
func (r *MemoryEscalationsRepository) GetEscalation(ctx context.Context, id string) (*domain.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEscalation(e), nil
}

// ListEscalations filters in memory, newest first.
func (r *MemoryEscalationsRepository) ListEscalations(ctx context.Context, filters EscalationFilters) ([]*domain.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Escalation
	for _, e := range r.rows {
		if filters.MotherID != nil && e.MotherID != *filters.MotherID {
			continue
		}
		if filters.CHWID != nil && e.CHWID != *filters.CHWID {
			continue
		}
		if filters.NurseID != nil && (e.NurseID == nil || *e.NurseID != *filters.NurseID) {
			continue
		}
		if filters.NurseOrPending != nil {
			bound := e.NurseID != nil && *e.NurseID == *filters.NurseOrPending
			pending := e.NurseID == nil && e.Status == domain.EscalationPending
			if !bound && !pending {
				continue
			}
		}
		if filters.Status != nil && e.Status != *filters.Status {
			continue
		}
		if filters.Priority != nil && e.Priority != *filters.Priority {
			continue
		}
		out = append(out, cloneEscalation(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

func (r *MemoryEscalationsRepository) locked(id string, base time.Time) (*domain.Escalation, error) {
	e, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !e.UpdatedAt.Equal(base) {
		return nil, domain.ErrConflict
	}
	return e, nil
}

// UpdateEscalationStatus applies a validated transition under the store lock.
func (r *MemoryEscalationsRepository) UpdateEscalationStatus(ctx context.Context, id string, base time.Time, requested domain.EscalationStatus, actor domain.Actor, notes *string) (*domain.Escalation, *domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.locked(id, base)
	if err != nil {
		return nil, nil, err
	}
	if err := policy.CheckEscalationTransition(e.Status, requested); err != nil {
		return nil, nil, err
	}

	ts := now()
	e.Status = requested
	e.UpdatedAt = ts
	if e.NurseID == nil {
		nurseID := actor.ID
		e.NurseID = &nurseID
		if actor.Name != "" {
			nurseName := actor.Name
			e.NurseName = &nurseName
		}
	}
	if notes != nil {
		e.Notes = appendNote(e.Notes, *notes)
	}
	if requested.Terminal() {
		e.ResolvedAt = &ts
	}

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	r.events.Append(ev)
	return cloneEscalation(e), ev, nil
}

// UpdateEscalationFields patches fields inside the mutability window.
func (r *MemoryEscalationsRepository) UpdateEscalationFields(ctx context.Context, id string, base time.Time, patch domain.EscalationPatch) (*domain.Escalation, *domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.locked(id, base)
	if err != nil {
		return nil, nil, err
	}
	if !policy.IsEditable(e.CreatedAt, now()) {
		return nil, nil, domain.ErrWindowExpired
	}
	if (patch.Priority != nil || patch.IssueType != nil) && !policy.PriorityEditable(e.Status) {
		return nil, nil, &domain.InvalidTransitionError{
			Kind:      domain.KindEscalation,
			Current:   string(e.Status),
			Requested: "field edit",
		}
	}

	if patch.Priority != nil {
		e.Priority = *patch.Priority
	}
	if patch.IssueType != nil {
		e.IssueType = patch.IssueType
	}
	if patch.CaseDescription != nil {
		e.CaseDescription = *patch.CaseDescription
	}
	e.UpdatedAt = now()

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	r.events.Append(ev)
	return cloneEscalation(e), ev, nil
}

// AppendEscalationNotes amends notes, window-exempt.
func (r *MemoryEscalationsRepository) AppendEscalationNotes(ctx context.Context, id string, base time.Time, notes string) (*domain.Escalation, *domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.locked(id, base)
	if err != nil {
		return nil, nil, err
	}

	e.Notes = appendNote(e.Notes, notes)
	e.UpdatedAt = now()

	ev, err := domain.NewEvent(domain.EventUpdated, domain.KindEscalation, e.ID, e, e.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	r.events.Append(ev)
	return cloneEscalation(e), ev, nil
}

// DeleteEscalation hard-deletes inside the mutability window only.
func (r *MemoryEscalationsRepository) DeleteEscalation(ctx context.Context, id string, base time.Time) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.locked(id, base)
	if err != nil {
		return nil, err
	}
	if !policy.IsEditable(e.CreatedAt, now()) {
		return nil, domain.ErrWindowExpired
	}

	delete(r.rows, id)

	ev, err := domain.NewEvent(domain.EventDeleted, domain.KindEscalation, e.ID, e, now())
	if err != nil {
		return nil, err
	}
	r.events.Append(ev)
	return ev, nil
}

// Seed inserts a row as-is, bypassing invariants. Test helper.
func (r *MemoryEscalationsRepository) Seed(e *domain.Escalation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[e.ID] = cloneEscalation(e)
}
