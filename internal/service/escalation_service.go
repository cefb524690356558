package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/composer"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/metrics"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

// EscalationService wraps the escalation store with role gating and
// visibility. Storage invariants (transition legality, mutability window,
// optimistic concurrency) live in the repository; this layer decides who may
// attempt which operation and publishes committed events to the dispatcher.
type EscalationService struct {
	escalations repository.EscalationsRepository
	checkins    repository.CheckInsRepository
	roster      *RosterCache
	dispatcher  *dispatcher.Dispatcher
	logger      *zap.Logger
}

// NewEscalationService creates the escalation service.
func NewEscalationService(
	escalations repository.EscalationsRepository,
	checkins repository.CheckInsRepository,
	roster *RosterCache,
	d *dispatcher.Dispatcher,
	logger *zap.Logger,
) *EscalationService {
	return &EscalationService{
		escalations: escalations,
		checkins:    checkins,
		roster:      roster,
		dispatcher:  d,
		logger:      logger,
	}
}

// CreateEscalationRequest carries a new escalation from the raising CHW.
type CreateEscalationRequest struct {
	MotherID        string  `json:"mother_id"`
	MotherName      string  `json:"mother_name"`
	IssueType       *string `json:"issue_type,omitempty"`
	CaseDescription string  `json:"case_description"`
	Priority        string  `json:"priority"`
	SourceCheckInID *string `json:"source_checkin_id,omitempty"`
}

// CreateEscalation raises a new case. Only a CHW raises escalations, and only
// for a mother on their active roster.
func (s *EscalationService) CreateEscalation(ctx context.Context, actor domain.Actor, req CreateEscalationRequest) (*domain.Escalation, error) {
	if actor.Role != domain.RoleCHW {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(req.MotherID) == "" {
		return nil, &domain.ValidationError{Field: "mother_id", Reason: "required"}
	}
	if strings.TrimSpace(req.CaseDescription) == "" {
		return nil, &domain.ValidationError{Field: "case_description", Reason: "required"}
	}
	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, &domain.ValidationError{Field: "priority", Reason: "unknown value " + req.Priority}
	}
	if chwID, ok := s.roster.Roster().ActiveCHW(req.MotherID); !ok || chwID != actor.ID {
		return nil, domain.ErrForbidden
	}

	e := &domain.Escalation{
		MotherID:        req.MotherID,
		MotherName:      req.MotherName,
		CHWID:           actor.ID,
		CHWName:         actor.Name,
		IssueType:       req.IssueType,
		CaseDescription: strings.TrimSpace(req.CaseDescription),
		Priority:        priority,
		SourceCheckInID: req.SourceCheckInID,
	}

	ev, err := s.escalations.CreateEscalation(ctx, e)
	metrics.Writes.WithLabelValues(string(domain.KindEscalation), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("escalation created",
		zap.String("escalation_id", e.ID),
		zap.String("chw_id", actor.ID),
		zap.String("priority", string(e.Priority)))
	s.dispatcher.Publish(ev)
	return e, nil
}

// GetEscalation fetches one case under the actor's visibility.
func (s *EscalationService) GetEscalation(ctx context.Context, actor domain.Actor, id string) (*domain.Escalation, error) {
	e, err := s.escalations.GetEscalation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadEscalation(actor, *e) {
		return nil, domain.ErrForbidden
	}
	return e, nil
}

// ListEscalationsRequest narrows the role-scoped listing.
type ListEscalationsRequest struct {
	Status   string
	Priority string
	Limit    int
}

// ListEscalations returns the actor's case view: a mother sees her own cases,
// a CHW the ones they raised, a nurse their bound cases plus the unclaimed
// pending queue.
func (s *EscalationService) ListEscalations(ctx context.Context, actor domain.Actor, req ListEscalationsRequest) ([]*domain.Escalation, error) {
	filters := repository.EscalationFilters{Limit: req.Limit}

	switch actor.Role {
	case domain.RoleMother:
		filters.MotherID = &actor.ID
	case domain.RoleCHW:
		filters.CHWID = &actor.ID
	case domain.RoleNurse:
		filters.NurseOrPending = &actor.ID
	default:
		return nil, domain.ErrForbidden
	}

	if req.Status != "" {
		status := domain.EscalationStatus(req.Status)
		if !domain.ValidEscalationStatus(status) {
			return nil, &domain.ValidationError{Field: "status", Reason: "unknown value " + req.Status}
		}
		filters.Status = &status
	}
	if req.Priority != "" {
		priority := domain.Priority(req.Priority)
		if !domain.ValidPriority(priority) {
			return nil, &domain.ValidationError{Field: "priority", Reason: "unknown value " + req.Priority}
		}
		filters.Priority = &priority
	}

	return s.escalations.ListEscalations(ctx, filters)
}

// UpdateStatusRequest moves a case through its workflow.
type UpdateStatusRequest struct {
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateEscalationStatus advances the workflow. Visibility denial surfaces as
// forbidden before any transition check runs, so an actor cannot probe cases
// they cannot see.
func (s *EscalationService) UpdateEscalationStatus(ctx context.Context, actor domain.Actor, id string, req UpdateStatusRequest) (*domain.Escalation, error) {
	requested := domain.EscalationStatus(req.Status)
	if !domain.ValidEscalationStatus(requested) {
		return nil, &domain.ValidationError{Field: "status", Reason: "unknown value " + req.Status}
	}
	if req.UpdatedAt.IsZero() {
		return nil, &domain.ValidationError{Field: "updated_at", Reason: "base version required"}
	}

	current, err := s.escalations.GetEscalation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteEscalation(actor, *current) {
		return nil, domain.ErrForbidden
	}
	if !policy.CanAdvanceEscalation(actor, *current) {
		return nil, domain.ErrForbidden
	}

	updated, ev, err := s.escalations.UpdateEscalationStatus(ctx, id, req.UpdatedAt, requested, actor, req.Notes)
	metrics.Writes.WithLabelValues(string(domain.KindEscalation), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("escalation status updated",
		zap.String("escalation_id", id),
		zap.String("status", string(updated.Status)),
		zap.String("nurse_id", actor.ID))
	s.dispatcher.Publish(ev)
	return updated, nil
}

// UpdateFieldsRequest patches the CHW-owned fields within the mutability window.
type UpdateFieldsRequest struct {
	Patch     domain.EscalationPatch `json:"patch"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// UpdateEscalationFields patches priority, issue type or description. Only
// the creating CHW, only within the mutability window.
func (s *EscalationService) UpdateEscalationFields(ctx context.Context, actor domain.Actor, id string, req UpdateFieldsRequest) (*domain.Escalation, error) {
	if req.Patch.Empty() {
		return nil, &domain.ValidationError{Field: "patch", Reason: "no fields to update"}
	}
	if req.Patch.Priority != nil && !domain.ValidPriority(*req.Patch.Priority) {
		return nil, &domain.ValidationError{Field: "priority", Reason: "unknown value " + string(*req.Patch.Priority)}
	}
	if req.UpdatedAt.IsZero() {
		return nil, &domain.ValidationError{Field: "updated_at", Reason: "base version required"}
	}

	current, err := s.escalations.GetEscalation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteEscalation(actor, *current) {
		return nil, domain.ErrForbidden
	}
	if !policy.CanEditEscalationFields(actor, *current) {
		return nil, domain.ErrForbidden
	}

	updated, ev, err := s.escalations.UpdateEscalationFields(ctx, id, req.UpdatedAt, req.Patch)
	metrics.Writes.WithLabelValues(string(domain.KindEscalation), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Publish(ev)
	return updated, nil
}

// AppendNotesRequest amends the nurse notes trail.
type AppendNotesRequest struct {
	Notes     string    `json:"notes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendEscalationNotes appends to the notes trail. Window-exempt so the
// acting nurse can keep recording after the edit window closes.
func (s *EscalationService) AppendEscalationNotes(ctx context.Context, actor domain.Actor, id string, req AppendNotesRequest) (*domain.Escalation, error) {
	if strings.TrimSpace(req.Notes) == "" {
		return nil, &domain.ValidationError{Field: "notes", Reason: "required"}
	}
	if req.UpdatedAt.IsZero() {
		return nil, &domain.ValidationError{Field: "updated_at", Reason: "base version required"}
	}

	current, err := s.escalations.GetEscalation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWriteEscalation(actor, *current) {
		return nil, domain.ErrForbidden
	}
	if !policy.CanAppendEscalationNotes(actor, *current) {
		return nil, domain.ErrForbidden
	}

	updated, ev, err := s.escalations.AppendEscalationNotes(ctx, id, req.UpdatedAt, strings.TrimSpace(req.Notes))
	metrics.Writes.WithLabelValues(string(domain.KindEscalation), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.dispatcher.Publish(ev)
	return updated, nil
}

// DeleteEscalation hard-deletes a freshly created case. Only the creating
// CHW, only within the mutability window.
func (s *EscalationService) DeleteEscalation(ctx context.Context, actor domain.Actor, id string, base time.Time) error {
	if base.IsZero() {
		return &domain.ValidationError{Field: "updated_at", Reason: "base version required"}
	}

	current, err := s.escalations.GetEscalation(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanWriteEscalation(actor, *current) {
		return domain.ErrForbidden
	}
	if actor.Role != domain.RoleCHW || current.CHWID != actor.ID {
		return domain.ErrForbidden
	}

	ev, err := s.escalations.DeleteEscalation(ctx, id, base)
	metrics.Writes.WithLabelValues(string(domain.KindEscalation), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return err
	}

	s.logger.Info("escalation deleted",
		zap.String("escalation_id", id), zap.String("chw_id", actor.ID))
	s.dispatcher.Publish(ev)
	return nil
}

// ComposeDraft derives an escalation draft from a check-in for the CHW to
// review. Nothing is written; the CHW confirms via CreateEscalation.
func (s *EscalationService) ComposeDraft(ctx context.Context, actor domain.Actor, checkinID string) (*composer.Draft, error) {
	if actor.Role != domain.RoleCHW {
		return nil, domain.ErrForbidden
	}

	c, err := s.checkins.GetCheckIn(ctx, checkinID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadCheckIn(actor, *c, s.roster.Roster()) {
		return nil, domain.ErrForbidden
	}

	draft := composer.Compose(*c)
	return &draft, nil
}
