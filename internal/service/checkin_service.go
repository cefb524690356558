package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/metrics"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
)

// CheckInService records mothers' daily self-reports and serves the CHW
// roster view of them. Check-ins are immutable; the only mutation is create.
type CheckInService struct {
	checkins   repository.CheckInsRepository
	roster     *RosterCache
	dispatcher *dispatcher.Dispatcher
	logger     *zap.Logger
}

// NewCheckInService creates the check-in service.
func NewCheckInService(checkins repository.CheckInsRepository, roster *RosterCache, d *dispatcher.Dispatcher, logger *zap.Logger) *CheckInService {
	return &CheckInService{checkins: checkins, roster: roster, dispatcher: d, logger: logger}
}

// CreateCheckInRequest is a self-report from the app surface.
type CreateCheckInRequest struct {
	Response string  `json:"response"`
	Comment  *string `json:"comment,omitempty"`
}

// CreateCheckIn records a self-report by the acting mother.
func (s *CheckInService) CreateCheckIn(ctx context.Context, actor domain.Actor, req CreateCheckInRequest) (*domain.CheckIn, error) {
	if actor.Role != domain.RoleMother {
		return nil, domain.ErrForbidden
	}
	return s.record(ctx, actor.ID, &actor.Name, req.Response, req.Comment, domain.ChannelApp)
}

// IngestCheckIn records a self-report relayed by the sms/whatsapp gateway.
// The gateway is a trusted internal caller; there is no acting-user check.
func (s *CheckInService) IngestCheckIn(ctx context.Context, motherID string, motherName *string, response string, comment *string, channel domain.CheckInChannel) (*domain.CheckIn, error) {
	if !domain.ValidCheckInChannel(channel) {
		return nil, &domain.ValidationError{Field: "channel", Reason: "unknown value " + string(channel)}
	}
	return s.record(ctx, motherID, motherName, response, comment, channel)
}

func (s *CheckInService) record(ctx context.Context, motherID string, motherName *string, response string, comment *string, channel domain.CheckInChannel) (*domain.CheckIn, error) {
	if strings.TrimSpace(motherID) == "" {
		return nil, &domain.ValidationError{Field: "mother_id", Reason: "required"}
	}
	resp := domain.CheckInResponse(response)
	if !domain.ValidCheckInResponse(resp) {
		return nil, &domain.ValidationError{Field: "response", Reason: "unknown value " + response}
	}
	if motherName != nil && *motherName == "" {
		motherName = nil
	}

	c := &domain.CheckIn{
		MotherID:   motherID,
		MotherName: motherName,
		Response:   resp,
		Comment:    comment,
		Channel:    channel,
	}

	ev, err := s.checkins.CreateCheckIn(ctx, c)
	metrics.Writes.WithLabelValues(string(domain.KindCheckIn), metrics.WriteOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	s.logger.Info("check-in recorded",
		zap.String("checkin_id", c.ID),
		zap.String("mother_id", motherID),
		zap.String("response", string(resp)),
		zap.String("channel", string(channel)))
	s.dispatcher.Publish(ev)
	return c, nil
}

// GetCheckIn fetches one check-in under the actor's visibility.
func (s *CheckInService) GetCheckIn(ctx context.Context, actor domain.Actor, id string) (*domain.CheckIn, error) {
	c, err := s.checkins.GetCheckIn(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadCheckIn(actor, *c, s.roster.Roster()) {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

// ListCheckIns returns the actor's check-in view: a mother her own history, a
// CHW the recent reports across their assigned mothers.
func (s *CheckInService) ListCheckIns(ctx context.Context, actor domain.Actor, limit int) ([]*domain.CheckIn, error) {
	switch actor.Role {
	case domain.RoleMother:
		return s.checkins.ListCheckInsForMother(ctx, actor.ID, limit)
	case domain.RoleCHW:
		mothers := s.roster.Roster().AssignedMothers(actor.ID)
		if len(mothers) == 0 {
			return []*domain.CheckIn{}, nil
		}
		return s.checkins.ListCheckInsForMothers(ctx, mothers, limit)
	}
	return nil, domain.ErrForbidden
}

// LatestCheckIn returns a mother's most recent report, for the CHW dashboard
// card. Subject to the same active-assignment visibility as any read.
func (s *CheckInService) LatestCheckIn(ctx context.Context, actor domain.Actor, motherID string) (*domain.CheckIn, error) {
	c, err := s.checkins.LatestCheckInForMother(ctx, motherID)
	if err != nil {
		return nil, err
	}
	if !policy.CanReadCheckIn(actor, *c, s.roster.Roster()) {
		return nil, domain.ErrForbidden
	}
	return c, nil
}
