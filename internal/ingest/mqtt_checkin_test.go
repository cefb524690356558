package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

func newConsumerFixture(t *testing.T) (*CheckInConsumer, *repository.MemoryCheckInsRepository) {
	t.Helper()
	logger := zap.NewNop()
	events := repository.NewMemoryEventLog()
	checkins := repository.NewMemoryCheckInsRepository(events)
	assignments := repository.NewMemoryAssignmentsRepository()
	roster := service.NewRosterCache(assignments, time.Minute, logger)
	hub := dispatcher.NewHub(roster, 0, logger)
	d := dispatcher.New(nil, hub, logger)
	svc := service.NewCheckInService(checkins, roster, d, logger)

	return NewCheckInConsumer(nil, svc, "careconnect/gateway/checkins", 1, logger), checkins
}

func TestHandle_RecordsGatewayCheckIn(t *testing.T) {
	consumer, checkins := newConsumerFixture(t)

	payload := `{"mother_id":"mother-1","mother_name":"Jane","response":"not_ok","comment":"Dizzy spells","channel":"whatsapp"}`
	require.NoError(t, consumer.handle("careconnect/gateway/checkins", []byte(payload)))

	rows, err := checkins.ListCheckInsForMother(context.Background(), "mother-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.CheckInNotOK, rows[0].Response)
	assert.Equal(t, domain.ChannelWhatsApp, rows[0].Channel)
	require.NotNil(t, rows[0].Comment)
	assert.Equal(t, "Dizzy spells", *rows[0].Comment)
}

func TestHandle_MissingChannelDefaultsToSMS(t *testing.T) {
	consumer, checkins := newConsumerFixture(t)

	payload := `{"mother_id":"mother-1","response":"ok"}`
	require.NoError(t, consumer.handle("careconnect/gateway/checkins", []byte(payload)))

	rows, err := checkins.ListCheckInsForMother(context.Background(), "mother-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.ChannelSMS, rows[0].Channel)
}

func TestHandle_MalformedPayloadDroppedWithoutRetry(t *testing.T) {
	consumer, checkins := newConsumerFixture(t)

	assert.NoError(t, consumer.handle("careconnect/gateway/checkins", []byte("{not json")))

	rows, err := checkins.ListCheckInsForMother(context.Background(), "mother-1", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHandle_InvalidCheckInDroppedWithoutRetry(t *testing.T) {
	consumer, checkins := newConsumerFixture(t)

	payload := `{"mother_id":"mother-1","response":"maybe"}`
	assert.NoError(t, consumer.handle("careconnect/gateway/checkins", []byte(payload)))

	rows, err := checkins.ListCheckInsForMother(context.Background(), "mother-1", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
