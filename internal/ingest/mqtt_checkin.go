// Package ingest consumes check-ins relayed by the sms/whatsapp gateway over
// MQTT. The gateway handles the conversational flow with the mother; by the
// time a message reaches this consumer it is a structured check-in.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/common/mqtt"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

const handleTimeout = 10 * time.Second

// gatewayCheckIn is the message shape published by the gateway.
type gatewayCheckIn struct {
	MotherID   string  `json:"mother_id"`
	MotherName *string `json:"mother_name,omitempty"`
	Response   string  `json:"response"`
	Comment    *string `json:"comment,omitempty"`
	Channel    string  `json:"channel"`
}

// CheckInConsumer subscribes to the gateway topic and records each relayed
// check-in through the normal write path, so gateway check-ins produce sync
// events exactly like app ones.
type CheckInConsumer struct {
	client   *mqtt.Client
	checkins *service.CheckInService
	topic    string
	qos      byte
	logger   *zap.Logger
}

// NewCheckInConsumer creates the consumer. Start must be called to subscribe.
func NewCheckInConsumer(client *mqtt.Client, checkins *service.CheckInService, topic string, qos byte, logger *zap.Logger) *CheckInConsumer {
	return &CheckInConsumer{
		client:   client,
		checkins: checkins,
		topic:    topic,
		qos:      qos,
		logger:   logger,
	}
}

// Start subscribes to the gateway topic.
func (c *CheckInConsumer) Start() error {
	if err := c.client.Subscribe(c.topic, c.qos, c.handle); err != nil {
		return fmt.Errorf("subscribe gateway check-ins: %w", err)
	}
	c.logger.Info("gateway check-in consumer started", zap.String("topic", c.topic))
	return nil
}

func (c *CheckInConsumer) handle(topic string, payload []byte) error {
	var msg gatewayCheckIn
	if err := json.Unmarshal(payload, &msg); err != nil {
		c.logger.Warn("malformed gateway check-in dropped",
			zap.String("topic", topic), zap.Error(err))
		// Malformed payloads are not retryable.
		return nil
	}

	channel := domain.CheckInChannel(msg.Channel)
	if channel == "" {
		channel = domain.ChannelSMS
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	_, err := c.checkins.IngestCheckIn(ctx, msg.MotherID, msg.MotherName, msg.Response, msg.Comment, channel)
	if err != nil {
		if domain.IsValidation(err) {
			c.logger.Warn("invalid gateway check-in dropped",
				zap.String("mother_id", msg.MotherID), zap.Error(err))
			return nil
		}
		c.logger.Error("record gateway check-in failed",
			zap.String("mother_id", msg.MotherID), zap.Error(err))
		return err
	}
	return nil
}
