package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/common/redisutil"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

// ConsumerGroup is the stream consumer group feeding the push hub.
const ConsumerGroup = "careconnect-sync"

// StreamConsumer reads committed events off the Redis Stream and hands them to
// the hub. Runs as one background loop; the write path never waits on it.
type StreamConsumer struct {
	redisClient  *redis.Client
	hub          *Hub
	consumerName string
	logger       *zap.Logger
}

// NewStreamConsumer creates the consumer.
func NewStreamConsumer(redisClient *redis.Client, hub *Hub, consumerName string, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{
		redisClient:  redisClient,
		hub:          hub,
		consumerName: consumerName,
		logger:       logger,
	}
}

// Start blocks consuming until ctx is cancelled.
func (c *StreamConsumer) Start(ctx context.Context) error {
	if err := redisutil.CreateConsumerGroup(ctx, c.redisClient, Stream, ConsumerGroup); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}

	c.logger.Info("sync stream consumer started",
		zap.String("stream", Stream),
		zap.String("consumer", c.consumerName))

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := redisutil.ReadFromStream(ctx, c.redisClient, Stream, ConsumerGroup, c.consumerName, 100)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("read sync stream failed", zap.Error(err), zap.Duration("backoff", backoff))
			time.Sleep(backoff)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			if ev := c.decode(msg); ev != nil {
				c.hub.Broadcast(ev)
			}
			c.redisClient.XAck(ctx, Stream, ConsumerGroup, msg.ID)
		}
	}
}

func (c *StreamConsumer) decode(msg redisutil.StreamMessage) *domain.Event {
	data, ok := msg.Values["data"].(string)
	if !ok {
		// Stream-init placeholder or foreign producer; ack and move on.
		return nil
	}
	ev := &domain.Event{}
	if err := json.Unmarshal([]byte(data), ev); err != nil {
		c.logger.Error("decode sync event failed", zap.String("id", msg.ID), zap.Error(err))
		return nil
	}
	return ev
}
