package dispatcher

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/common/redisutil"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/metrics"
)

// Stream is the Redis Stream carrying committed sync events between the write
// path and the push hub.
const Stream = "careconnect:sync:events"

const (
	publishTimeout   = 5 * time.Second
	publishQueueSize = 1024
)

// Dispatcher publishes committed events toward push subscribers. Publish is
// fire-and-forget relative to the writer: the entity commit already happened,
// and a lost publish is recovered by polling listSince, so failures are logged
// and swallowed. When no redis client is configured (dev mode) events go
// straight to the local hub.
//
// Stream appends run on a single publisher goroutine fed by a queue, so events
// reach the stream in the order Publish was called. Push subscribers then see
// any one entity's events in commit order.
type Dispatcher struct {
	redis  *redis.Client
	hub    *Hub
	logger *zap.Logger

	queue chan *domain.Event
	done  chan struct{}
}

// New creates a dispatcher. redis may be nil for single-process dev mode.
func New(redisClient *redis.Client, hub *Hub, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{redis: redisClient, hub: hub, logger: logger}
	if redisClient != nil {
		d.queue = make(chan *domain.Event, publishQueueSize)
		d.done = make(chan struct{})
		go d.run()
	}
	return d
}

// Publish hands one committed event to the fan-out path. Never blocks the
// caller on subscriber delivery and never fails the caller's write.
func (d *Dispatcher) Publish(ev *domain.Event) {
	if ev == nil {
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.EntityKind)).Inc()

	if d.redis == nil {
		d.hub.Broadcast(ev)
		return
	}

	select {
	case d.queue <- ev:
	default:
		// Queue full: push subscribers miss this one; polling clients
		// recover it from the event log.
		metrics.EventsDropped.Inc()
		d.logger.Error("sync event publish queue full, dropping",
			zap.Int64("seq", ev.Seq),
			zap.String("name", ev.Name))
	}
}

// run drains the publish queue one event at a time. A single writer keeps the
// stream in Publish order even when successive commits to the same entity
// land microseconds apart.
func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		_, err := redisutil.PublishJSONToStream(ctx, d.redis, Stream, ev)
		cancel()
		if err != nil {
			// Push subscribers miss this one; polling clients recover it
			// from the event log.
			d.logger.Error("publish sync event failed",
				zap.Int64("seq", ev.Seq),
				zap.String("name", ev.Name),
				zap.Error(err))
		}
	}
}

// Close drains queued events and stops the publisher goroutine. Call only
// after the write path has stopped producing events.
func (d *Dispatcher) Close() {
	if d.queue == nil {
		return
	}
	close(d.queue)
	<-d.done
}
