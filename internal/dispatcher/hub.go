// Package dispatcher fans committed entity events out to subscribed actors.
// Two delivery surfaces share one event shape: a websocket push stream fed by
// the Redis Streams consumer, and the listSince pull endpoint reading straight
// from the committed event log. Both are filtered per subscriber by the
// visibility rules, so no actor ever receives an event for a record they
// could not read directly.
package dispatcher

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/metrics"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/policy"
)

// defaultSubscriberBuffer bounds the per-subscriber queue when no explicit
// size is configured. A subscriber that cannot drain this many events is
// dropped rather than allowed to block the fan-out.
const defaultSubscriberBuffer = 64

// RosterSource supplies the current assignment view used to filter check-in
// events per subscriber.
type RosterSource interface {
	Roster() policy.RosterView
}

// Subscription is one actor's push stream. Events arrive on C in commit (seq)
// order for any single entity.
type Subscription struct {
	Actor domain.Actor
	C     chan *domain.Event

	id     uint64
	closed bool
}

// Hub broadcasts events to live subscriptions. One goroutine per delivery is
// never spawned: sends are non-blocking onto buffered channels, so a slow
// subscriber can only lose its own stream (it is closed and must rejoin via
// listSince), never delay the writer or its peers.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
	buffer int
	roster RosterSource
	logger *zap.Logger
}

// NewHub creates an empty hub. buffer sizes each subscriber's queue; zero or
// negative selects the default.
func NewHub(roster RosterSource, buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		subs:   map[uint64]*Subscription{},
		buffer: buffer,
		roster: roster,
		logger: logger,
	}
}

// Subscribe registers an actor's push stream.
func (h *Hub) Subscribe(actor domain.Actor) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		Actor: actor,
		C:     make(chan *domain.Event, h.buffer),
		id:    h.nextID,
	}
	h.subs[sub.id] = sub
	metrics.Subscribers.Set(float64(len(h.subs)))
	h.logger.Debug("subscriber joined",
		zap.String("actor_id", actor.ID), zap.String("role", string(actor.Role)))
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub)
}

func (h *Hub) dropLocked(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(h.subs, sub.id)
	close(sub.C)
	metrics.Subscribers.Set(float64(len(h.subs)))
}

// Broadcast delivers one event to every subscriber allowed to read it.
// Delivery failure to one subscriber never affects the others.
func (h *Hub) Broadcast(ev *domain.Event) {
	roster := h.roster.Roster()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if !policy.CanReadEvent(sub.Actor, *ev, roster) {
			continue
		}
		select {
		case sub.C <- ev:
			metrics.EventsDelivered.Inc()
		default:
			// Buffer full: the subscriber is too far behind for ordered
			// delivery, so cut the stream and let it recover via listSince.
			metrics.EventsDropped.Inc()
			h.logger.Warn("dropping slow subscriber",
				zap.String("actor_id", sub.Actor.ID),
				zap.Int64("seq", ev.Seq))
			h.dropLocked(sub)
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
