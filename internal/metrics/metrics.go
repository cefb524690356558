// Package metrics exposes the core's prometheus collectors.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
)

var (
	// Writes counts committed and rejected writes by entity kind and outcome
	// (ok, forbidden, conflict, window_expired, invalid_transition,
	// not_found, validation, error).
	Writes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careconnect_writes_total",
		Help: "Entity write attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	// EventsPublished counts sync events published to the stream.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careconnect_sync_events_published_total",
		Help: "Sync events published to the fan-out stream.",
	}, []string{"kind"})

	// EventsDelivered counts events delivered to push subscribers.
	EventsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "careconnect_sync_events_delivered_total",
		Help: "Sync events delivered to push subscribers.",
	})

	// EventsDropped counts deliveries skipped for full subscriber buffers.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "careconnect_sync_events_dropped_total",
		Help: "Sync event deliveries dropped because a subscriber buffer was full.",
	})

	// Subscribers tracks currently connected push subscribers.
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "careconnect_sync_subscribers",
		Help: "Currently connected push subscribers.",
	})
)

// WriteOutcome maps a write-path error to its metrics outcome label.
func WriteOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrWindowExpired):
		return "window_expired"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsInvalidTransition(err):
		return "invalid_transition"
	case domain.IsValidation(err):
		return "validation"
	}
	return "error"
}
