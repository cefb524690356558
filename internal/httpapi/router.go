// Package httpapi is the HTTP surface of the sync service: entity CRUD behind
// token auth, the listSince pull endpoint, and the websocket push stream. It
// uses the standard library http.ServeMux to avoid a router dependency.
package httpapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler supports the http.Handler interface (promhttp, pprof).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterSyncRoutes wires every actor-facing route behind the auth
// middleware, plus the unauthenticated health and metrics endpoints.
func (r *Router) RegisterSyncRoutes(
	auth *AuthMiddleware,
	escalations *EscalationHandler,
	export *ExportHandler,
	appointments *AppointmentHandler,
	checkins *CheckInHandler,
	sync *SyncHandler,
	roster *RosterHandler,
) {
	// escalations
	r.Handle("/sync/api/v1/escalations", auth.Wrap(escalations.Collection))
	r.Handle("/sync/api/v1/escalations/compose", auth.Wrap(escalations.ComposeDraft))
	r.Handle("/sync/api/v1/escalations/export", auth.Wrap(export.Export))
	r.Handle("/sync/api/v1/escalations/", auth.Wrap(escalations.Item))

	// appointments
	r.Handle("/sync/api/v1/appointments", auth.Wrap(appointments.Collection))
	r.Handle("/sync/api/v1/appointments/", auth.Wrap(appointments.Item))

	// check-ins
	r.Handle("/sync/api/v1/checkins", auth.Wrap(checkins.Collection))
	r.Handle("/sync/api/v1/checkins/", auth.Wrap(checkins.Item))
	r.Handle("/sync/api/v1/mothers/", auth.Wrap(checkins.Latest))

	// event delivery
	r.Handle("/sync/api/v1/events", auth.Wrap(sync.Events))
	r.Handle("/sync/api/v1/ws", auth.Wrap(sync.Stream))

	// roster reads
	r.Handle("/sync/api/v1/assignments", auth.Wrap(roster.Assignments))
	r.Handle("/sync/api/v1/chws/", auth.Wrap(roster.AssignedMothers))

	// operational
	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.HandleHandler("/metrics", promhttp.Handler())
}
