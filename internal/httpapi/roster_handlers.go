package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

// RosterHandler serves the assignment read surface. Assignments are written
// through the admin CLI only, so these routes are GET-only.
type RosterHandler struct {
	assignments *service.AssignmentService
	logger      *zap.Logger
}

func NewRosterHandler(assignments *service.AssignmentService, logger *zap.Logger) *RosterHandler {
	return &RosterHandler{assignments: assignments, logger: logger}
}

// Assignments handles GET /sync/api/v1/assignments.
func (h *RosterHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}

	items, err := h.assignments.ListActive(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

// AssignedMothers handles GET /sync/api/v1/chws/{id}/mothers.
func (h *RosterHandler) AssignedMothers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/sync/api/v1/chws/")
	chwID, sub, _ := strings.Cut(rest, "/")
	if chwID == "" || sub != "mothers" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	mothers, err := h.assignments.AssignedMothers(r.Context(), actor, chwID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(mothers))
}
