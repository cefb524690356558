package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

// CheckInHandler serves the check-in routes.
type CheckInHandler struct {
	checkins *service.CheckInService
	logger   *zap.Logger
}

func NewCheckInHandler(checkins *service.CheckInService, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{checkins: checkins, logger: logger}
}

// Collection handles /sync/api/v1/checkins.
func (h *CheckInHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Item handles GET /sync/api/v1/checkins/{id}.
func (h *CheckInHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/sync/api/v1/checkins/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	c, err := h.checkins.GetCheckIn(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

// Latest handles GET /sync/api/v1/mothers/{id}/checkins/latest.
func (h *CheckInHandler) Latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/sync/api/v1/mothers/")
	motherID, sub, _ := strings.Cut(rest, "/")
	if motherID == "" || sub != "checkins/latest" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	c, err := h.checkins.LatestCheckIn(r.Context(), actor, motherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

func (h *CheckInHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.CreateCheckInRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	c, err := h.checkins.CreateCheckIn(r.Context(), actor, req)
	if err != nil {
		h.logger.Warn("create check-in rejected", zap.String("actor_id", actor.ID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(c))
}

func (h *CheckInHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), 50)

	items, err := h.checkins.ListCheckIns(r.Context(), actor, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}
