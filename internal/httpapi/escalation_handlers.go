package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

// EscalationHandler serves the escalation routes.
type EscalationHandler struct {
	escalations *service.EscalationService
	logger      *zap.Logger
}

func NewEscalationHandler(escalations *service.EscalationService, logger *zap.Logger) *EscalationHandler {
	return &EscalationHandler{escalations: escalations, logger: logger}
}

// Collection handles /sync/api/v1/escalations.
func (h *EscalationHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Item handles /sync/api/v1/escalations/{id} and its subresources.
func (h *EscalationHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sync/api/v1/escalations/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		h.get(w, r, id)
	case sub == "" && r.Method == http.MethodPatch:
		h.updateFields(w, r, id)
	case sub == "" && r.Method == http.MethodDelete:
		h.delete(w, r, id)
	case sub == "status" && r.Method == http.MethodPut:
		h.updateStatus(w, r, id)
	case sub == "notes" && r.Method == http.MethodPost:
		h.appendNotes(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ComposeDraft handles GET /sync/api/v1/escalations/compose?checkin_id=...
func (h *EscalationHandler) ComposeDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	checkinID := r.URL.Query().Get("checkin_id")
	if checkinID == "" {
		writeError(w, &domain.ValidationError{Field: "checkin_id", Reason: "required"})
		return
	}

	draft, err := h.escalations.ComposeDraft(r.Context(), actor, checkinID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(draft))
}

func (h *EscalationHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.CreateEscalationRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	e, err := h.escalations.CreateEscalation(r.Context(), actor, req)
	if err != nil {
		h.logger.Warn("create escalation rejected", zap.String("actor_id", actor.ID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(e))
}

func (h *EscalationHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	req := service.ListEscalationsRequest{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Limit:    parseInt(r.URL.Query().Get("limit"), 100),
	}

	items, err := h.escalations.ListEscalations(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *EscalationHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	e, err := h.escalations.GetEscalation(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(e))
}

func (h *EscalationHandler) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.UpdateStatusRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	e, err := h.escalations.UpdateEscalationStatus(r.Context(), actor, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(e))
}

func (h *EscalationHandler) updateFields(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.UpdateFieldsRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	e, err := h.escalations.UpdateEscalationFields(r.Context(), actor, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(e))
}

func (h *EscalationHandler) appendNotes(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.AppendNotesRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	e, err := h.escalations.AppendEscalationNotes(r.Context(), actor, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(e))
}

func (h *EscalationHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	base, ok2 := parseTime(r.URL.Query().Get("updated_at"))
	if !ok2 {
		writeError(w, &domain.ValidationError{Field: "updated_at", Reason: "base version required"})
		return
	}

	if err := h.escalations.DeleteEscalation(r.Context(), actor, id, base); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}
