package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

// AppointmentHandler serves the appointment routes.
type AppointmentHandler struct {
	appointments *service.AppointmentService
	logger       *zap.Logger
}

func NewAppointmentHandler(appointments *service.AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, logger: logger}
}

// Collection handles /sync/api/v1/appointments.
func (h *AppointmentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Item handles /sync/api/v1/appointments/{id} and its subresources.
func (h *AppointmentHandler) Item(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sync/api/v1/appointments/")
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
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.CreateAppointmentRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	a, err := h.appointments.CreateAppointment(r.Context(), actor, req)
	if err != nil {
		h.logger.Warn("create appointment rejected", zap.String("actor_id", actor.ID), zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(a))
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	req := service.ListAppointmentsRequest{
		Status: r.URL.Query().Get("status"),
		Limit:  parseInt(r.URL.Query().Get("limit"), 100),
	}
	if from, ok := parseTime(r.URL.Query().Get("from")); ok {
		req.From = &from
	}
	if to, ok := parseTime(r.URL.Query().Get("to")); ok {
		req.To = &to
	}

	items, err := h.appointments.ListAppointments(r.Context(), actor, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *AppointmentHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	a, err := h.appointments.GetAppointment(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AppointmentHandler) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.UpdateStatusRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	a, err := h.appointments.UpdateAppointmentStatus(r.Context(), actor, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AppointmentHandler) updateFields(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req service.UpdateAppointmentFieldsRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeError(w, &domain.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	a, err := h.appointments.UpdateAppointmentFields(r.Context(), actor, id, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

func (h *AppointmentHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	base, ok2 := parseTime(r.URL.Query().Get("updated_at"))
	if !ok2 {
		writeError(w, &domain.ValidationError{Field: "updated_at", Reason: "base version required"})
		return
	}

	if err := h.appointments.DeleteAppointment(r.Context(), actor, id, base); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}
