package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"club-portal/internal/middleware"
	"club-portal/internal/model"
	"club-portal/internal/service"
	"club-portal/pkg/apierror"
)

type EventHandler struct {
	events *service.EventService
}

func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	var payload model.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body", ""))
		return
	}

	event, err := h.events.Create(r.Context(), user.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, event, nil)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, events, nil)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.Get(r.Context(), chi.URLParam(r, "event_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, event, nil)
}

func (h *EventHandler) Join(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("authentication required"))
		return
	}

	if err := h.events.Join(r.Context(), chi.URLParam(r, "event_id"), user.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"joined": true}, nil)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	event, ok := middleware.ResourceFromContext(r.Context()).(model.ClubEvent)
	if !ok {
		writeError(w, model.ErrEventNotFound)
		return
	}

	if err := h.events.Delete(r.Context(), event.ID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
