// Package api exposes the room operations over HTTP. The handlers are a
// thin 1:1 mapping onto the chat service; all rules live below them.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"batepapo/domain"
	apperr "batepapo/errors"
	"batepapo/services"
)

// userHeader identifies the acting participant on every request.
const userHeader = "User"

type ChatHandler struct {
	log *slog.Logger
	svc services.IChatService
}

func NewChatHandler(log *slog.Logger, svc services.IChatService) *ChatHandler {
	return &ChatHandler{log: log, svc: svc}
}

func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/participants", h.handleJoin)
	r.Get("/participants", h.handleListParticipants)
	r.Post("/messages", h.handleSend)
	r.Get("/messages", h.handleListMessages)
	r.Post("/status", h.handleHeartbeat)
	r.Put("/messages/{id}", h.handleEdit)
	r.Delete("/messages/{id}", h.handleDelete)
}

type participantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"` // unix milliseconds
}

type messageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

type messagePayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
}

func (h *ChatHandler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if err := h.svc.Join(payload.Name); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *ChatHandler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.svc.Participants()
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(participants, func(p domain.Participant, _ int) participantResponse {
		return participantResponse{Name: p.Name, LastStatus: p.LastActivity.UnixMilli()}
	}))
}

func (h *ChatHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload messagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if _, err := h.svc.Send(r.Header.Get(userHeader), payload.To, payload.Text, payload.Type); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *ChatHandler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusUnprocessableEntity, "limit must be a non-negative integer")
			return
		}
		limit = &parsed
	}

	messages, err := h.svc.ListFor(r.Header.Get(userHeader), limit)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return toMessageResponse(m)
	}))
}

func (h *ChatHandler) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Heartbeat(r.Header.Get(userHeader)); err != nil {
		if errors.Is(err, apperr.ErrUnknownParticipant) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *ChatHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, apperr.ErrMessageNotFound.Error())
		return
	}
	var payload messagePayload
	if err = json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	if err = h.svc.Edit(id, r.Header.Get(userHeader), payload.To, payload.Text, payload.Type); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *ChatHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, apperr.ErrMessageNotFound.Error())
		return
	}

	if err = h.svc.Delete(id, r.Header.Get(userHeader)); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// respondServiceError maps the error taxonomy onto HTTP status codes.
// Unclassified errors become a 500 and are logged, never leaked.
func (h *ChatHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNameRequired),
		errors.Is(err, apperr.ErrInvalidMessage),
		errors.Is(err, apperr.ErrUnknownParticipant):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, apperr.ErrNameTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrMessageNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrNotMessageOwner):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error("Request failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:   m.ID.String(),
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Kind),
		Time: m.Time,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
