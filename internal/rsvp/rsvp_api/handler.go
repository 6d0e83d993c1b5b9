package rsvp_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"campus-events/internal/apperr"
	"campus-events/internal/auth"
	"campus-events/internal/events/event_api"
	"campus-events/internal/logger"
	"campus-events/internal/models"
	"campus-events/internal/utils"
)

type RSVPService interface {
	Submit(ctx context.Context, identity *auth.Identity, eventID int64, status string) (*models.RSVP, error)
	Mine(ctx context.Context, identity *auth.Identity, eventID int64) (*models.RSVP, error)
	MyEvents(ctx context.Context, identity *auth.Identity) ([]models.MyEvent, error)
	Attendance(ctx context.Context, eventID int64) ([]models.RSVP, error)
}

type Handler struct {
	RSVPs  RSVPService
	Logger *logger.Logger
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "Event not found")
		return
	}
	if status := utils.WriteAppError(w, err); status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("%s: %v", op, err))
	}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	eventID, err := event_api.EventID(r)
	if err != nil {
		h.fail(w, "SubmitRSVP", err)
		return
	}
	var req models.RSVPRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, "SubmitRSVP", err)
		return
	}

	rsvp, err := h.RSVPs.Submit(r.Context(), auth.IdentityFrom(r.Context()), eventID, req.Status)
	if err != nil {
		h.fail(w, "SubmitRSVP", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rsvp)
}

// Mine answers with the caller's RSVP or a JSON null.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	eventID, err := event_api.EventID(r)
	if err != nil {
		h.fail(w, "MyRSVP", err)
		return
	}
	rsvp, err := h.RSVPs.Mine(r.Context(), auth.IdentityFrom(r.Context()), eventID)
	if err != nil {
		h.fail(w, "MyRSVP", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rsvp)
}

func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.RSVPs.MyEvents(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		h.fail(w, "MyEvents", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) Attendance(w http.ResponseWriter, r *http.Request) {
	eventID, err := event_api.EventID(r)
	if err != nil {
		h.fail(w, "Attendance", err)
		return
	}
	rsvps, err := h.RSVPs.Attendance(r.Context(), eventID)
	if err != nil {
		h.fail(w, "Attendance", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rsvps)
}
