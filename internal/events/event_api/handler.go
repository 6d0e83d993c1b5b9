package event_api

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campus-events/internal/apperr"
	"campus-events/internal/auth"
	"campus-events/internal/logger"
	"campus-events/internal/models"
	"campus-events/internal/share"
	"campus-events/internal/storage"
	"campus-events/internal/utils"
)

type EventService interface {
	CreateEvent(ctx context.Context, actorID int64, in models.EventInput) (*models.Event, error)
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, order models.ListOrder) ([]models.Event, error)
	ListByCategory(ctx context.Context, category string, order models.ListOrder) ([]models.Event, error)
	CalendarEvents(ctx context.Context, month string) ([]models.Event, error)
	UpdateEvent(ctx context.Context, actorID, id int64, in models.EventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, actorID, id int64) error
}

type Handler struct {
	Events         EventService
	Images         storage.ImageStore
	QR             *share.QRGenerator
	MaxUploadBytes int64
	Logger         *logger.Logger
}

// multipartOverhead leaves room for the text fields next to the image.
const multipartOverhead = 1 << 20

// EventID parses the {id} URL parameter.
func EventID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Errorf(apperr.ErrValidation, "invalid event id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

func listOrder(r *http.Request) (models.ListOrder, error) {
	raw := r.URL.Query().Get("sort")
	if raw == "" {
		return "", nil
	}
	order, err := models.ParseListOrder(raw)
	if err != nil {
		return "", apperr.Errorf(apperr.ErrValidation, "%v", err)
	}
	return order, nil
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

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	order, err := listOrder(r)
	if err != nil {
		h.fail(w, "ListEvents", err)
		return
	}
	events, err := h.Events.ListEvents(r.Context(), order)
	if err != nil {
		h.fail(w, "ListEvents", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	order, err := listOrder(r)
	if err != nil {
		h.fail(w, "ListByCategory", err)
		return
	}
	events, err := h.Events.ListByCategory(r.Context(), chi.URLParam(r, "category"), order)
	if err != nil {
		h.fail(w, "ListByCategory", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.CalendarEvents(r.Context(), r.URL.Query().Get("month"))
	if err != nil {
		h.fail(w, "CalendarEvents", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := EventID(r)
	if err != nil {
		h.fail(w, "GetEvent", err)
		return
	}
	ev, err := h.Events.GetEvent(r.Context(), id)
	if err != nil {
		h.fail(w, "GetEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ev)
}

// EventQR serves a PNG QR code linking to the event's page.
func (h *Handler) EventQR(w http.ResponseWriter, r *http.Request) {
	id, err := EventID(r)
	if err != nil {
		h.fail(w, "EventQR", err)
		return
	}
	if _, err := h.Events.GetEvent(r.Context(), id); err != nil {
		h.fail(w, "EventQR", err)
		return
	}
	png, err := h.QR.EventQR(id)
	if err != nil {
		h.fail(w, "EventQR", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	in, err := h.readInput(w, r)
	if err != nil {
		h.fail(w, "CreateEvent", err)
		return
	}
	ev, err := h.Events.CreateEvent(r.Context(), identity.UserID, in)
	if err != nil {
		h.fail(w, "CreateEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, ev)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	id, err := EventID(r)
	if err != nil {
		h.fail(w, "UpdateEvent", err)
		return
	}
	in, err := h.readInput(w, r)
	if err != nil {
		h.fail(w, "UpdateEvent", err)
		return
	}
	ev, err := h.Events.UpdateEvent(r.Context(), identity.UserID, id, in)
	if err != nil {
		h.fail(w, "UpdateEvent", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ev)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	id, err := EventID(r)
	if err != nil {
		h.fail(w, "DeleteEvent", err)
		return
	}
	if err := h.Events.DeleteEvent(r.Context(), identity.UserID, id); err != nil {
		h.fail(w, "DeleteEvent", err)
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Event deleted successfully")
}

func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	h.Images.Serve(w, r, chi.URLParam(r, "filename"))
}

// readInput accepts either a multipart form, with an optional "image" file
// part, or a JSON body.
func (h *Handler) readInput(w http.ResponseWriter, r *http.Request) (models.EventInput, error) {
	var in models.EventInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := utils.DecodeJSON(r, &in)
		return in, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, apperr.Errorf(apperr.ErrValidation, "upload exceeds %d bytes", h.MaxUploadBytes)
		}
		return in, apperr.Errorf(apperr.ErrValidation, "invalid multipart form: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	in = models.EventInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Date:        r.FormValue("date"),
		Time:        r.FormValue("time"),
		Location:    r.FormValue("location"),
		Organizer:   r.FormValue("organizer"),
		Category:    r.FormValue("category"),
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, apperr.Errorf(apperr.ErrValidation, "read image: %v", err)
	}
	defer file.Close()

	ref, err := h.Images.Save(r.Context(), header.Filename, file)
	if err != nil {
		return in, err
	}
	h.Logger.Info("STORAGE", fmt.Sprintf("Stored upload %s as %s", header.Filename, ref))
	in.Image = ref
	return in, nil
}
