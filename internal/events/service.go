package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campus-events/internal/apperr"
	"campus-events/internal/kafka"
	"campus-events/internal/logger"
	"campus-events/internal/models"
	"campus-events/internal/utils"
)

type DBLayer interface {
	CreateEvent(ctx context.Context, ev *models.Event) error
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	ListEvents(ctx context.Context, order models.ListOrder) ([]models.Event, error)
	ListEventsByCategory(ctx context.Context, category models.Category, order models.ListOrder) ([]models.Event, error)
	ListEventsBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
	UpdateEvent(ctx context.Context, ev *models.Event) (string, error)
	DeleteEvent(ctx context.Context, id int64) (string, error)
}

// ImageRemover deletes a stored image by its reference.
type ImageRemover interface {
	Remove(ctx context.Context, ref string) error
}

const imageRemovalTimeout = 30 * time.Second

type EventService struct {
	DB           DBLayer
	Images       ImageRemover
	Publisher    kafka.Publisher
	Logger       *logger.Logger
	DefaultOrder models.ListOrder
}

func NewEventService(db DBLayer, images ImageRemover, publisher kafka.Publisher, log *logger.Logger, defaultOrder models.ListOrder) *EventService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	if defaultOrder == "" {
		defaultOrder = models.OrderDateAsc
	}
	return &EventService{
		DB:           db,
		Images:       images,
		Publisher:    publisher,
		Logger:       log,
		DefaultOrder: defaultOrder,
	}
}

// buildEvent checks presence of every required field and parses the date
// and category. Nothing beyond that is validated.
func buildEvent(in models.EventInput) (*models.Event, error) {
	fields := map[string]string{
		"title":       in.Title,
		"description": in.Description,
		"date":        in.Date,
		"time":        in.Time,
		"location":    in.Location,
		"organizer":   in.Organizer,
		"category":    in.Category,
	}
	var missing []string
	for _, name := range []string{"title", "description", "date", "time", "location", "organizer", "category"} {
		if strings.TrimSpace(fields[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Errorf(apperr.ErrValidation, "missing %s", strings.Join(missing, ", "))
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return nil, apperr.Errorf(apperr.ErrValidation, "date %q", in.Date)
	}
	category, err := models.ParseCategory(strings.TrimSpace(in.Category))
	if err != nil {
		return nil, apperr.Errorf(apperr.ErrValidation, "%v", err)
	}

	return &models.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Date:        date,
		Time:        strings.TrimSpace(in.Time),
		Location:    strings.TrimSpace(in.Location),
		Organizer:   strings.TrimSpace(in.Organizer),
		Category:    category,
		Image:       in.Image,
	}, nil
}

// parseDate accepts a plain date or a full RFC 3339 timestamp, which is what
// date pickers and the JSON encoding of Event.Date send back.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(models.DateLayout, s); err == nil {
		return d, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (s *EventService) order(order models.ListOrder) models.ListOrder {
	if order == "" {
		return s.DefaultOrder
	}
	return order
}

func (s *EventService) CreateEvent(ctx context.Context, actorID int64, in models.EventInput) (*models.Event, error) {
	ev, err := buildEvent(in)
	if err != nil {
		s.discardImage(in.Image)
		return nil, err
	}
	if err := s.DB.CreateEvent(ctx, ev); err != nil {
		s.discardImage(in.Image)
		return nil, err
	}

	s.Logger.LogEvent("CREATE", ev.ID, fmt.Sprintf("%q by user %d", ev.Title, actorID))
	s.publish(ctx, models.EventCreated, ev.ID, actorID, ev)
	return ev, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return s.DB.GetEventByID(ctx, id)
}

func (s *EventService) ListEvents(ctx context.Context, order models.ListOrder) ([]models.Event, error) {
	return s.DB.ListEvents(ctx, s.order(order))
}

func (s *EventService) ListByCategory(ctx context.Context, category string, order models.ListOrder) ([]models.Event, error) {
	c, err := models.ParseCategory(category)
	if err != nil {
		return nil, apperr.Errorf(apperr.ErrValidation, "%v", err)
	}
	return s.DB.ListEventsByCategory(ctx, c, s.order(order))
}

// CalendarEvents returns the events of month ("YYYY-MM"), or every event in
// date order when month is empty.
func (s *EventService) CalendarEvents(ctx context.Context, month string) ([]models.Event, error) {
	if month == "" {
		return s.DB.ListEvents(ctx, models.OrderDateAsc)
	}
	from, to, err := utils.MonthRange(month)
	if err != nil {
		return nil, apperr.Errorf(apperr.ErrValidation, "%v", err)
	}
	return s.DB.ListEventsBetween(ctx, from, to)
}

// UpdateEvent replaces every field of event id. When in carries no image the
// stored one is kept; when it carries a new one the old file is removed.
func (s *EventService) UpdateEvent(ctx context.Context, actorID, id int64, in models.EventInput) (*models.Event, error) {
	ev, err := buildEvent(in)
	if err != nil {
		s.discardImage(in.Image)
		return nil, err
	}
	ev.ID = id

	replaced, err := s.DB.UpdateEvent(ctx, ev)
	if err != nil {
		s.discardImage(in.Image)
		return nil, err
	}
	s.discardImage(replaced)

	s.Logger.LogEvent("UPDATE", ev.ID, fmt.Sprintf("%q by user %d", ev.Title, actorID))
	s.publish(ctx, models.EventUpdated, ev.ID, actorID, ev)
	return ev, nil
}

// DeleteEvent removes the event and its RSVPs. The stored image is removed
// afterwards; a failure there is logged and does not fail the delete.
func (s *EventService) DeleteEvent(ctx context.Context, actorID, id int64) error {
	image, err := s.DB.DeleteEvent(ctx, id)
	if err != nil {
		return err
	}
	s.discardImage(image)

	s.Logger.LogEvent("DELETE", id, fmt.Sprintf("by user %d", actorID))
	s.publish(ctx, models.EventDeleted, id, actorID, nil)
	return nil
}

func (s *EventService) discardImage(ref string) {
	if ref == "" || s.Images == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), imageRemovalTimeout)
		defer cancel()
		if err := s.Images.Remove(ctx, ref); err != nil {
			s.Logger.Error("STORAGE", fmt.Sprintf("Failed to remove image %s: %v", ref, err))
			return
		}
		s.Logger.Info("STORAGE", fmt.Sprintf("Removed image %s", ref))
	}()
}

func (s *EventService) publish(ctx context.Context, t models.DomainEventType, entityID, userID int64, payload any) {
	ev, err := models.NewDomainEvent(t, entityID, userID, payload)
	if err == nil {
		err = s.Publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for event %d: %v", t, entityID, err))
	}
}
