package rsvp

import (
	"context"
	"errors"
	"fmt"

	"campus-events/internal/apperr"
	"campus-events/internal/auth"
	"campus-events/internal/kafka"
	"campus-events/internal/logger"
	"campus-events/internal/models"
)

type DBLayer interface {
	GetRSVP(ctx context.Context, userID, eventID int64) (*models.RSVP, error)
	InsertRSVP(ctx context.Context, rsvp *models.RSVP) error
	UpdateRSVPStatus(ctx context.Context, userID, eventID int64, status models.RSVPStatus) error
	ListRSVPsForEvent(ctx context.Context, eventID int64) ([]models.RSVP, error)
	ListEventsForUser(ctx context.Context, userID int64) ([]models.MyEvent, error)
}

// EventChecker reports whether an event exists.
type EventChecker interface {
	EventExists(ctx context.Context, id int64) (bool, error)
}

type RSVPService struct {
	DB        DBLayer
	Events    EventChecker
	Publisher kafka.Publisher
	Logger    *logger.Logger
}

func NewRSVPService(db DBLayer, events EventChecker, publisher kafka.Publisher, log *logger.Logger) *RSVPService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &RSVPService{DB: db, Events: events, Publisher: publisher, Logger: log}
}

func requireIdentity(identity *auth.Identity) error {
	if identity == nil || identity.UserID <= 0 {
		return apperr.ErrUnauthenticated
	}
	return nil
}

// Submit records identity's response to eventID. The first submission
// creates the row, later ones update it in place; two racing first
// submissions are coalesced by the (user_id, event_id) constraint so there
// is never more than one row.
func (s *RSVPService) Submit(ctx context.Context, identity *auth.Identity, eventID int64, rawStatus string) (*models.RSVP, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	status, err := models.ParseRSVPStatus(rawStatus)
	if err != nil {
		return nil, apperr.Errorf(apperr.ErrValidation, "%v", err)
	}

	exists, err := s.Events.EventExists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("event %d: %w", eventID, apperr.ErrNotFound)
	}

	userID := identity.UserID
	existing, err := s.DB.GetRSVP(ctx, userID, eventID)
	switch {
	case err == nil && existing != nil:
		err = s.DB.UpdateRSVPStatus(ctx, userID, eventID, status)
		if errors.Is(err, apperr.ErrNotFound) {
			// the row disappeared between the read and the update
			err = s.DB.InsertRSVP(ctx, &models.RSVP{UserID: userID, EventID: eventID, Status: status})
		}
	case errors.Is(err, apperr.ErrNotFound):
		err = s.DB.InsertRSVP(ctx, &models.RSVP{UserID: userID, EventID: eventID, Status: status})
	}
	if err != nil {
		return nil, err
	}

	saved, err := s.DB.GetRSVP(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	s.Logger.LogRSVP("SUBMIT", userID, eventID, string(saved.Status))
	s.publish(ctx, saved)
	return saved, nil
}

// Mine returns identity's response to eventID, or nil when there is none.
func (s *RSVPService) Mine(ctx context.Context, identity *auth.Identity, eventID int64) (*models.RSVP, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	rsvp, err := s.DB.GetRSVP(ctx, identity.UserID, eventID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rsvp, nil
}

func (s *RSVPService) MyEvents(ctx context.Context, identity *auth.Identity) ([]models.MyEvent, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}
	return s.DB.ListEventsForUser(ctx, identity.UserID)
}

// Attendance lists every response to eventID, most recent first.
func (s *RSVPService) Attendance(ctx context.Context, eventID int64) ([]models.RSVP, error) {
	exists, err := s.Events.EventExists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("event %d: %w", eventID, apperr.ErrNotFound)
	}
	return s.DB.ListRSVPsForEvent(ctx, eventID)
}

func (s *RSVPService) publish(ctx context.Context, rsvp *models.RSVP) {
	ev, err := models.NewDomainEvent(models.RSVPRecorded, rsvp.EventID, rsvp.UserID, rsvp)
	if err == nil {
		err = s.Publisher.Publish(ctx, ev)
	}
	if err != nil {
		s.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for user %d event %d: %v", models.RSVPRecorded, rsvp.UserID, rsvp.EventID, err))
	}
}
