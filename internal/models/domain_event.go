package models

import (
	"encoding/json"
	"time"
)

type DomainEventType string

const (
	EventCreated DomainEventType = "event.created"
	EventUpdated DomainEventType = "event.updated"
	EventDeleted DomainEventType = "event.deleted"
	RSVPRecorded DomainEventType = "rsvp.recorded"
)

// DomainEvent is the envelope published to the message bus after a change
// has been committed.
type DomainEvent struct {
	Type       DomainEventType `json:"type"`
	EntityID   int64           `json:"entity_id"`
	UserID     int64           `json:"user_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

func NewDomainEvent(t DomainEventType, entityID, userID int64, payload any) (DomainEvent, error) {
	ev := DomainEvent{
		Type:       t,
		EntityID:   entityID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return DomainEvent{}, err
		}
		ev.Payload = raw
	}
	return ev, nil
}
