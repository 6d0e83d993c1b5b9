package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type RSVPStatus string

const (
	RSVPAttending   RSVPStatus = "ATTENDING"
	RSVPUnavailable RSVPStatus = "UNAVAILABLE"
)

func ParseRSVPStatus(s string) (RSVPStatus, error) {
	switch RSVPStatus(s) {
	case RSVPAttending, RSVPUnavailable:
		return RSVPStatus(s), nil
	default:
		return "", fmt.Errorf("unknown rsvp status %q", s)
	}
}

// RSVP is unique per (user_id, event_id).
type RSVP struct {
	bun.BaseModel `bun:"table:rsvps"`

	ID        int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64      `bun:"user_id,notnull,unique:rsvps_user_event" json:"user_id"`
	EventID   int64      `bun:"event_id,notnull,unique:rsvps_user_event" json:"event_id"`
	Status    RSVPStatus `bun:"status,notnull" json:"status"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

type RSVPRequest struct {
	Status string `json:"status"`
}
