package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Category string

const (
	CategoryClubActivities Category = "club_activities"
	CategoryWorkshops      Category = "workshops"
	CategorySeminars       Category = "seminars"
)

func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryClubActivities, CategoryWorkshops, CategorySeminars:
		return Category(s), nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// DateLayout is the wire format of Event.Date in requests.
const DateLayout = "2006-01-02"

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description,notnull" json:"description"`
	Date        time.Time `bun:"date,notnull,type:date" json:"date"`
	Time        string    `bun:"time,notnull" json:"time"`
	Location    string    `bun:"location,notnull" json:"location"`
	Organizer   string    `bun:"organizer,notnull" json:"organizer"`
	Category    Category  `bun:"category,notnull" json:"category"`
	Image       string    `bun:"image,nullzero" json:"image,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// EventInput is the field set accepted by create and update. Update replaces
// every field; Image stays untouched when empty.
type EventInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Organizer   string `json:"organizer"`
	Category    string `json:"category"`
	Image       string `json:"-"`
}

// ListOrder selects the ordering of event listings.
type ListOrder string

const (
	OrderDateAsc     ListOrder = "date_asc"
	OrderCreatedDesc ListOrder = "created_desc"
)

func ParseListOrder(s string) (ListOrder, error) {
	switch ListOrder(s) {
	case OrderDateAsc, OrderCreatedDesc:
		return ListOrder(s), nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

// MyEvent is an event joined with the caller's RSVP status.
type MyEvent struct {
	Event
	RSVPStatus RSVPStatus `bun:"rsvp_status" json:"rsvp_status"`
}
