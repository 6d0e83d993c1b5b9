package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"campus-events/internal/apperr"
	"campus-events/internal/database"
	"campus-events/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetRSVP returns apperr.ErrNotFound when the user has not responded yet.
func (d *DB) GetRSVP(ctx context.Context, userID, eventID int64) (*models.RSVP, error) {
	var rsvp models.RSVP
	err := d.Bun.NewSelect().
		Model(&rsvp).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rsvp user=%d event=%d: %w", userID, eventID, database.Classify(err))
	}
	return &rsvp, nil
}

// InsertRSVP inserts a new response. When a concurrent request already
// inserted a row for the same (user, event), the unique constraint turns the
// insert into an update of that row instead of a second row.
func (d *DB) InsertRSVP(ctx context.Context, rsvp *models.RSVP) error {
	now := time.Now().UTC()
	rsvp.CreatedAt = now
	rsvp.UpdatedAt = now

	_, err := d.Bun.NewInsert().
		Model(rsvp).
		ExcludeColumn("id").
		On("CONFLICT (user_id, event_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert rsvp user=%d event=%d: %w", rsvp.UserID, rsvp.EventID, database.Classify(err))
	}
	return nil
}

// UpdateRSVPStatus changes the status of an existing response.
func (d *DB) UpdateRSVPStatus(ctx context.Context, userID, eventID int64, status models.RSVPStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.RSVP)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update rsvp user=%d event=%d: %w", userID, eventID, database.Classify(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update rsvp user=%d event=%d: %w", userID, eventID, apperr.ErrNotFound)
	}
	return nil
}

func (d *DB) ListRSVPsForEvent(ctx context.Context, eventID int64) ([]models.RSVP, error) {
	rsvps := make([]models.RSVP, 0)
	err := d.Bun.NewSelect().
		Model(&rsvps).
		Where("event_id = ?", eventID).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rsvps for event %d: %w", eventID, database.Classify(err))
	}
	return rsvps, nil
}

// ListEventsForUser returns the events userID responded to, earliest first,
// each with the user's status.
func (d *DB) ListEventsForUser(ctx context.Context, userID int64) ([]models.MyEvent, error) {
	rows := make([]models.MyEvent, 0)
	err := d.Bun.NewSelect().
		TableExpr("events AS e").
		ColumnExpr("e.*").
		ColumnExpr("r.status AS rsvp_status").
		Join("JOIN rsvps AS r ON r.event_id = e.id").
		Where("r.user_id = ?", userID).
		OrderExpr("e.date ASC, e.time ASC, e.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list events for user %d: %w", userID, database.Classify(err))
	}
	return rows, nil
}
