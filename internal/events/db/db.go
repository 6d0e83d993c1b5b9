package db

import (
	"context"
	"database/sql"
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

func applyOrder(q *bun.SelectQuery, order models.ListOrder) *bun.SelectQuery {
	if order == models.OrderCreatedDesc {
		return q.Order("created_at DESC", "id DESC")
	}
	return q.Order("date ASC", "time ASC", "id ASC")
}

// CreateEvent inserts ev and fills in its id.
func (d *DB) CreateEvent(ctx context.Context, ev *models.Event) error {
	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	if _, err := d.Bun.NewInsert().Model(ev).Exec(ctx); err != nil {
		return fmt.Errorf("insert event: %w", database.Classify(err))
	}
	return nil
}

func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var ev models.Event
	err := d.Bun.NewSelect().
		Model(&ev).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("event %d: %w", id, database.Classify(err))
	}
	return &ev, nil
}

func (d *DB) EventExists(ctx context.Context, id int64) (bool, error) {
	exists, err := d.Bun.NewSelect().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check event %d: %w", id, database.Classify(err))
	}
	return exists, nil
}

func (d *DB) ListEvents(ctx context.Context, order models.ListOrder) ([]models.Event, error) {
	events := make([]models.Event, 0)
	err := applyOrder(d.Bun.NewSelect().Model(&events), order).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", database.Classify(err))
	}
	return events, nil
}

func (d *DB) ListEventsByCategory(ctx context.Context, category models.Category, order models.ListOrder) ([]models.Event, error) {
	events := make([]models.Event, 0)
	q := d.Bun.NewSelect().Model(&events).Where("category = ?", category)
	if err := applyOrder(q, order).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list %s events: %w", category, database.Classify(err))
	}
	return events, nil
}

// ListEventsBetween returns events dated in [from, to), earliest first.
func (d *DB) ListEventsBetween(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	events := make([]models.Event, 0)
	q := d.Bun.NewSelect().
		Model(&events).
		Where("date >= ?", from).
		Where("date < ?", to)
	if err := applyOrder(q, models.OrderDateAsc).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list events between %s and %s: %w", from.Format(models.DateLayout), to.Format(models.DateLayout), database.Classify(err))
	}
	return events, nil
}

// UpdateEvent replaces every editable column of ev. The image column is only
// written when ev.Image is set. It returns the image reference that was
// replaced, if any, so the caller can remove the old file.
func (d *DB) UpdateEvent(ctx context.Context, ev *models.Event) (string, error) {
	var replacedImage string
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var current models.Event
		if err := tx.NewSelect().Model(&current).Where("id = ?", ev.ID).Limit(1).Scan(ctx); err != nil {
			return database.Classify(err)
		}

		columns := []string{"title", "description", "date", "time", "location", "organizer", "category", "updated_at"}
		if ev.Image != "" && ev.Image != current.Image {
			columns = append(columns, "image")
			replacedImage = current.Image
		} else {
			ev.Image = current.Image
		}

		ev.CreatedAt = current.CreatedAt
		ev.UpdatedAt = time.Now().UTC()
		res, err := tx.NewUpdate().
			Model(ev).
			Column(columns...).
			Where("id = ?", ev.ID).
			Exec(ctx)
		if err != nil {
			return database.Classify(err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("update event %d: %w", ev.ID, err)
	}
	return replacedImage, nil
}

// DeleteEvent removes the event's RSVPs and then the event in one
// transaction, returning the image reference the event carried.
func (d *DB) DeleteEvent(ctx context.Context, id int64) (string, error) {
	var image string
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var ev models.Event
		if err := tx.NewSelect().Model(&ev).Column("id", "image").Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
			return database.Classify(err)
		}
		image = ev.Image

		if _, err := tx.NewDelete().Model((*models.RSVP)(nil)).Where("event_id = ?", id).Exec(ctx); err != nil {
			return database.Classify(err)
		}
		if _, err := tx.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return database.Classify(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("delete event %d: %w", id, err)
	}
	return image, nil
}
