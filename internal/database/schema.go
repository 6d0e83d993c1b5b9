package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"

	"campus-events/internal/models"
)

// CreateSchema builds the tables straight from the models. Production uses
// the SQL migrations; this is for SQLite-backed tests and local tooling.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewCreateTable().Model((*models.Event)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewCreateTable().
			Model((*models.RSVP)(nil)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
			ForeignKey(`("event_id") REFERENCES "events" ("id") ON DELETE CASCADE`).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("CreateSchema: %w", err)
	}
	return nil
}
