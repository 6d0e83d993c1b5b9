package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"campus-events/internal/database"
	"campus-events/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateUser inserts user and fills in its generated id. A taken email is
// reported as apperr.ErrConflict.
func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err := d.Bun.NewInsert().Model(user).Exec(ctx); err != nil {
		return fmt.Errorf("insert user %s: %w", user.Email, database.Classify(err))
	}
	return nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", email, database.Classify(err))
	}
	return &user, nil
}

func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, database.Classify(err))
	}
	return &user, nil
}
