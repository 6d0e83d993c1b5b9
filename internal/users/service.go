package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campus-events/internal/apperr"
	"campus-events/internal/auth"
	"campus-events/internal/logger"
	"campus-events/internal/models"
)

type DBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type UserService struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewUserService(db DBLayer, log *logger.Logger) *UserService {
	return &UserService{DB: db, Logger: log}
}

// Register creates a regular (non-admin) account. Fields are stored as given;
// an empty name or a weak password is accepted. Admins are promoted out of
// band.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			s.Logger.Warn("AUTH", fmt.Sprintf("Registration rejected, email already in use: %s", email))
		}
		return nil, err
	}

	s.Logger.Info("AUTH", fmt.Sprintf("User registered: id=%d email=%s", user.ID, user.Email))
	return user, nil
}

// Login returns apperr.ErrNotFound for an unknown email and
// apperr.ErrInvalidCredentials for a wrong password.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	user, err := s.DB.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for user %d", user.ID))
		return nil, err
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, id int64) (*models.User, error) {
	return s.DB.GetUserByID(ctx, id)
}
