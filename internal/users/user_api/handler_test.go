package user_api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-events/internal/apperr"
	"campus-events/internal/auth"
	"campus-events/internal/logger"
	"campus-events/internal/models"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Profile(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockRevoker struct {
	mock.Mock
}

func (m *MockRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenID, expiresAt)
	return args.Error(0)
}

func newHandler(users *MockUserService) *Handler {
	return &Handler{
		Users:   users,
		Issuer:  auth.NewTokenIssuer("secret", time.Hour),
		Cookies: auth.CookieConfig{Name: "token", Secure: true, CrossSite: true},
		Logger:  logger.NewNop(),
	}
}

func post(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"created", nil, http.StatusCreated},
		{"duplicate", apperr.ErrConflict, http.StatusConflict},
		{"invalid", fmt.Errorf("insert user: %w: %w", apperr.ErrValidation, errors.New(`pq: null value in column "email"`)), http.StatusBadRequest},
		{"storage failure", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &MockUserService{}
			var user *models.User
			if tt.err == nil {
				user = &models.User{ID: 1, Name: "A", Email: "a@campus.edu", Role: models.RoleUser}
			}
			users.On("Register", mock.Anything, mock.Anything).Return(user, tt.err)

			rec := httptest.NewRecorder()
			newHandler(users).Register(rec, post(`{"name":"A","email":"a@campus.edu","password":"pw"}`))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "pq:")
		})
	}
}

func TestLoginSetsCookie(t *testing.T) {
	users := &MockUserService{}
	user := &models.User{ID: 3, Name: "Lin", Email: "lin@campus.edu", Role: models.RoleAdmin}
	users.On("Login", mock.Anything, models.LoginRequest{Email: "lin@campus.edu", Password: "pw"}).Return(user, nil)
	h := newHandler(users)

	rec := httptest.NewRecorder()
	h.Login(rec, post(`{"email":"lin@campus.edu","password":"pw"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	identity, err := h.Issuer.Verify(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, int64(3), identity.UserID)
	assert.Equal(t, models.RoleAdmin, identity.Role)
}

func TestLogoutRevokesWhenConfigured(t *testing.T) {
	h := newHandler(&MockUserService{})
	token, expiresAt, err := h.Issuer.Issue(&models.User{ID: 5, Email: "x@campus.edu", Role: models.RoleUser})
	require.NoError(t, err)
	identity, err := h.Issuer.Verify(token)
	require.NoError(t, err)

	revoker := &MockRevoker{}
	revoker.On("Revoke", mock.Anything, identity.TokenID, mock.MatchedBy(func(t time.Time) bool {
		return t.Unix() == expiresAt.Unix()
	})).Return(errors.New("redis down"))
	h.Revocations = revoker

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	// a revocation failure still logs the user out
	assert.Equal(t, http.StatusOK, rec.Code)
	revoker.AssertExpectations(t)
}

func TestProfileRequiresIdentity(t *testing.T) {
	users := &MockUserService{}
	h := newHandler(users)

	rec := httptest.NewRecorder()
	h.Profile(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	users.On("Profile", mock.Anything, int64(9)).Return(nil, apperr.ErrNotFound)
	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UserID: 9, Role: models.RoleUser}))
	rec = httptest.NewRecorder()
	h.Profile(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
