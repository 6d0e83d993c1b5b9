package user_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campus-events/internal/apperr"
	"campus-events/internal/auth"
	"campus-events/internal/logger"
	"campus-events/internal/models"
	"campus-events/internal/utils"
)

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	Profile(ctx context.Context, id int64) (*models.User, error)
}

// Revoker denylists a token id until it expires.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type Handler struct {
	Users   UserService
	Issuer  *auth.TokenIssuer
	Cookies auth.CookieConfig
	// Revocations is optional; without it logout only clears the cookie.
	Revocations Revoker
	Logger      *logger.Logger
}

type LoginResponse struct {
	Message string       `json:"message"`
	User    *models.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	user, err := h.Users.Register(r.Context(), req)
	switch {
	case errors.Is(err, apperr.ErrConflict):
		utils.WriteError(w, http.StatusConflict, "Email already registered")
		return
	case err != nil:
		h.Logger.Error("API", fmt.Sprintf("Register: %v", err))
		utils.WriteAppError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteAppError(w, err)
		return
	}

	user, err := h.Users.Login(r.Context(), req)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, apperr.ErrInvalidCredentials):
		utils.WriteError(w, http.StatusUnauthorized, "Invalid password")
		return
	case err != nil:
		h.Logger.Error("API", fmt.Sprintf("Login: %v", err))
		utils.WriteAppError(w, err)
		return
	}

	token, _, err := h.Issuer.Issue(user)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Login: issue token for user %d: %v", user.ID, err))
		utils.WriteAppError(w, err)
		return
	}
	h.Cookies.SetSession(w, token, h.Issuer.TTL())
	h.Logger.Info("AUTH", fmt.Sprintf("User %d logged in", user.ID))

	utils.WriteJSON(w, http.StatusOK, LoginResponse{Message: "Login successful", User: user})
}

// Logout clears the cookie and, when revocation is configured, denylists the
// token so a copy of it stops working too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.Revocations != nil {
		if raw := h.Cookies.Token(r); raw != "" {
			if identity, err := h.Issuer.Verify(raw); err == nil {
				if err := h.Revocations.Revoke(r.Context(), identity.TokenID, identity.ExpiresAt); err != nil {
					h.Logger.Warn("REDIS", fmt.Sprintf("Logout: revoke token of user %d: %v", identity.UserID, err))
				}
			}
		}
	}

	h.Cookies.ClearSession(w)
	utils.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		utils.WriteJSON(w, http.StatusOK, models.AuthStatus{Authenticated: false})
		return
	}
	utils.WriteJSON(w, http.StatusOK, models.AuthStatus{
		Authenticated: true,
		User: &models.SessionUser{
			ID:    identity.UserID,
			Email: identity.Email,
			Role:  identity.Role,
		},
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFrom(r.Context())
	if identity == nil {
		utils.WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.Users.Profile(r.Context(), identity.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Profile: %v", err))
		utils.WriteAppError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
