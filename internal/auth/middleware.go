package auth

import (
	"context"
	"fmt"
	"net/http"

	"campus-events/internal/apperr"
	"campus-events/internal/logger"
	"campus-events/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

var (
	errNoSession = apperr.Errorf(apperr.ErrUnauthenticated, "Authentication required")
	errNotAdmin  = apperr.Errorf(apperr.ErrForbidden, "Admin access required")
)

// RevocationChecker reports whether a token id was logged out early.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Middleware struct {
	Issuer      *TokenIssuer
	Cookies     CookieConfig
	Revocations RevocationChecker
	Logger      *logger.Logger
}

// Authenticate attaches the session identity to the request context when the
// cookie holds a valid token. It never rejects; RequireAuth and RequireAdmin do.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := m.Cookies.Token(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.Issuer.Verify(raw)
		if err != nil {
			m.Logger.Debug("AUTH", fmt.Sprintf("Ignoring session cookie: %v", err))
			next.ServeHTTP(w, r)
			return
		}

		if m.Revocations != nil {
			revoked, err := m.Revocations.IsRevoked(r.Context(), identity.TokenID)
			if err != nil {
				m.Logger.Warn("REDIS", fmt.Sprintf("Revocation lookup failed, accepting token: %v", err))
			} else if revoked {
				m.Logger.LogSecurity("REVOKED_TOKEN", fmt.Sprintf("user=%d presented a logged-out token", identity.UserID))
				next.ServeHTTP(w, r)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireAuth rejects requests without a session with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()) == nil {
			utils.WriteAppError(w, errNoSession)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests without a session with 401 and non-admin
// sessions with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFrom(r.Context())
		if identity == nil {
			utils.WriteAppError(w, errNoSession)
			return
		}
		if !identity.IsAdmin() {
			utils.WriteAppError(w, errNotAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom returns nil for anonymous requests.
func IdentityFrom(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityKey).(*Identity); ok {
		return identity
	}
	return nil
}
