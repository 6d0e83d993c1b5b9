// Package server assembles the HTTP API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"campus-events/internal/auth"
	"campus-events/internal/events/event_api"
	"campus-events/internal/logger"
	"campus-events/internal/rsvp/rsvp_api"
	"campus-events/internal/users/user_api"
	"campus-events/internal/utils"
)

// Pinger is satisfied by *bun.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handlers struct {
	Users  *user_api.Handler
	Events *event_api.Handler
	RSVPs  *rsvp_api.Handler
}

type Options struct {
	AllowedOrigins []string
	Auth           *auth.Middleware
	DB             Pinger
	Logger         *logger.Logger
}

func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(opts.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(opts.Auth.Authenticate)

	// --- Public Routes ---
	r.Get("/healthz", healthz(opts.DB))
	r.Post("/register", h.Users.Register)
	r.Post("/login", h.Users.Login)
	r.Post("/logout", h.Users.Logout)
	r.Get("/auth-status", h.Users.AuthStatus)

	r.Get("/events", h.Events.ListEvents)
	r.Get("/events/category/{category}", h.Events.ListByCategory)
	r.Get("/calendar-events", h.Events.CalendarEvents)
	r.Get("/event/{id}", h.Events.GetEvent)
	r.Get("/event/{id}/qr", h.Events.EventQR)
	r.Get("/uploads/{filename}", h.Events.ServeUpload)
	opts.Logger.Info("ROUTER", "Public routes registered")

	// --- Authenticated Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/profile", h.Users.Profile)
		r.Get("/my-events", h.RSVPs.MyEvents)
		r.Post("/event/{id}/rsvp", h.RSVPs.Submit)
		r.Get("/event/{id}/my-rsvp", h.RSVPs.Mine)
	})
	opts.Logger.Info("ROUTER", "Authenticated routes registered")

	// --- Admin Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Post("/createEvent", h.Events.CreateEvent)
		r.Put("/event/{id}", h.Events.UpdateEvent)
		r.Delete("/event/{id}", h.Events.DeleteEvent)
		r.Get("/event/{id}/rsvps", h.RSVPs.Attendance)
	})
	opts.Logger.Info("ROUTER", "Admin routes registered")

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteError(w, http.StatusNotFound, "Route not found")
	})
	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			utils.WriteError(w, http.StatusServiceUnavailable, fmt.Sprintf("database unavailable: %v", err))
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
