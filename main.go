package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"campus-events/internal/auth"
	"campus-events/internal/config"
	"campus-events/internal/database"
	"campus-events/internal/database/migrations"
	"campus-events/internal/events"
	eventsdb "campus-events/internal/events/db"
	"campus-events/internal/events/event_api"
	"campus-events/internal/kafka"
	"campus-events/internal/logger"
	"campus-events/internal/models"
	"campus-events/internal/rsvp"
	rsvpdb "campus-events/internal/rsvp/db"
	"campus-events/internal/rsvp/rsvp_api"
	"campus-events/internal/server"
	"campus-events/internal/share"
	"campus-events/internal/storage"
	"campus-events/internal/users"
	usersdb "campus-events/internal/users/db"
	"campus-events/internal/users/user_api"
)

func setupPublisher(ctx context.Context, cfg config.KafkaConfig, log *logger.Logger) (kafka.Publisher, func()) {
	if !cfg.Enabled {
		log.Info("KAFKA", "KAFKA_ENABLED is false, domain events will not be published")
		return kafka.NopPublisher{}, func() {}
	}

	log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Brokers))
	producer := kafka.NewProducer(cfg.Brokers, cfg.Topics, log)
	if err := kafka.EnsureTopicsExist(ctx, cfg.Brokers, producer.Topics(), log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	return producer, func() {
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Dir, cfg.Log.Prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("APP", "Starting Campus Events API initialization")
	if envErr != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid configuration: %v", err))
	}
	level, _ := logger.ParseLevel(cfg.Log.Level)
	log.SetLevel(level)
	defaultOrder, _ := models.ParseListOrder(cfg.Events.DefaultSort)

	ctx := context.Background()

	log.Info("APP", "Verifying database connection")
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		opts := migrations.MigrateOptions{MigrationsDir: cfg.Database.MigrationsDir, AutoMigrate: true}
		if err := migrations.Apply(cfg.Database.DSN, opts, log); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		log.Info("DATABASE", "Migrations applied")
	}

	revocations, err := auth.InitializeRevocationStore(cfg.Redis, log)
	if err != nil {
		log.Fatal("REDIS", err.Error())
	}
	if revocations != nil {
		defer revocations.Client.Close()
	}

	publisher, closePublisher := setupPublisher(ctx, cfg.Kafka, log)
	defer closePublisher()

	images, err := storage.New(cfg.Uploads, cfg.S3, log)
	if err != nil {
		log.Fatal("STORAGE", err.Error())
	}

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	cookies := auth.CookieConfig{
		Name:      cfg.Auth.CookieName,
		Secure:    cfg.Auth.CookieSecure,
		CrossSite: cfg.Auth.CookieSameSiteNone,
	}
	authMiddleware := &auth.Middleware{Issuer: issuer, Cookies: cookies, Logger: log}
	userHandler := &user_api.Handler{
		Users:   users.NewUserService(&usersdb.DB{Bun: bunDB}, log),
		Issuer:  issuer,
		Cookies: cookies,
		Logger:  log,
	}
	// assigned only when configured so the interfaces stay nil otherwise
	if revocations != nil {
		authMiddleware.Revocations = revocations
		userHandler.Revocations = revocations
	}

	eventStore := &eventsdb.DB{Bun: bunDB}
	handlers := server.Handlers{
		Users: userHandler,
		Events: &event_api.Handler{
			Events:         events.NewEventService(eventStore, images, publisher, log, defaultOrder),
			Images:         images,
			QR:             share.NewQRGenerator(cfg.Frontend.BaseURL),
			MaxUploadBytes: cfg.Uploads.MaxBytes,
			Logger:         log,
		},
		RSVPs: &rsvp_api.Handler{
			RSVPs:  rsvp.NewRSVPService(&rsvpdb.DB{Bun: bunDB}, eventStore, publisher, log),
			Logger: log,
		},
	}

	log.Info("HTTP", "Setting up router and middleware")
	router := server.NewRouter(handlers, server.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Auth:           authMiddleware,
		DB:             bunDB,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Campus Events API running on %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Campus Events API shutdown complete")
	}
}
