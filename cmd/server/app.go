package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/memory"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/platform/redis"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/service/review"
	"github.com/phrazzld/scry-study/internal/service/study"
	"github.com/phrazzld/scry-study/internal/store"
)

// eventLogHandler records every study event in the application log.
type eventLogHandler struct {
	logger *slog.Logger
}

// HandleEvent implements events.EventHandler.
func (h *eventLogHandler) HandleEvent(ctx context.Context, event *events.StudyEvent) error {
	h.logger.Info("study event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("learner_id", event.LearnerID.String()),
		slog.String("deck_id", event.DeckID.String()))
	return nil
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	now    func() time.Time

	// Stores
	reviewStore  store.ReviewStateStore
	sessionStore store.SessionStore

	// Services
	jwtService    auth.JWTService
	srsService    srs.Service
	reviewService *review.Service
	studyManager  *study.Manager

	// Event system
	eventEmitter *events.AsyncEmitter
	publisher    *redis.EventPublisher
}

// newApplication creates a new application instance with all dependencies initialized.
// db is nil when the memory storage driver is configured.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		now:    time.Now,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres storage selected without a database connection")
		}
		app.reviewStore = postgres.NewPostgresReviewStateStore(db, logger)
		app.sessionStore = postgres.NewPostgresSessionStore(db, logger)
	case config.StorageDriverMemory:
		app.reviewStore = memory.NewReviewStateStore(logger)
		app.sessionStore = memory.NewSessionStore(memory.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if err := app.setupEvents(ctx); err != nil {
		return nil, err
	}

	app.srsService = srs.NewServiceWithParams(srs.NewParams(srs.ParamsConfig{
		InitialEaseFactor: cfg.Scheduling.InitialEaseFactor,
		MinEaseFactor:     cfg.Scheduling.MinEaseFactor,
		FirstInterval:     cfg.Scheduling.FirstInterval,
		SecondInterval:    cfg.Scheduling.SecondInterval,
		LapseInterval:     cfg.Scheduling.LapseInterval,
	}))
	app.reviewService = review.NewService(app.reviewStore, app.srsService, logger)
	app.studyManager = study.NewManager(
		app.sessionStore,
		app.reviewService,
		study.WithEphemeralStore(memory.NewEphemeralSessionStore(
			memory.WithLogger(logger),
			memory.WithTTL(cfg.Storage.EphemeralTTL))),
		study.WithEventEmitter(app.eventEmitter),
		study.WithLogger(logger),
	)

	logger.Info("application initialized successfully")
	return app, nil
}

// setupEvents builds the event pipeline: an asynchronous queue feeding the
// in-memory fan-out, which logs every event and optionally publishes it to Redis.
func (app *application) setupEvents(ctx context.Context) error {
	fanout := events.NewInMemoryEventEmitter(app.logger)
	fanout.RegisterHandler(&eventLogHandler{logger: app.logger.With(slog.String("component", "study_events"))})

	if app.config.Redis.Enabled {
		publisher, err := redis.NewEventPublisher(ctx, app.config.Redis, app.logger)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
		app.publisher = publisher
		fanout.RegisterHandler(publisher)
		app.logger.Info("redis event publisher connected",
			slog.String("addr", app.config.Redis.Addr),
			slog.String("channel", app.config.Redis.Channel))
	}

	cfg := events.DefaultAsyncEmitterConfig()
	cfg.QueueSize = app.config.Events.QueueSize
	cfg.WorkerCount = app.config.Events.WorkerCount
	app.eventEmitter = events.NewAsyncEmitter(fanout, cfg, app.logger)
	app.eventEmitter.Start()
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
// Queued events are delivered before the publisher and database are closed.
func (app *application) cleanup() {
	if app.eventEmitter != nil {
		app.eventEmitter.Stop()
		if dropped := app.eventEmitter.Dropped(); dropped > 0 {
			app.logger.Warn("study events were dropped during this run", slog.Int64("dropped", dropped))
		}
	}

	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("error closing event publisher", slog.String("error", err.Error()))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
