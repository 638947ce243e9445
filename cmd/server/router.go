package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-study/internal/api"
	apiMiddleware "github.com/phrazzld/scry-study/internal/api/middleware"
	"github.com/phrazzld/scry-study/internal/api/shared"
)

// healthCheckTimeout bounds the database ping of /health.
const healthCheckTimeout = 2 * time.Second

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	studyHandler := api.NewStudyHandler(app.studyManager, app.logger)
	reviewHandler := api.NewReviewHandler(app.reviewService, app.now, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// Study session endpoints
		r.Route("/decks/{deckID}/session", func(r chi.Router) {
			r.Post("/", studyHandler.BeginSession)
			r.Post("/grade", studyHandler.GradeCard)
			r.Post("/advance", studyHandler.Advance)
			r.Post("/retreat", studyHandler.Retreat)
			r.Post("/restart", studyHandler.Restart)
		})

		// Review scheduling endpoints
		r.Get("/reviews/due", reviewHandler.ListDue)
		r.Get("/reviews/due/count", reviewHandler.CountDue)
		r.Post("/reviews/{deckID}/{cardIndex}/postpone", reviewHandler.Postpone)
	})

	r.Get("/health", app.health)

	return r
}

// health reports whether the server can reach its storage.
func (app *application) health(w http.ResponseWriter, r *http.Request) {
	if app.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := app.db.PingContext(ctx); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Database unavailable", err,
				shared.WithRetryAfter(1))
			return
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": app.config.Storage.Driver,
	})
}
