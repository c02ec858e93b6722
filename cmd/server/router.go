package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/neuropulse/pulse-api/internal/api"
	apiMiddleware "github.com/neuropulse/pulse-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	cardHandler := api.NewCardHandler(app.reviewService, app.logger)
	studyHandler := api.NewStudyHandler(
		app.studyService,
		app.config.Study.DefaultDueLimit,
		app.logger,
	)
	insightsHandler := api.NewInsightsHandler(app.insightsService, app.logger)

	r.Route("/api/owners/{ownerID}", func(r chi.Router) {
		r.Route("/cards", func(r chi.Router) {
			r.Post("/", cardHandler.CreateCard)
			r.Get("/{id}", cardHandler.GetCard)
			r.Post("/{id}/review", cardHandler.SubmitReview)
		})

		r.Route("/study", func(r chi.Router) {
			r.Get("/due", studyHandler.GetDueCards)
			r.Get("/session", studyHandler.GetSession)
		})

		r.Get("/insights", insightsHandler.GetInsights)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
