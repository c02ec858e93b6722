package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the pgx stdlib driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/neuropulse/pulse-api/internal/config"
	"github.com/neuropulse/pulse-api/internal/domain/srs"
	"github.com/neuropulse/pulse-api/internal/events"
	"github.com/neuropulse/pulse-api/internal/platform/memory"
	"github.com/neuropulse/pulse-api/internal/platform/postgres"
	"github.com/neuropulse/pulse-api/internal/service/insights"
	"github.com/neuropulse/pulse-api/internal/service/review"
	"github.com/neuropulse/pulse-api/internal/service/study"
	"github.com/neuropulse/pulse-api/internal/store"
	"github.com/neuropulse/pulse-api/internal/task"
)

// insightsInvalidator drops the owner's cached insights snapshot when a
// review is recorded.
type insightsInvalidator struct {
	insights insights.InsightsService
}

func (h *insightsInvalidator) HandleEvent(_ context.Context, event *events.ReviewRecordedEvent) error {
	h.insights.Invalidate(event.OwnerID)
	return nil
}

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cardStore store.CardStore
	scheduler srs.Scheduler

	reviewService   review.CardReviewService
	studyService    study.StudyService
	insightsService insights.InsightsService

	insightsRefresher *task.InsightsRefresher
}

// newApplication creates a new application instance with all dependencies
// initialized. An empty database URL selects the in-memory card store, which
// is intended for development and tests.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if cfg.Database.URL != "" {
		db, err := openDatabase(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.db = db
		app.cardStore = postgres.NewPostgresCardStore(db, logger)
		logger.Info("using postgres card store")
	} else {
		app.cardStore = memory.NewMemoryCardStore()
		logger.Info("using in-memory card store")
	}

	app.scheduler = srs.NewScheduler(schedulerParams(cfg.Scheduler), nil)

	var err error
	app.insightsService, err = insights.NewInsightsService(
		app.cardStore,
		cfg.Insights.CacheTTL,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create insights service: %w", err)
	}

	// Reviews invalidate the owner's cached insights through the event bus,
	// so the analytics endpoint reflects the review on the next request.
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(&insightsInvalidator{insights: app.insightsService})

	app.reviewService = review.NewCardReviewService(
		app.cardStore,
		app.scheduler,
		logger,
		review.WithEventEmitter(emitter),
	)
	app.studyService = study.NewStudyService(
		app.cardStore,
		cfg.Study.UpcomingWindowDays,
		logger,
	)

	app.insightsRefresher = task.NewInsightsRefresher(
		app.cardStore,
		app.insightsService,
		task.InsightsRefresherConfig{Interval: cfg.Insights.RefreshInterval},
		logger,
	)
	app.insightsRefresher.Start()

	logger.Info("application initialized successfully")
	return app, nil
}

// schedulerParams maps the configurable scheduling thresholds onto the
// default parameter set.
func schedulerParams(cfg config.SchedulerConfig) *srs.Params {
	params := srs.NewDefaultParams()
	params.GraduationInterval = cfg.GraduationIntervalDays
	params.ReviewStageRepetitions = cfg.ReviewStageRepetitions
	params.MatureStageInterval = cfg.MatureIntervalDays
	return params
}

// openDatabase opens and verifies the PostgreSQL connection.
func openDatabase(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.insightsRefresher != nil {
		app.insightsRefresher.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection",
				slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}
