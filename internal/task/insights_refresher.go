package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/neuropulse/pulse-api/internal/service/insights"
	"github.com/neuropulse/pulse-api/internal/store"
)

// InsightsRefresherConfig holds configuration for the insights refresher.
type InsightsRefresherConfig struct {
	// Interval is how often every owner's snapshot is recomputed.
	// If zero, defaults to 15 minutes.
	Interval time.Duration

	// OwnerTimeout bounds the recompute of a single owner's snapshot.
	// If zero, defaults to 30 seconds.
	OwnerTimeout time.Duration
}

// DefaultInsightsRefresherConfig returns an InsightsRefresherConfig with
// reasonable defaults.
func DefaultInsightsRefresherConfig() InsightsRefresherConfig {
	return InsightsRefresherConfig{
		Interval:     15 * time.Minute,
		OwnerTimeout: 30 * time.Second,
	}
}

// InsightsRefresher periodically recomputes cached insights for every owner
// with cards, so the analytics endpoint rarely pays the compute cost inline.
type InsightsRefresher struct {
	cards      store.CardStore
	insights   insights.InsightsService
	config     InsightsRefresherConfig
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewInsightsRefresher creates a new InsightsRefresher.
func NewInsightsRefresher(
	cards store.CardStore,
	insightsService insights.InsightsService,
	config InsightsRefresherConfig,
	logger *slog.Logger,
) *InsightsRefresher {
	if cards == nil {
		panic("cards store cannot be nil")
	}
	if insightsService == nil {
		panic("insights service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.Interval == 0 {
		config.Interval = 15 * time.Minute
	}
	if config.OwnerTimeout == 0 {
		config.OwnerTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &InsightsRefresher{
		cards:      cards,
		insights:   insightsService,
		config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "insights_refresher")),
	}
}

// Start launches the refresh loop in a background goroutine.
func (r *InsightsRefresher) Start() {
	r.wg.Add(1)
	go r.loop()
}

// Stop cancels the refresh loop and waits for it to exit.
func (r *InsightsRefresher) Stop() {
	r.cancelFunc()
	r.wg.Wait()
}

func (r *InsightsRefresher) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping insights refresher")
			return

		case <-ticker.C:
			r.RefreshAll(r.ctx)
		}
	}
}

// RefreshAll recomputes the cached snapshot for every owner with cards. A
// failure for one owner is logged and does not stop the sweep.
func (r *InsightsRefresher) RefreshAll(ctx context.Context) {
	started := time.Now()

	owners, err := r.cards.ListOwners(ctx)
	if err != nil {
		r.logger.Error("failed to list owners for insights refresh",
			slog.String("error", err.Error()))
		return
	}

	var refreshed int
	for _, ownerID := range owners {
		if ctx.Err() != nil {
			return
		}

		ownerCtx, cancel := context.WithTimeout(ctx, r.config.OwnerTimeout)
		_, err := r.insights.Refresh(ownerCtx, ownerID)
		cancel()
		if err != nil {
			r.logger.Error("failed to refresh owner insights",
				slog.String("owner_id", ownerID.String()),
				slog.String("error", err.Error()))
			continue
		}
		refreshed++
	}

	r.logger.Info("insights refresh sweep completed",
		slog.Int("owners", len(owners)),
		slog.Int("refreshed", refreshed),
		slog.Duration("elapsed", time.Since(started)))
}
