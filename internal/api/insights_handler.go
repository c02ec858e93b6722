package api

import (
	"log/slog"
	"net/http"

	"github.com/neuropulse/pulse-api/internal/api/shared"
	"github.com/neuropulse/pulse-api/internal/platform/logger"
	"github.com/neuropulse/pulse-api/internal/service/insights"
)

// InsightsHandler serves retention analytics snapshots.
type InsightsHandler struct {
	insightsService insights.InsightsService
	logger          *slog.Logger
}

// NewInsightsHandler creates a new InsightsHandler
func NewInsightsHandler(
	insightsService insights.InsightsService,
	logger *slog.Logger,
) *InsightsHandler {
	if insightsService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("insights service cannot be nil for InsightsHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for InsightsHandler")
	}

	return &InsightsHandler{
		insightsService: insightsService,
		logger:          logger.With(slog.String("component", "insights_handler")),
	}
}

// GetInsights handles GET /api/owners/{ownerID}/insights requests. Snapshots
// are cached server-side, so repeated calls are cheap.
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, err := getPathUUID(r, "ownerID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	snapshot, err := h.insightsService.OwnerInsights(r.Context(), ownerID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to compute insights", err)
		return
	}

	log.Debug("insights served",
		slog.String("owner_id", ownerID.String()),
		slog.Int("total_cards", snapshot.TotalCards))
	shared.RespondWithJSON(w, r, http.StatusOK, snapshot)
}
