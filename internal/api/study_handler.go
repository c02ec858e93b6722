package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/api/shared"
	"github.com/neuropulse/pulse-api/internal/platform/logger"
	"github.com/neuropulse/pulse-api/internal/service/study"
)

// defaultSessionBudgetSeconds is a 15-minute session when the client does not
// pass budget_seconds.
const defaultSessionBudgetSeconds = 900

// StudyHandler handles due-card listing and session packing requests.
type StudyHandler struct {
	studyService study.StudyService
	defaultLimit int
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler. defaultLimit caps the due-card
// listing when the client does not pass an explicit limit.
func NewStudyHandler(
	studyService study.StudyService,
	defaultLimit int,
	logger *slog.Logger,
) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("study service cannot be nil for StudyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		defaultLimit: defaultLimit,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// GetDueCards handles GET /api/owners/{ownerID}/study/due requests.
// It returns due cards ordered by priority, capped by the limit parameter.
func (h *StudyHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, err := getPathUUID(r, "ownerID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	limit, err := getQueryInt(r, "limit", h.defaultLimit)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	due, err := h.studyService.DueCards(r.Context(), ownerID, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to list due cards", err)
		return
	}

	response := make([]DueCardResponse, 0, len(due))
	for _, entry := range due {
		response = append(response, DueCardResponse{
			CardID:        entry.Card.CardID,
			Question:      entry.Card.Content.Question,
			Subject:       entry.Card.Content.SubjectCategory,
			Stage:         string(entry.Card.GraduationStage),
			NextReviewAt:  entry.Card.NextReviewAt,
			OverdueHours:  entry.OverdueHours,
			PriorityScore: entry.PriorityScore,
		})
	}

	log.Debug("due cards listed",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(response)))
	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// GetSession handles GET /api/owners/{ownerID}/study/session requests.
// It packs due and soon-due cards into the requested time budget.
func (h *StudyHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, err := getPathUUID(r, "ownerID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	budget, err := getQueryFloat(r, "budget_seconds", defaultSessionBudgetSeconds)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	plan, err := h.studyService.PackSession(r.Context(), ownerID, budget)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to build study session", err)
		return
	}

	cardIDs := make([]uuid.UUID, 0, len(plan.Cards))
	for _, planned := range plan.Cards {
		cardIDs = append(cardIDs, planned.Card.CardID)
	}

	log.Debug("study session packed",
		slog.String("owner_id", ownerID.String()),
		slog.Int("cards", len(cardIDs)),
		slog.Float64("budget_seconds", budget))
	shared.RespondWithJSON(w, r, http.StatusOK, SessionResponse{
		CardIDs:          cardIDs,
		EstimatedMinutes: plan.EstimatedMinutes,
		Efficiency:       plan.Efficiency,
	})
}
