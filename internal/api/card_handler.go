// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/neuropulse/pulse-api/internal/api/shared"
	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/domain/srs"
	"github.com/neuropulse/pulse-api/internal/platform/logger"
	"github.com/neuropulse/pulse-api/internal/service/review"
)

// defaultDifficultyFelt is assumed when the learner does not report how hard
// the review felt.
const defaultDifficultyFelt = 3

// CardHandler handles card-related HTTP requests
type CardHandler struct {
	reviewService review.CardReviewService
	logger        *slog.Logger
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(
	reviewService review.CardReviewService,
	logger *slog.Logger,
) *CardHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("review service cannot be nil for CardHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "card_handler")),
	}
}

// CreateCard handles POST /api/owners/{ownerID}/cards requests.
// It creates a card with default scheduling state for the owner.
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, err := getPathUUID(r, "ownerID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	var req CreateCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("failed to decode create card request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	content := domain.CardContent{
		Question:        req.Question,
		Answer:          req.Answer,
		Explanation:     req.Explanation,
		SubjectCategory: req.SubjectCategory,
		Topic:           req.Topic,
		Tags:            req.Tags,
		DifficultyLevel: req.DifficultyLevel,
	}

	card, err := h.reviewService.CreateCard(r.Context(), ownerID, content)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("card created",
		slog.String("owner_id", ownerID.String()),
		slog.String("card_id", card.CardID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// GetCard handles GET /api/owners/{ownerID}/cards/{id} requests.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	ownerID, err := getPathUUID(r, "ownerID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}
	cardID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	card, err := h.reviewService.GetCard(r.Context(), ownerID, cardID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// SubmitReview handles POST /api/owners/{ownerID}/cards/{id}/review requests.
// It processes a review outcome and returns the updated schedule.
func (h *CardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	ownerID, err := getPathUUID(r, "ownerID")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}
	cardID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	var req ReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("failed to decode review request", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if req.DifficultyFelt == 0 {
		req.DifficultyFelt = defaultDifficultyFelt
	}

	submission := srs.ReviewSubmission{
		Quality:             req.Quality,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		DifficultyFelt:      req.DifficultyFelt,
		EnergyLevel:         req.EnergyLevel,
		TimeOfDayHour:       req.TimeOfDayHour,
	}

	result, err := h.reviewService.SubmitReview(r.Context(), ownerID, cardID, submission)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("review submitted",
		slog.String("owner_id", ownerID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("quality", req.Quality),
		slog.String("stage", string(result.GraduationStage)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
