package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/domain/srs"
	"github.com/neuropulse/pulse-api/internal/events"
	"github.com/neuropulse/pulse-api/internal/platform/logger"
	"github.com/neuropulse/pulse-api/internal/store"
)

// maxConflictRetries bounds how often a review is recomputed against fresh
// state when concurrent writers keep invalidating the save.
const maxConflictRetries = 3

// Verify interface compliance at compile time
var _ CardReviewService = (*cardReviewServiceImpl)(nil)

// cardReviewServiceImpl implements the CardReviewService interface.
type cardReviewServiceImpl struct {
	cards     store.CardStore
	scheduler srs.Scheduler
	emitter   events.EventEmitter
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes the review service.
type Option func(*cardReviewServiceImpl)

// WithClock overrides the service's time source. Tests use this to pin
// review timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *cardReviewServiceImpl) {
		s.now = now
	}
}

// WithEventEmitter publishes a ReviewRecordedEvent after each persisted
// review. Emission failures are logged, never surfaced to the reviewer.
func WithEventEmitter(emitter events.EventEmitter) Option {
	return func(s *cardReviewServiceImpl) {
		s.emitter = emitter
	}
}

// NewCardReviewService creates a new CardReviewService implementation.
func NewCardReviewService(
	cards store.CardStore,
	scheduler srs.Scheduler,
	logger *slog.Logger,
	opts ...Option,
) CardReviewService {
	if cards == nil {
		panic("cards store cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &cardReviewServiceImpl{
		cards:     cards,
		scheduler: scheduler,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCard implements CardReviewService.CreateCard.
func (s *cardReviewServiceImpl) CreateCard(
	ctx context.Context,
	ownerID uuid.UUID,
	content domain.CardContent,
) (*domain.LearningCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewLearningCard(ownerID, content, s.now())
	if err != nil {
		log.Warn("card creation rejected",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewCreateCardError("invalid card content", err)
	}

	if err := s.cards.Create(ctx, card); err != nil {
		log.Error("failed to persist new card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.CardID.String()))
		return nil, NewCreateCardError("failed to persist card", err)
	}

	log.Debug("card created",
		slog.String("card_id", card.CardID.String()),
		slog.String("owner_id", ownerID.String()))
	return card, nil
}

// GetCard implements CardReviewService.GetCard.
func (s *cardReviewServiceImpl) GetCard(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
) (*domain.LearningCard, error) {
	card, err := s.cards.Get(ctx, ownerID, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// SubmitReview implements CardReviewService.SubmitReview.
func (s *cardReviewServiceImpl) SubmitReview(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
	submission srs.ReviewSubmission,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing review",
		slog.String("owner_id", ownerID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("quality", submission.Quality))

	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		card, err := s.cards.Get(ctx, ownerID, cardID)
		if err != nil {
			if store.IsNotFoundError(err) {
				return nil, ErrCardNotFound
			}
			return nil, NewSubmitReviewError("failed to load card", err)
		}

		next, outcome, err := s.scheduler.Review(card, submission, s.now())
		if err != nil {
			// Scheduler errors are input validation failures: reject before
			// any mutation and do not retry.
			log.Warn("review submission rejected",
				slog.String("error", err.Error()),
				slog.String("card_id", cardID.String()))
			return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
		}

		if err := s.cards.Save(ctx, next); err != nil {
			if store.IsConflictError(err) {
				// Another reviewer won the race; recompute against the
				// fresh state.
				lastErr = err
				log.Debug("review save conflicted, retrying",
					slog.String("card_id", cardID.String()),
					slog.Int("attempt", attempt+1))
				continue
			}
			return nil, NewSubmitReviewError("failed to save card", err)
		}

		log.Info("review processed",
			slog.String("card_id", cardID.String()),
			slog.Int("quality", submission.Quality),
			slog.Int("interval_days", outcome.IntervalDays),
			slog.String("stage", string(outcome.GraduationStage)))

		if s.emitter != nil {
			event := events.NewReviewRecordedEvent(ownerID, cardID, submission.Quality)
			if err := s.emitter.EmitEvent(ctx, event); err != nil {
				log.Warn("failed to emit review event",
					slog.String("card_id", cardID.String()),
					slog.String("error", err.Error()))
			}
		}

		return &ReviewResult{
			CardID:            cardID,
			NextReviewAt:      outcome.NextReviewAt.Format(time.RFC3339),
			IntervalDays:      outcome.IntervalDays,
			EaseFactor:        outcome.EaseFactor,
			GraduationStage:   outcome.GraduationStage,
			RetentionStrength: outcome.RetentionStrength,
			Trend:             outcome.Trend,
			Recommendation:    outcome.Recommendation,
		}, nil
	}

	log.Warn("review retries exhausted",
		slog.String("card_id", cardID.String()),
		slog.String("error", errString(lastErr)))
	return nil, fmt.Errorf("%w: %v", ErrReviewConflict, lastErr)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
