// Package study builds review sessions: it ranks an owner's due cards by
// priority and packs a bounded time budget with the most valuable reviews.
package study

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/platform/logger"
	"github.com/neuropulse/pulse-api/internal/store"
)

// Review time estimation constants (seconds).
const (
	baseReviewSeconds = 30.0
	minReviewSeconds  = 15.0
	maxReviewSeconds  = 300.0
)

// stageWeight biases due-card priority toward young cards: an overdue
// Learning card outranks an equally overdue Mature one.
var stageWeight = map[domain.GraduationStage]float64{
	domain.StageLearning: 1.0,
	domain.StageReview:   0.5,
	domain.StageMature:   0.0,
}

// stageTimeFactor scales the estimated review time by lifecycle stage:
// Learning cards need the explanation read, Mature ones are a quick check.
var stageTimeFactor = map[domain.GraduationStage]float64{
	domain.StageLearning: 1.5,
	domain.StageReview:   1.0,
	domain.StageMature:   0.7,
}

// difficultyTimeFactor scales the estimated review time by content
// difficulty level.
var difficultyTimeFactor = map[string]float64{
	domain.DifficultyBeginner:     0.8,
	domain.DifficultyIntermediate: 1.0,
	domain.DifficultyAdvanced:     1.3,
	domain.DifficultyExpert:       1.6,
}

// DueCard is a card due for review together with its ranking signals.
type DueCard struct {
	Card          *domain.LearningCard
	PriorityScore float64
	OverdueHours  float64
}

// PlannedCard is one slot in a packed study session.
type PlannedCard struct {
	Card             *domain.LearningCard
	EstimatedSeconds float64
}

// SessionPlan is the result of packing due and soon-due cards into a time
// budget. Efficiency is the share of candidates that fit.
type SessionPlan struct {
	Cards            []PlannedCard
	EstimatedMinutes float64
	Efficiency       float64
}

// StudyService selects and orders cards for review sessions.
type StudyService interface {
	// DueCards returns up to limit of the owner's currently due cards,
	// highest priority first. It never returns a card that is not yet due,
	// and a non-positive limit returns nothing.
	DueCards(ctx context.Context, ownerID uuid.UUID, limit int) ([]DueCard, error)

	// PackSession greedily fills the time budget with the owner's due and
	// soon-due cards in priority order. The summed estimated time never
	// exceeds the budget.
	PackSession(
		ctx context.Context,
		ownerID uuid.UUID,
		budgetSeconds float64,
	) (*SessionPlan, error)
}

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	cards          store.CardStore
	upcomingWindow time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// Option configures optional behavior of the study service.
type Option func(*studyServiceImpl)

// WithClock overrides the time source, primarily for testing.
func WithClock(now func() time.Time) Option {
	return func(s *studyServiceImpl) {
		s.now = now
	}
}

// NewStudyService creates a StudyService reading from the given card store.
// upcomingWindowDays controls how far ahead of their due date cards may be
// pulled into a packed session.
func NewStudyService(
	cards store.CardStore,
	upcomingWindowDays int,
	logger *slog.Logger,
	opts ...Option,
) StudyService {
	if cards == nil {
		panic("cards store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	svc := &studyServiceImpl{
		cards:          cards,
		upcomingWindow: time.Duration(upcomingWindowDays) * 24 * time.Hour,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         logger.With(slog.String("component", "study_service")),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// DueCards implements StudyService.DueCards.
func (s *studyServiceImpl) DueCards(
	ctx context.Context,
	ownerID uuid.UUID,
	limit int,
) ([]DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	if limit <= 0 {
		return nil, nil
	}

	cards, err := s.cards.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var due []DueCard
	for _, card := range cards {
		if !card.IsDue(now) {
			continue
		}
		overdue := card.OverdueHours(now)
		due = append(due, DueCard{
			Card:          card,
			OverdueHours:  overdue,
			PriorityScore: priorityScore(card, overdue),
		})
	}

	sortByPriority(due)

	if len(due) > limit {
		due = due[:limit]
	}

	log.Debug("due cards selected",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(due)))
	return due, nil
}

// PackSession implements StudyService.PackSession.
func (s *studyServiceImpl) PackSession(
	ctx context.Context,
	ownerID uuid.UUID,
	budgetSeconds float64,
) (*SessionPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()
	horizon := now.Add(s.upcomingWindow)

	cards, err := s.cards.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var candidates []DueCard
	for _, card := range cards {
		if card.NextReviewAt.After(horizon) {
			continue
		}
		overdue := card.OverdueHours(now)
		candidates = append(candidates, DueCard{
			Card:          card,
			OverdueHours:  overdue,
			PriorityScore: priorityScore(card, overdue),
		})
	}

	sortByPriority(candidates)

	plan := &SessionPlan{}
	var totalSeconds float64
	for _, candidate := range candidates {
		estimate := EstimateReviewSeconds(candidate.Card)
		if totalSeconds+estimate > budgetSeconds {
			// Greedy by priority: once the next-best card does not fit,
			// stop rather than backfilling with cheaper cards.
			break
		}
		plan.Cards = append(plan.Cards, PlannedCard{
			Card:             candidate.Card,
			EstimatedSeconds: estimate,
		})
		totalSeconds += estimate
	}

	plan.EstimatedMinutes = totalSeconds / 60
	if len(candidates) > 0 {
		plan.Efficiency = float64(len(plan.Cards)) / float64(len(candidates))
	}

	log.Debug("session packed",
		slog.String("owner_id", ownerID.String()),
		slog.Int("selected", len(plan.Cards)),
		slog.Int("candidates", len(candidates)),
		slog.Float64("estimated_minutes", plan.EstimatedMinutes))
	return plan, nil
}

// priorityScore ranks a card for review: the longer overdue, the younger its
// stage and the weaker its retention, the higher the score.
func priorityScore(card *domain.LearningCard, overdueHours float64) float64 {
	return overdueHours * (1 + stageWeight[card.GraduationStage]) *
		(1 - card.Metrics.RetentionStrength)
}

// sortByPriority orders cards highest priority first, breaking ties by
// earliest due date.
func sortByPriority(cards []DueCard) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].PriorityScore != cards[j].PriorityScore {
			return cards[i].PriorityScore > cards[j].PriorityScore
		}
		return cards[i].Card.NextReviewAt.Before(cards[j].Card.NextReviewAt)
	})
}

// EstimateReviewSeconds estimates how long reviewing a card will take, from
// its content difficulty, the learner's retention on it and its lifecycle
// stage, clamped to [15s, 300s].
func EstimateReviewSeconds(card *domain.LearningCard) float64 {
	difficulty, ok := difficultyTimeFactor[card.Content.DifficultyLevel]
	if !ok {
		difficulty = 1.0
	}

	stage, ok := stageTimeFactor[card.GraduationStage]
	if !ok {
		stage = 1.0
	}

	performance := 2.0 - card.Metrics.RetentionStrength

	estimate := baseReviewSeconds * difficulty * performance * stage
	if estimate < minReviewSeconds {
		return minReviewSeconds
	}
	if estimate > maxReviewSeconds {
		return maxReviewSeconds
	}
	return estimate
}
