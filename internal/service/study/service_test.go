package study

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/platform/memory"
)

var studyNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// newTestCard creates a card due at the given offset from studyNow with the
// given stage and retention strength.
func newTestCard(
	t *testing.T,
	stage domain.GraduationStage,
	dueOffset time.Duration,
	retention float64,
) *domain.LearningCard {
	t.Helper()

	card, err := domain.NewLearningCard(uuid.New(), domain.CardContent{
		Question: "What is spaced repetition?",
		Answer:   "Reviewing at increasing intervals.",
	}, studyNow.Add(-30*24*time.Hour))
	require.NoError(t, err)

	card.GraduationStage = stage
	card.NextReviewAt = studyNow.Add(dueOffset)
	card.Metrics.RetentionStrength = retention
	return card
}

func seedStore(t *testing.T, ownerID uuid.UUID, cards ...*domain.LearningCard) *memory.MemoryCardStore {
	t.Helper()

	cardStore := memory.NewMemoryCardStore()
	for _, card := range cards {
		card.OwnerID = ownerID
		require.NoError(t, cardStore.Create(context.Background(), card))
	}
	return cardStore
}

func newService(cardStore *memory.MemoryCardStore) StudyService {
	return NewStudyService(cardStore, 7, nil,
		WithClock(func() time.Time { return studyNow }))
}

func TestDueCards_PriorityOrdering(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	// 10h overdue Mature: 10 * 1.0 * 1.0 = 10
	mature := newTestCard(t, domain.StageMature, -10*time.Hour, 0)
	// 10h overdue Learning: 10 * 2.0 * 1.0 = 20
	learning := newTestCard(t, domain.StageLearning, -10*time.Hour, 0)
	// 10h overdue Review with strong retention: 10 * 1.5 * 0.2 = 3
	review := newTestCard(t, domain.StageReview, -10*time.Hour, 0.8)
	// Not yet due: excluded entirely.
	future := newTestCard(t, domain.StageLearning, time.Hour, 0)

	cardStore := seedStore(t, ownerID, mature, learning, review, future)
	svc := newService(cardStore)

	due, err := svc.DueCards(context.Background(), ownerID, 10)
	require.NoError(t, err)
	require.Len(t, due, 3)

	assert.Equal(t, learning.CardID, due[0].Card.CardID)
	assert.Equal(t, mature.CardID, due[1].Card.CardID)
	assert.Equal(t, review.CardID, due[2].Card.CardID)

	assert.InDelta(t, 20.0, due[0].PriorityScore, 1e-9)
	assert.InDelta(t, 10.0, due[0].OverdueHours, 1e-9)
}

func TestDueCards_TieBreakByDueDate(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	// Two Mature cards with zero stage weight bonus and equal retention
	// produce distinct priorities from overdue hours alone, so force a tie
	// with zero retention-weighted priority instead.
	earlier := newTestCard(t, domain.StageMature, -8*time.Hour, 1.0)
	later := newTestCard(t, domain.StageMature, -2*time.Hour, 1.0)

	cardStore := seedStore(t, ownerID, later, earlier)
	svc := newService(cardStore)

	due, err := svc.DueCards(context.Background(), ownerID, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)

	// Both priorities are zero; the card due earlier comes first.
	assert.Equal(t, earlier.CardID, due[0].Card.CardID)
	assert.Equal(t, later.CardID, due[1].Card.CardID)
}

func TestDueCards_LimitApplied(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	cards := make([]*domain.LearningCard, 5)
	for i := range cards {
		cards[i] = newTestCard(t, domain.StageLearning,
			-time.Duration(i+1)*time.Hour, 0)
	}

	cardStore := seedStore(t, ownerID, cards...)
	svc := newService(cardStore)

	due, err := svc.DueCards(context.Background(), ownerID, 2)
	require.NoError(t, err)
	require.Len(t, due, 2)

	// Highest priority first: the most overdue cards survive the cut.
	assert.Equal(t, cards[4].CardID, due[0].Card.CardID)
	assert.Equal(t, cards[3].CardID, due[1].Card.CardID)
}

func TestDueCards_ZeroLimit(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	overdue := newTestCard(t, domain.StageLearning, -10*time.Hour, 0)

	cardStore := seedStore(t, ownerID, overdue)
	svc := newService(cardStore)

	// "At most limit" holds at the boundary: zero means nothing comes back.
	due, err := svc.DueCards(context.Background(), ownerID, 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = svc.DueCards(context.Background(), ownerID, -1)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueCards_EmptyOwner(t *testing.T) {
	t.Parallel()

	cardStore := memory.NewMemoryCardStore()
	svc := newService(cardStore)

	due, err := svc.DueCards(context.Background(), uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestEstimateReviewSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		difficulty string
		stage      domain.GraduationStage
		retention  float64
		want       float64
	}{
		{
			name:       "intermediate review card no retention",
			difficulty: domain.DifficultyIntermediate,
			stage:      domain.StageReview,
			retention:  0,
			want:       60, // 30 * 1.0 * 2.0 * 1.0
		},
		{
			name:       "expert learning card no retention",
			difficulty: domain.DifficultyExpert,
			stage:      domain.StageLearning,
			retention:  0,
			want:       144, // 30 * 1.6 * 2.0 * 1.5
		},
		{
			name:       "beginner mature card full retention clamps to floor",
			difficulty: domain.DifficultyBeginner,
			stage:      domain.StageMature,
			retention:  1.0,
			want:       16.8, // 30 * 0.8 * 1.0 * 0.7
		},
		{
			name:       "unknown difficulty treated as intermediate",
			difficulty: "impossible",
			stage:      domain.StageReview,
			retention:  0.5,
			want:       45, // 30 * 1.0 * 1.5 * 1.0
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			card := newTestCard(t, tc.stage, -time.Hour, tc.retention)
			card.Content.DifficultyLevel = tc.difficulty

			assert.InDelta(t, tc.want, EstimateReviewSeconds(card), 1e-9)
		})
	}
}

func TestEstimateReviewSeconds_Clamped(t *testing.T) {
	t.Parallel()

	// Expert learning card with zero retention would hit 144s; push it past
	// the ceiling is not reachable with valid factors, so verify the floor.
	card := newTestCard(t, domain.StageMature, -time.Hour, 1.0)
	card.Content.DifficultyLevel = domain.DifficultyBeginner
	// 30 * 0.8 * 1.0 * 0.7 = 16.8 stays above the 15s floor.
	assert.GreaterOrEqual(t, EstimateReviewSeconds(card), minReviewSeconds)
	assert.LessOrEqual(t, EstimateReviewSeconds(card), maxReviewSeconds)
}

func TestPackSession_GreedyStopsAtOverflow(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	// Three due Review/intermediate cards at 60s each, descending priority.
	first := newTestCard(t, domain.StageReview, -10*time.Hour, 0)
	second := newTestCard(t, domain.StageReview, -5*time.Hour, 0)
	third := newTestCard(t, domain.StageReview, -1*time.Hour, 0)

	cardStore := seedStore(t, ownerID, third, first, second)
	svc := newService(cardStore)

	plan, err := svc.PackSession(context.Background(), ownerID, 150)
	require.NoError(t, err)

	// 60 + 60 fits; the third card would overflow 150s and packing stops.
	require.Len(t, plan.Cards, 2)
	assert.Equal(t, first.CardID, plan.Cards[0].Card.CardID)
	assert.Equal(t, second.CardID, plan.Cards[1].Card.CardID)
	assert.InDelta(t, 2.0, plan.EstimatedMinutes, 1e-9)
	assert.InDelta(t, 2.0/3.0, plan.Efficiency, 1e-9)
}

func TestPackSession_IncludesUpcomingWithinWindow(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	upcoming := newTestCard(t, domain.StageReview, 3*24*time.Hour, 0)
	beyond := newTestCard(t, domain.StageReview, 10*24*time.Hour, 0)

	cardStore := seedStore(t, ownerID, upcoming, beyond)
	svc := newService(cardStore)

	plan, err := svc.PackSession(context.Background(), ownerID, 600)
	require.NoError(t, err)

	require.Len(t, plan.Cards, 1)
	assert.Equal(t, upcoming.CardID, plan.Cards[0].Card.CardID)
	assert.InDelta(t, 1.0, plan.Efficiency, 1e-9)
}

func TestPackSession_NoCandidates(t *testing.T) {
	t.Parallel()

	cardStore := memory.NewMemoryCardStore()
	svc := newService(cardStore)

	plan, err := svc.PackSession(context.Background(), uuid.New(), 600)
	require.NoError(t, err)

	assert.Empty(t, plan.Cards)
	assert.Zero(t, plan.EstimatedMinutes)
	assert.Zero(t, plan.Efficiency)
}
