package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuropulse/pulse-api/internal/domain"
)

var reviewNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// fixedJitter pins the jitter draw. 0.5 lands exactly in the middle of the
// jitter range, which makes the factor 1.0 and leaves intervals untouched.
type fixedJitter struct {
	value float64
}

func (j fixedJitter) Float64() float64 { return j.value }

func newScheduler(t *testing.T, jitterValue float64) Scheduler {
	t.Helper()
	return NewScheduler(NewDefaultParams(), fixedJitter{value: jitterValue})
}

func newCard(t *testing.T) *domain.LearningCard {
	t.Helper()

	card, err := domain.NewLearningCard(uuid.New(), domain.CardContent{
		Question: "What does the ease factor control?",
		Answer:   "How fast intervals grow.",
	}, reviewNow.Add(-24*time.Hour))
	require.NoError(t, err)
	return card
}

func intPtr(v int) *int { return &v }

func TestReview_GraduationSequence(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)
	submission := ReviewSubmission{Quality: 5, ResponseTimeSeconds: 3, DifficultyFelt: 2}

	// First success: one-day interval, still Learning.
	now := reviewNow
	next, outcome, err := scheduler.Review(card, submission, now)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.IntervalDays)
	assert.InDelta(t, 2.6, outcome.EaseFactor, 1e-9)
	assert.Equal(t, domain.StageLearning, outcome.GraduationStage)
	assert.Equal(t, now.AddDate(0, 0, 1), outcome.NextReviewAt)
	assert.Equal(t, 1, next.Repetitions)

	// Second success: graduation interval, card enters Review.
	now = outcome.NextReviewAt
	next, outcome, err = scheduler.Review(next, submission, now)
	require.NoError(t, err)
	assert.Equal(t, 4, outcome.IntervalDays)
	assert.InDelta(t, 2.7, outcome.EaseFactor, 1e-9)
	assert.Equal(t, domain.StageReview, outcome.GraduationStage)
	assert.Equal(t, now.AddDate(0, 0, 4), outcome.NextReviewAt)

	// Third success: growth path uses the pre-review ease factor,
	// round(4 * 2.7) = 11.
	now = outcome.NextReviewAt
	next, outcome, err = scheduler.Review(next, submission, now)
	require.NoError(t, err)
	assert.Equal(t, 11, outcome.IntervalDays)
	assert.InDelta(t, 2.8, outcome.EaseFactor, 1e-9)
	assert.Equal(t, domain.StageReview, outcome.GraduationStage)

	// Fourth success: round(11 * 2.8) = 31 crosses the mature threshold.
	now = outcome.NextReviewAt
	next, outcome, err = scheduler.Review(next, submission, now)
	require.NoError(t, err)
	assert.Equal(t, 31, outcome.IntervalDays)
	assert.Equal(t, domain.StageMature, outcome.GraduationStage)
	assert.Equal(t, 4, next.Repetitions)
	assert.Len(t, next.History, 4)
}

func TestReview_InputCardUntouched(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)

	next, _, err := scheduler.Review(card, ReviewSubmission{
		Quality: 4, ResponseTimeSeconds: 5, DifficultyFelt: 3,
	}, reviewNow)
	require.NoError(t, err)

	assert.NotSame(t, card, next)
	assert.Zero(t, card.Repetitions)
	assert.Empty(t, card.History)
	assert.Nil(t, card.LastReviewedAt)

	assert.Equal(t, 1, next.Repetitions)
	require.Len(t, next.History, 1)
	require.NotNil(t, next.LastReviewedAt)
	assert.Equal(t, reviewNow, *next.LastReviewedAt)
}

func TestReview_Lapse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		quality  int
		wantEase float64
	}{
		{name: "severe lapse erodes ease", quality: 1, wantEase: 2.3},
		{name: "blackout erodes ease", quality: 0, wantEase: 2.3},
		{name: "near miss keeps ease", quality: 2, wantEase: 2.5},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			scheduler := newScheduler(t, 0.5)
			card := newCard(t)
			card.Repetitions = 3
			card.IntervalDays = 15
			card.GraduationStage = domain.StageReview

			next, outcome, err := scheduler.Review(card, ReviewSubmission{
				Quality: tc.quality, ResponseTimeSeconds: 20, DifficultyFelt: 5,
			}, reviewNow)
			require.NoError(t, err)

			assert.Zero(t, next.Repetitions)
			assert.Equal(t, 1, outcome.IntervalDays)
			assert.Equal(t, domain.StageLearning, outcome.GraduationStage)
			assert.Equal(t, 1, next.Lapses)
			assert.InDelta(t, tc.wantEase, outcome.EaseFactor, 1e-9)
			// Lapses reschedule tomorrow with no jitter.
			assert.Equal(t, reviewNow.AddDate(0, 0, 1), outcome.NextReviewAt)
		})
	}
}

func TestReview_EaseFactorFloor(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)
	card.EaseFactor = domain.MinEaseFactor

	// Quality 3 carries a -0.14 adjustment; the floor absorbs it.
	_, outcome, err := scheduler.Review(card, ReviewSubmission{
		Quality: 3, ResponseTimeSeconds: 10, DifficultyFelt: 4,
	}, reviewNow)
	require.NoError(t, err)

	assert.InDelta(t, domain.MinEaseFactor, outcome.EaseFactor, 1e-9)
}

func TestReview_IntervalCeiling(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)
	card.Repetitions = 5
	card.IntervalDays = 300
	card.EaseFactor = 5.0
	card.GraduationStage = domain.StageMature

	_, outcome, err := scheduler.Review(card, ReviewSubmission{
		Quality: 5, ResponseTimeSeconds: 2, DifficultyFelt: 1,
	}, reviewNow)
	require.NoError(t, err)

	assert.Equal(t, domain.MaxIntervalDays, outcome.IntervalDays)
}

func TestReview_JitterSpreadsInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		jitter       float64
		wantInterval int
	}{
		{name: "low draw shrinks", jitter: 0.0, wantInterval: 18},
		{name: "middle draw is identity", jitter: 0.5, wantInterval: 20},
		{name: "high draw stretches", jitter: 1.0, wantInterval: 22},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			scheduler := newScheduler(t, tc.jitter)
			card := newCard(t)
			card.Repetitions = 2
			card.IntervalDays = 10
			card.EaseFactor = 2.0
			card.GraduationStage = domain.StageReview

			// Base growth: round(10 * 2.0) = 20, then the jitter factor.
			_, outcome, err := scheduler.Review(card, ReviewSubmission{
				Quality: 4, ResponseTimeSeconds: 4, DifficultyFelt: 3,
			}, reviewNow)
			require.NoError(t, err)

			assert.Equal(t, tc.wantInterval, outcome.IntervalDays)
		})
	}
}

func TestReview_EnergyMultiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		energy       int
		quality      int
		wantInterval int
	}{
		// round(4 * 2.5 * multiplier)
		{name: "high energy high quality lengthens", energy: 8, quality: 5, wantInterval: 12},
		{name: "low energy low quality shortens", energy: 2, quality: 1, wantInterval: 8},
		{name: "mixed evidence is neutral", energy: 8, quality: 2, wantInterval: 10},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			scheduler := newScheduler(t, 0.5)
			card := newCard(t)
			card.Repetitions = 2
			card.IntervalDays = 4
			card.GraduationStage = domain.StageReview
			for i := 0; i < 3; i++ {
				card.History = append(card.History, domain.ReviewEvent{
					Timestamp:      reviewNow.AddDate(0, 0, -3+i),
					Quality:        tc.quality,
					DifficultyFelt: 3,
					EnergyLevel:    intPtr(tc.energy),
				})
			}

			_, outcome, err := scheduler.Review(card, ReviewSubmission{
				Quality: 4, ResponseTimeSeconds: 4, DifficultyFelt: 3,
			}, reviewNow)
			require.NoError(t, err)

			assert.Equal(t, tc.wantInterval, outcome.IntervalDays)
		})
	}
}

func TestReview_EnergyMultiplierNeedsEvidence(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)
	card.Repetitions = 2
	card.IntervalDays = 4
	card.GraduationStage = domain.StageReview
	// Only two prior energy reports: below the evidence threshold.
	for i := 0; i < 2; i++ {
		card.History = append(card.History, domain.ReviewEvent{
			Timestamp:      reviewNow.AddDate(0, 0, -2+i),
			Quality:        5,
			DifficultyFelt: 2,
			EnergyLevel:    intPtr(9),
		})
	}

	_, outcome, err := scheduler.Review(card, ReviewSubmission{
		Quality: 4, ResponseTimeSeconds: 4, DifficultyFelt: 3,
	}, reviewNow)
	require.NoError(t, err)

	// round(4 * 2.5 * 1.0) = 10
	assert.Equal(t, 10, outcome.IntervalDays)
}

func TestReview_SnapsToOptimalHour(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)
	for i := 0; i < 3; i++ {
		card.History = append(card.History, domain.ReviewEvent{
			Timestamp:      reviewNow.AddDate(0, 0, -3+i),
			Quality:        5,
			DifficultyFelt: 2,
			TimeOfDayHour:  intPtr(9),
		})
	}

	_, outcome, err := scheduler.Review(card, ReviewSubmission{
		Quality: 4, ResponseTimeSeconds: 4, DifficultyFelt: 3,
	}, reviewNow)
	require.NoError(t, err)

	assert.Equal(t, 9, outcome.NextReviewAt.Hour())
	assert.Zero(t, outcome.NextReviewAt.Minute())
	assert.Equal(t, reviewNow.AddDate(0, 0, outcome.IntervalDays).Day(),
		outcome.NextReviewAt.Day())
}

func TestReview_MetricsAndOutcomeExtras(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)

	next, outcome, err := scheduler.Review(card, ReviewSubmission{
		Quality: 5, ResponseTimeSeconds: 6, DifficultyFelt: 2,
	}, reviewNow)
	require.NoError(t, err)

	assert.Equal(t, 1, next.Metrics.TotalReviews)
	assert.Equal(t, 1, next.Metrics.CorrectReviews)
	assert.InDelta(t, 6.0, next.Metrics.AverageResponseTime, 1e-9)
	// A single perfect recall maps to full retention strength.
	assert.InDelta(t, 1.0, outcome.RetentionStrength, 1e-9)
	assert.Equal(t, TrendInsufficientData, outcome.Trend)
	assert.NotEmpty(t, outcome.Recommendation)
}

func TestReview_RejectsInvalidSubmission(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	card := newCard(t)

	tests := []struct {
		name       string
		submission ReviewSubmission
		wantErr    error
	}{
		{
			name:       "quality above range",
			submission: ReviewSubmission{Quality: 7, DifficultyFelt: 3},
			wantErr:    domain.ErrInvalidQuality,
		},
		{
			name:       "difficulty felt below range",
			submission: ReviewSubmission{Quality: 4, DifficultyFelt: 0},
			wantErr:    domain.ErrInvalidDifficultyFelt,
		},
		{
			name: "energy level above range",
			submission: ReviewSubmission{
				Quality: 4, DifficultyFelt: 3, EnergyLevel: intPtr(11),
			},
			wantErr: domain.ErrInvalidEnergyLevel,
		},
		{
			name: "time of day above range",
			submission: ReviewSubmission{
				Quality: 4, DifficultyFelt: 3, TimeOfDayHour: intPtr(24),
			},
			wantErr: domain.ErrInvalidTimeOfDay,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			next, outcome, err := scheduler.Review(card, tc.submission, reviewNow)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, next)
			assert.Nil(t, outcome)
		})
	}
}

func TestReview_NilCard(t *testing.T) {
	t.Parallel()

	scheduler := newScheduler(t, 0.5)
	_, _, err := scheduler.Review(nil, ReviewSubmission{
		Quality: 4, DifficultyFelt: 3,
	}, reviewNow)
	assert.ErrorIs(t, err, ErrNilCard)
}
