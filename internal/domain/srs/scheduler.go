package srs

import (
	"errors"
	"math/rand"
	"time"

	"github.com/neuropulse/pulse-api/internal/domain"
)

// Common errors
var (
	ErrNilCard = errors.New("learning card cannot be nil")
)

// ReviewSubmission carries a learner's self-reported review outcome.
// EnergyLevel and TimeOfDayHour are optional.
type ReviewSubmission struct {
	Quality             int
	ResponseTimeSeconds float64
	DifficultyFelt      int
	EnergyLevel         *int
	TimeOfDayHour       *int
}

// SchedulingOutcome summarizes the scheduling decision for one review.
type SchedulingOutcome struct {
	NextReviewAt      time.Time
	IntervalDays      int
	EaseFactor        float64
	GraduationStage   domain.GraduationStage
	RetentionStrength float64
	Trend             Trend
	Recommendation    string
}

// JitterSource supplies the uniform randomness used to spread review dates.
// *rand.Rand satisfies it; tests inject a fixed source for deterministic
// scheduling outcomes.
type JitterSource interface {
	Float64() float64
}

// Scheduler computes a card's next scheduling state from a review outcome.
// The computation is synchronous and, apart from the injected jitter source,
// deterministic: it builds the entire next state on a copy of the card, so a
// failed or rejected review leaves the original untouched.
type Scheduler interface {
	// Review applies the review to a copy of the card and returns the copy
	// together with the scheduling outcome. The input card is not modified.
	// Submissions with out-of-range fields are rejected with a validation
	// error before any state is computed.
	Review(
		card *domain.LearningCard,
		submission ReviewSubmission,
		now time.Time,
	) (*domain.LearningCard, *SchedulingOutcome, error)
}

// defaultScheduler is the standard implementation of the Scheduler interface.
type defaultScheduler struct {
	params *Params
	jitter JitterSource
}

// NewScheduler creates a Scheduler with the given parameters and jitter
// source. A nil params uses the defaults; a nil jitter source falls back to
// a time-seeded generator.
func NewScheduler(params *Params, jitter JitterSource) Scheduler {
	if params == nil {
		params = NewDefaultParams()
	}
	if jitter == nil {
		jitter = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &defaultScheduler{params: params, jitter: jitter}
}

// Review implements the Scheduler interface.
func (s *defaultScheduler) Review(
	card *domain.LearningCard,
	submission ReviewSubmission,
	now time.Time,
) (*domain.LearningCard, *SchedulingOutcome, error) {
	if card == nil {
		return nil, nil, ErrNilCard
	}

	event := domain.ReviewEvent{
		Timestamp:           now,
		Quality:             submission.Quality,
		ResponseTimeSeconds: submission.ResponseTimeSeconds,
		DifficultyFelt:      submission.DifficultyFelt,
		EnergyLevel:         submission.EnergyLevel,
		TimeOfDayHour:       submission.TimeOfDayHour,
	}
	if err := event.Validate(); err != nil {
		return nil, nil, err
	}

	next := card.Clone()

	// The energy multiplier only considers evidence from prior reviews, so
	// compute it before the current event joins the history.
	energyMult := calculateEnergyMultiplier(card.History, s.params)

	if submission.Quality >= 3 {
		s.applySuccess(next, submission.Quality, energyMult)
	} else {
		s.applyLapse(next, submission.Quality)
	}

	next.History = append(next.History, event)
	next.LastReviewedAt = &now
	next.NextReviewAt = s.nextReviewAt(now, next.IntervalDays, next.History)
	next.UpdatedAt = now

	s.updateMetrics(next, event)

	outcome := &SchedulingOutcome{
		NextReviewAt:      next.NextReviewAt,
		IntervalDays:      next.IntervalDays,
		EaseFactor:        next.EaseFactor,
		GraduationStage:   next.GraduationStage,
		RetentionStrength: next.Metrics.RetentionStrength,
		Trend:             HistoryTrend(next.History, s.params.RetentionWindow),
		Recommendation:    recommendationForQuality(submission.Quality),
	}

	return next, outcome, nil
}

// applySuccess handles quality >= 3: the repetition streak grows, the
// interval advances (with jitter), the ease factor gets the SM-2 adjustment
// and the card may graduate one stage.
func (s *defaultScheduler) applySuccess(card *domain.LearningCard, quality int, energyMult float64) {
	card.Repetitions++

	// Interval growth uses the ease factor as it stood before this review.
	interval := calculateSuccessInterval(
		card.IntervalDays,
		card.Repetitions,
		card.EaseFactor,
		energyMult,
		s.params,
	)
	card.IntervalDays = applyJitter(interval, s.jitterFactor())
	card.EaseFactor = calculateNewEaseFactor(card.EaseFactor, quality)
	card.GraduationStage = nextStage(
		card.GraduationStage,
		card.Repetitions,
		card.IntervalDays,
		s.params,
	)
}

// applyLapse handles quality < 3: the streak resets, the card drops back to
// the Learning stage and a severe miss erodes the ease factor.
func (s *defaultScheduler) applyLapse(card *domain.LearningCard, quality int) {
	card.Repetitions = 0
	card.IntervalDays = clampInterval(s.params.LapseInterval)
	card.GraduationStage = domain.StageLearning
	card.Lapses++

	if quality <= s.params.SevereLapseQuality {
		card.EaseFactor = clampEase(card.EaseFactor - s.params.SevereLapsePenalty)
	}
}

// nextReviewAt places the next review IntervalDays after the review time,
// snapped to the learner's historically best hour when the history carries
// enough time-of-day evidence.
func (s *defaultScheduler) nextReviewAt(
	now time.Time,
	intervalDays int,
	history []domain.ReviewEvent,
) time.Time {
	next := now.AddDate(0, 0, intervalDays)

	if hour, ok := optimalReviewHour(history, s.params); ok {
		next = time.Date(next.Year(), next.Month(), next.Day(), hour, 0, 0, 0, next.Location())
	}

	return next
}

// updateMetrics recomputes the derived performance metrics after the event
// has been appended to the history.
func (s *defaultScheduler) updateMetrics(card *domain.LearningCard, event domain.ReviewEvent) {
	m := &card.Metrics

	m.TotalReviews++
	if event.Quality >= 3 {
		m.CorrectReviews++
	}

	// Incremental mean keeps the running average without replaying history.
	total := m.AverageResponseTime*float64(m.TotalReviews-1) + event.ResponseTimeSeconds
	m.AverageResponseTime = total / float64(m.TotalReviews)

	m.RetentionStrength = retentionStrength(card.History, s.params)
	m.MemoryStability = memoryStability(card.IntervalDays, card.Repetitions, s.params)
}

// jitterFactor draws a uniform factor from [JitterLow, JitterHigh].
func (s *defaultScheduler) jitterFactor() float64 {
	low, high := s.params.JitterLow, s.params.JitterHigh
	return low + (high-low)*s.jitter.Float64()
}

// recommendationForQuality maps the self-reported quality to a short
// learner-facing note about what the outcome means for the card.
func recommendationForQuality(quality int) string {
	switch {
	case quality <= 1:
		return "This concept needs more practice. Try breaking it into smaller parts or using memory techniques."
	case quality == 2:
		return "You're making progress! Review the explanation and try again soon."
	case quality == 3:
		return "Good recall with effort. This concept is strengthening in your memory."
	case quality == 4:
		return "Excellent! You're mastering this concept. Keep up the momentum."
	default:
		return "Perfect recall! This knowledge is well-established. Intervals will be extended."
	}
}
