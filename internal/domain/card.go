package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardOwnerIDEmpty is returned when a card's owner ID is empty or nil.
	ErrCardOwnerIDEmpty = errors.New("card owner ID cannot be empty")

	// ErrCardQuestionEmpty is returned when a card's question is empty.
	ErrCardQuestionEmpty = errors.New("card question cannot be empty")

	// ErrCardAnswerEmpty is returned when a card's answer is empty.
	ErrCardAnswerEmpty = errors.New("card answer cannot be empty")

	// ErrEaseFactorOutOfRange is returned when an ease factor leaves [1.3, 5.0].
	ErrEaseFactorOutOfRange = errors.New("ease factor out of range")

	// ErrIntervalOutOfRange is returned when an interval leaves [1, 365] days.
	ErrIntervalOutOfRange = errors.New("interval out of range")
)

// Scheduling state bounds. These are hard invariants of the card record, not
// tunables: every mutation must leave the card inside them.
const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 5.0
	MinIntervalDays   = 1
	MaxIntervalDays   = 365
)

// GraduationStage is the coarse lifecycle bucket of a card: how well
// established it is in the learner's memory.
type GraduationStage string

// Graduation stages. A card only advances Learning -> Review -> Mature;
// any lapse resets it to Learning.
const (
	StageLearning GraduationStage = "learning"
	StageReview   GraduationStage = "review"
	StageMature   GraduationStage = "mature"
)

// IsValid reports whether the stage is one of the known enum values.
func (s GraduationStage) IsValid() bool {
	switch s {
	case StageLearning, StageReview, StageMature:
		return true
	default:
		return false
	}
}

// Difficulty levels for card content. The scheduler does not interpret them;
// the session packer uses them to estimate review time.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
	DifficultyExpert       = "expert"
)

// CardContent is the opaque learning payload of a card. It arrives from an
// external generator and is never interpreted by the scheduling engine.
type CardContent struct {
	Question        string   `json:"question"`
	Answer          string   `json:"answer"`
	Explanation     string   `json:"explanation,omitempty"`
	SubjectCategory string   `json:"subject_category"`
	Topic           string   `json:"topic,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	DifficultyLevel string   `json:"difficulty_level,omitempty"`
}

// ReviewEvent is a single entry in a card's append-only review history.
// EnergyLevel and TimeOfDayHour are optional self-reports used for the
// ADHD-oriented scheduling adjustments.
type ReviewEvent struct {
	Timestamp           time.Time `json:"timestamp"`
	Quality             int       `json:"quality"`
	ResponseTimeSeconds float64   `json:"response_time_seconds"`
	DifficultyFelt      int       `json:"difficulty_felt"`
	EnergyLevel         *int      `json:"energy_level,omitempty"`
	TimeOfDayHour       *int      `json:"time_of_day_hour,omitempty"`
}

// Validate checks the event's self-reported fields against their ranges.
func (e *ReviewEvent) Validate() error {
	if e.Quality < 0 || e.Quality > 5 {
		return ErrInvalidQuality
	}
	if e.DifficultyFelt < 1 || e.DifficultyFelt > 5 {
		return ErrInvalidDifficultyFelt
	}
	if e.EnergyLevel != nil && (*e.EnergyLevel < 0 || *e.EnergyLevel > 10) {
		return ErrInvalidEnergyLevel
	}
	if e.TimeOfDayHour != nil && (*e.TimeOfDayHour < 0 || *e.TimeOfDayHour > 23) {
		return ErrInvalidTimeOfDay
	}
	return nil
}

// PerformanceMetrics are derived signals recomputed on every review.
type PerformanceMetrics struct {
	TotalReviews        int     `json:"total_reviews"`
	CorrectReviews      int     `json:"correct_reviews"`
	AverageResponseTime float64 `json:"average_response_time"`
	RetentionStrength   float64 `json:"retention_strength"`
	MemoryStability     float64 `json:"memory_stability"`
}

// LearningCard is a flashcard with its per-owner spaced repetition state.
// It is mutated exclusively through the scheduler's review operation; the
// History slice is append-only and never rewritten.
type LearningCard struct {
	CardID  uuid.UUID   `json:"card_id"`
	OwnerID uuid.UUID   `json:"owner_id"`
	Content CardContent `json:"content"`

	EaseFactor      float64         `json:"ease_factor"`
	IntervalDays    int             `json:"interval_days"`
	Repetitions     int             `json:"repetitions"`
	Lapses          int             `json:"lapses"`
	GraduationStage GraduationStage `json:"graduation_stage"`
	NextReviewAt    time.Time       `json:"next_review_at"`
	LastReviewedAt  *time.Time      `json:"last_reviewed_at,omitempty"`

	Metrics PerformanceMetrics `json:"performance_metrics"`
	History []ReviewEvent      `json:"review_history,omitempty"`

	// Version supports optimistic concurrency control in the store:
	// a save compares it against the persisted value and fails with a
	// conflict if another writer got there first.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLearningCard creates a card with default scheduling state: ease 2.5,
// one-day interval, Learning stage, due immediately. Content difficulty
// defaults to intermediate when the generator did not supply one.
func NewLearningCard(ownerID uuid.UUID, content CardContent, now time.Time) (*LearningCard, error) {
	if content.DifficultyLevel == "" {
		content.DifficultyLevel = DifficultyIntermediate
	}
	if content.SubjectCategory == "" {
		content.SubjectCategory = "general"
	}

	card := &LearningCard{
		CardID:          uuid.New(),
		OwnerID:         ownerID,
		Content:         content,
		EaseFactor:      InitialEaseFactor,
		IntervalDays:    MinIntervalDays,
		Repetitions:     0,
		Lapses:          0,
		GraduationStage: StageLearning,
		NextReviewAt:    now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the card's identity, content, and scheduling invariants.
// Returns an error if any field fails validation.
func (c *LearningCard) Validate() error {
	if c.CardID == uuid.Nil {
		return ErrCardIDEmpty
	}
	if c.OwnerID == uuid.Nil {
		return ErrCardOwnerIDEmpty
	}
	if c.Content.Question == "" {
		return ErrCardQuestionEmpty
	}
	if c.Content.Answer == "" {
		return ErrCardAnswerEmpty
	}
	if c.EaseFactor < MinEaseFactor || c.EaseFactor > MaxEaseFactor {
		return ErrEaseFactorOutOfRange
	}
	if c.IntervalDays < MinIntervalDays || c.IntervalDays > MaxIntervalDays {
		return ErrIntervalOutOfRange
	}
	if !c.GraduationStage.IsValid() {
		return ErrInvalidStage
	}
	return nil
}

// IsDue reports whether the card is due for review at the given time.
func (c *LearningCard) IsDue(now time.Time) bool {
	return !c.NextReviewAt.After(now)
}

// OverdueHours returns how many hours past due the card is at the given
// time, never negative.
func (c *LearningCard) OverdueHours(now time.Time) float64 {
	h := now.Sub(c.NextReviewAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// Clone returns a deep copy of the card. The scheduler computes the next
// state on a copy so a failed review leaves the original untouched.
func (c *LearningCard) Clone() *LearningCard {
	clone := *c
	if c.LastReviewedAt != nil {
		t := *c.LastReviewedAt
		clone.LastReviewedAt = &t
	}
	if c.Content.Tags != nil {
		clone.Content.Tags = append([]string(nil), c.Content.Tags...)
	}
	if c.History != nil {
		clone.History = make([]ReviewEvent, len(c.History))
		copy(clone.History, c.History)
	}
	return &clone
}
