package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
)

// Common request/response structures

// CreateCardRequest defines the payload for the card creation endpoint. The
// content block is stored as given; only presence constraints are enforced.
type CreateCardRequest struct {
	Question        string   `json:"question"         validate:"required"`
	Answer          string   `json:"answer"           validate:"required"`
	Explanation     string   `json:"explanation,omitempty"`
	SubjectCategory string   `json:"subject_category,omitempty"`
	Topic           string   `json:"topic,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	DifficultyLevel string   `json:"difficulty_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced expert"`
}

// ReviewRequest defines the payload for the review submission endpoint.
type ReviewRequest struct {
	Quality             int     `json:"quality"               validate:"min=0,max=5"`
	ResponseTimeSeconds float64 `json:"response_time_seconds" validate:"omitempty,min=0"`
	DifficultyFelt      int     `json:"difficulty_felt"       validate:"omitempty,min=1,max=5"`
	EnergyLevel         *int    `json:"energy_level,omitempty"       validate:"omitempty,min=0,max=10"`
	TimeOfDayHour       *int    `json:"time_of_day_hour,omitempty"   validate:"omitempty,min=0,max=23"`
}

// CardResponse represents the response data for a card
type CardResponse struct {
	CardID            uuid.UUID          `json:"card_id"`
	OwnerID           uuid.UUID          `json:"owner_id"`
	Content           domain.CardContent `json:"content"`
	EaseFactor        float64            `json:"ease_factor"`
	IntervalDays      int                `json:"interval_days"`
	Repetitions       int                `json:"repetitions"`
	LapseCount        int                `json:"lapse_count"`
	GraduationStage   string             `json:"graduation_stage"`
	LastReviewedAt    *time.Time         `json:"last_reviewed_at,omitempty"`
	NextReviewAt      time.Time          `json:"next_review_at"`
	TotalReviews      int                `json:"total_reviews"`
	RetentionStrength float64            `json:"retention_strength"`
	MemoryStability   float64            `json:"memory_stability"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// cardToResponse converts a domain card to its API representation. Review
// history stays internal; only the aggregate metrics are exposed.
func cardToResponse(card *domain.LearningCard) CardResponse {
	return CardResponse{
		CardID:            card.CardID,
		OwnerID:           card.OwnerID,
		Content:           card.Content,
		EaseFactor:        card.EaseFactor,
		IntervalDays:      card.IntervalDays,
		Repetitions:       card.Repetitions,
		LapseCount:        card.Lapses,
		GraduationStage:   string(card.GraduationStage),
		LastReviewedAt:    card.LastReviewedAt,
		NextReviewAt:      card.NextReviewAt,
		TotalReviews:      card.Metrics.TotalReviews,
		RetentionStrength: card.Metrics.RetentionStrength,
		MemoryStability:   card.Metrics.MemoryStability,
		CreatedAt:         card.CreatedAt,
		UpdatedAt:         card.UpdatedAt,
	}
}

// DueCardResponse represents one entry in the due-cards listing.
type DueCardResponse struct {
	CardID        uuid.UUID `json:"card_id"`
	Question      string    `json:"question"`
	Subject       string    `json:"subject_category"`
	Stage         string    `json:"graduation_stage"`
	NextReviewAt  time.Time `json:"next_review_at"`
	OverdueHours  float64   `json:"overdue_hours"`
	PriorityScore float64   `json:"priority_score"`
}

// SessionResponse represents a packed study session.
type SessionResponse struct {
	CardIDs          []uuid.UUID `json:"ordered_card_ids"`
	EstimatedMinutes float64     `json:"estimated_minutes"`
	Efficiency       float64     `json:"efficiency"`
}
