// Package review orchestrates the card review flow: validate the submission,
// run the scheduler, and persist the new card state as one atomic write.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/domain/srs"
)

// ReviewResult is the caller-facing summary of a processed review.
type ReviewResult struct {
	CardID            uuid.UUID              `json:"card_id"`
	NextReviewAt      string                 `json:"next_review_at"`
	IntervalDays      int                    `json:"interval_days"`
	EaseFactor        float64                `json:"ease_factor"`
	GraduationStage   domain.GraduationStage `json:"graduation_stage"`
	RetentionStrength float64                `json:"retention_strength"`
	Trend             srs.Trend              `json:"trend"`
	Recommendation    string                 `json:"recommendation"`
}

// CardReviewService provides card creation and review processing on top of
// the scheduler and the card store.
type CardReviewService interface {
	// CreateCard creates a card with default scheduling state for the owner.
	// The content payload is opaque to the engine; only its presence is
	// validated.
	CreateCard(
		ctx context.Context,
		ownerID uuid.UUID,
		content domain.CardContent,
	) (*domain.LearningCard, error)

	// GetCard retrieves one of the owner's cards.
	// Returns ErrCardNotFound if the card does not exist.
	GetCard(
		ctx context.Context,
		ownerID, cardID uuid.UUID,
	) (*domain.LearningCard, error)

	// SubmitReview processes a review outcome for a card and persists the
	// resulting scheduling state.
	//
	// The whole state transition is computed in memory and committed as one
	// versioned write; on a concurrent-update conflict the service re-fetches
	// the card and retries a bounded number of times before surfacing
	// ErrReviewConflict. Invalid submissions are rejected before any
	// mutation.
	SubmitReview(
		ctx context.Context,
		ownerID, cardID uuid.UUID,
		submission srs.ReviewSubmission,
	) (*ReviewResult, error)
}

// Common error types for CardReviewService
var (
	// ErrCardNotFound indicates that the card does not exist for the owner.
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidSubmission indicates an out-of-range review submission.
	ErrInvalidSubmission = errors.New("invalid review submission")

	// ErrReviewConflict indicates that concurrent reviews of the same card
	// kept colliding and the retry budget ran out. The client should fetch
	// fresh state and resubmit.
	ErrReviewConflict = errors.New("review conflicted with a concurrent update")
)

// ServiceError wraps errors from the review service with additional context,
// so consumers can differentiate failure modes with errors.As instead of
// string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_card", "submit_review")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewSubmitReviewError returns a new ServiceError for the submit_review operation.
func NewSubmitReviewError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "submit_review", Message: message, Err: err}
}

// NewCreateCardError returns a new ServiceError for the create_card operation.
func NewCreateCardError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "create_card", Message: message, Err: err}
}
