// Package events provides a small in-process event bus. Services publish
// domain events without knowing who consumes them; today the only consumer
// invalidates cached insights after reviews.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReviewRecordedEvent is published after a review has been persisted.
type ReviewRecordedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// OwnerID is the owner of the reviewed card
	OwnerID uuid.UUID `json:"owner_id"`

	// CardID is the reviewed card
	CardID uuid.UUID `json:"card_id"`

	// Quality is the recorded recall quality (0-5)
	Quality int `json:"quality"`

	// RecordedAt is the timestamp when the event was created
	RecordedAt time.Time `json:"recorded_at"`
}

// NewReviewRecordedEvent creates an event for a persisted review.
func NewReviewRecordedEvent(ownerID, cardID uuid.UUID, quality int) *ReviewRecordedEvent {
	return &ReviewRecordedEvent{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		CardID:     cardID,
		Quality:    quality,
		RecordedAt: time.Now().UTC(),
	}
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ReviewRecordedEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *ReviewRecordedEvent) error
}
