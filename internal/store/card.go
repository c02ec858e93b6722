package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
)

// CardStore defines the interface for learning card persistence.
//
// The engine performs no I/O of its own: the review flow loads a card,
// computes its whole next state in memory and persists it with one Save call.
// Implementations must make that read-modify-write safe under concurrency
// through the card's Version field (see Save).
type CardStore interface {
	// Create saves a new card. The card must be valid according to domain
	// validation rules. Returns ErrDuplicate if a card with the same ID
	// already exists.
	Create(ctx context.Context, card *domain.LearningCard) error

	// Get retrieves a card by owner and card ID, including its full review
	// history. Returns ErrCardNotFound if no such card exists for the owner.
	Get(ctx context.Context, ownerID, cardID uuid.UUID) (*domain.LearningCard, error)

	// ListByOwner retrieves all of an owner's cards with their histories.
	// The order is unspecified; callers that rank cards do their own sorting.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.LearningCard, error)

	// ListOwners returns the distinct owner IDs that have at least one card.
	// Used by background jobs that fan out per-owner work.
	ListOwners(ctx context.Context) ([]uuid.UUID, error)

	// Save persists a card's scheduling state and appends any review history
	// events added since the card was loaded. History entries already
	// persisted are never rewritten.
	//
	// Save compares the card's Version against the persisted one: on a
	// mismatch it fails with ErrConflict and writes nothing, so a concurrent
	// reviewer cannot produce an interleaved state. On success the persisted
	// version advances and card.Version is updated in place.
	Save(ctx context.Context, card *domain.LearningCard) error
}
