// Package memory provides an in-memory implementation of the data storage
// interfaces defined in the internal/store package. It backs development
// deployments without a database and the service-layer tests, and enforces
// the same version semantics as the PostgreSQL implementation.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/store"
)

// cardKey identifies a card within one owner's collection.
type cardKey struct {
	ownerID uuid.UUID
	cardID  uuid.UUID
}

// MemoryCardStore implements store.CardStore with a mutex-guarded map.
// Cards are deep-copied on the way in and out so callers can never mutate
// stored state without going through Save.
type MemoryCardStore struct {
	mu    sync.RWMutex
	cards map[cardKey]*domain.LearningCard
}

// NewMemoryCardStore creates an empty in-memory card store.
func NewMemoryCardStore() *MemoryCardStore {
	return &MemoryCardStore{
		cards: make(map[cardKey]*domain.LearningCard),
	}
}

// Ensure MemoryCardStore implements store.CardStore interface
var _ store.CardStore = (*MemoryCardStore)(nil)

// Create implements store.CardStore.Create.
func (s *MemoryCardStore) Create(ctx context.Context, card *domain.LearningCard) error {
	if err := card.Validate(); err != nil {
		return store.NewStoreError("card", "create", "validation failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cardKey{ownerID: card.OwnerID, cardID: card.CardID}
	if _, exists := s.cards[key]; exists {
		return store.ErrDuplicate
	}

	s.cards[key] = card.Clone()
	return nil
}

// Get implements store.CardStore.Get.
func (s *MemoryCardStore) Get(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
) (*domain.LearningCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, exists := s.cards[cardKey{ownerID: ownerID, cardID: cardID}]
	if !exists {
		return nil, store.ErrCardNotFound
	}

	return card.Clone(), nil
}

// ListByOwner implements store.CardStore.ListByOwner.
func (s *MemoryCardStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.LearningCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cards []*domain.LearningCard
	for key, card := range s.cards {
		if key.ownerID == ownerID {
			cards = append(cards, card.Clone())
		}
	}

	return cards, nil
}

// ListOwners implements store.CardStore.ListOwners.
func (s *MemoryCardStore) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	var owners []uuid.UUID
	for key := range s.cards {
		if _, ok := seen[key.ownerID]; ok {
			continue
		}
		seen[key.ownerID] = struct{}{}
		owners = append(owners, key.ownerID)
	}

	return owners, nil
}

// Save implements store.CardStore.Save. The whole compare-and-swap runs
// under the write lock, which serializes concurrent reviews of one card the
// same way the SQL version predicate does.
func (s *MemoryCardStore) Save(ctx context.Context, card *domain.LearningCard) error {
	if err := card.Validate(); err != nil {
		return store.NewStoreError("card", "save", "validation failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := cardKey{ownerID: card.OwnerID, cardID: card.CardID}
	current, exists := s.cards[key]
	if !exists {
		return store.ErrCardNotFound
	}

	if current.Version != card.Version {
		return store.ErrConflict
	}
	if len(card.History) < len(current.History) {
		return store.NewStoreError(
			"card", "save", "history is append-only", store.ErrInvalidEntity)
	}

	next := card.Clone()
	next.Version = current.Version + 1
	s.cards[key] = next

	card.Version = next.Version
	return nil
}
