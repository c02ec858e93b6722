package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/store"
)

func newStoredCard(t *testing.T, ownerID uuid.UUID) *domain.LearningCard {
	t.Helper()

	card, err := domain.NewLearningCard(ownerID, domain.CardContent{
		Question: "What does Save compare?",
		Answer:   "The card version.",
	}, time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return card
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()
	ownerID := uuid.New()
	card := newStoredCard(t, ownerID)

	require.NoError(t, cardStore.Create(ctx, card))

	got, err := cardStore.Get(ctx, ownerID, card.CardID)
	require.NoError(t, err)
	assert.Equal(t, card.CardID, got.CardID)
	assert.Equal(t, card.Content.Question, got.Content.Question)

	// Returned cards are copies: mutating one must not leak into the store.
	got.Content.Question = "mutated"
	again, err := cardStore.Get(ctx, ownerID, card.CardID)
	require.NoError(t, err)
	assert.Equal(t, card.Content.Question, again.Content.Question)
}

func TestCreate_RejectsDuplicateAndInvalid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()
	card := newStoredCard(t, uuid.New())

	require.NoError(t, cardStore.Create(ctx, card))
	assert.ErrorIs(t, cardStore.Create(ctx, card), store.ErrDuplicate)

	bad := newStoredCard(t, uuid.New())
	bad.Content.Question = ""
	err := cardStore.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrCardQuestionEmpty)
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()

	cardStore := NewMemoryCardStore()
	_, err := cardStore.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestGet_ScopedToOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()
	card := newStoredCard(t, uuid.New())
	require.NoError(t, cardStore.Create(ctx, card))

	// Another owner cannot read the card even with the right card ID.
	_, err := cardStore.Get(ctx, uuid.New(), card.CardID)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestSave_BumpsVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()
	card := newStoredCard(t, uuid.New())
	require.NoError(t, cardStore.Create(ctx, card))

	loaded, err := cardStore.Get(ctx, card.OwnerID, card.CardID)
	require.NoError(t, err)

	loaded.Repetitions = 1
	require.NoError(t, cardStore.Save(ctx, loaded))
	assert.Equal(t, card.Version+1, loaded.Version)

	stored, err := cardStore.Get(ctx, card.OwnerID, card.CardID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Repetitions)
	assert.Equal(t, loaded.Version, stored.Version)
}

func TestSave_StaleVersionConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()
	card := newStoredCard(t, uuid.New())
	require.NoError(t, cardStore.Create(ctx, card))

	// Two readers load the same version; the second save must lose.
	first, err := cardStore.Get(ctx, card.OwnerID, card.CardID)
	require.NoError(t, err)
	second, err := cardStore.Get(ctx, card.OwnerID, card.CardID)
	require.NoError(t, err)

	first.Repetitions = 1
	require.NoError(t, cardStore.Save(ctx, first))

	second.Repetitions = 2
	err = cardStore.Save(ctx, second)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.True(t, store.IsConflictError(err))
}

func TestSave_MissingCard(t *testing.T) {
	t.Parallel()

	cardStore := NewMemoryCardStore()
	card := newStoredCard(t, uuid.New())

	assert.ErrorIs(t, cardStore.Save(context.Background(), card), store.ErrCardNotFound)
}

func TestSave_HistoryIsAppendOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()
	card := newStoredCard(t, uuid.New())
	card.History = []domain.ReviewEvent{
		{Timestamp: time.Now(), Quality: 4, DifficultyFelt: 3},
	}
	require.NoError(t, cardStore.Create(ctx, card))

	loaded, err := cardStore.Get(ctx, card.OwnerID, card.CardID)
	require.NoError(t, err)

	loaded.History = nil
	err = cardStore.Save(ctx, loaded)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestListByOwner_FiltersAndCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()
	ownerID := uuid.New()

	mine := newStoredCard(t, ownerID)
	alsoMine := newStoredCard(t, ownerID)
	theirs := newStoredCard(t, uuid.New())
	for _, card := range []*domain.LearningCard{mine, alsoMine, theirs} {
		require.NoError(t, cardStore.Create(ctx, card))
	}

	cards, err := cardStore.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
	for _, card := range cards {
		assert.Equal(t, ownerID, card.OwnerID)
	}
}

func TestListOwners_Deduplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cardStore := NewMemoryCardStore()

	ownerA := uuid.New()
	ownerB := uuid.New()
	require.NoError(t, cardStore.Create(ctx, newStoredCard(t, ownerA)))
	require.NoError(t, cardStore.Create(ctx, newStoredCard(t, ownerA)))
	require.NoError(t, cardStore.Create(ctx, newStoredCard(t, ownerB)))

	owners, err := cardStore.ListOwners(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{ownerA, ownerB}, owners)
}
