package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/neuropulse/pulse-api/internal/domain"
	"github.com/neuropulse/pulse-api/internal/platform/logger"
	"github.com/neuropulse/pulse-api/internal/store"
)

// PostgresCardStore implements the store.CardStore interface using a
// PostgreSQL database as the storage backend.
//
// Card rows carry a version column used for optimistic concurrency: Save
// only updates a row whose version matches the loaded card, so two reviews
// of the same card racing each other cannot interleave. Review history lives
// in an append-only review_events table and is never rewritten.
type PostgresCardStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection that should be
// initialized and managed by the caller. If logger is nil, a default logger
// will be used.
func NewPostgresCardStore(db *sql.DB, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

const cardColumns = `
	card_id, owner_id, content,
	ease_factor, interval_days, repetitions, lapses, graduation_stage,
	next_review_at, last_reviewed_at,
	total_reviews, correct_reviews, average_response_time,
	retention_strength, memory_stability,
	version, created_at, updated_at
`

// Create implements store.CardStore.Create.
// It saves a new card row; the history is empty at creation time.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.LearningCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.CardID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	content, err := json.Marshal(card.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal card content: %w", err)
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		card.CardID,
		card.OwnerID,
		content,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.Lapses,
		string(card.GraduationStage),
		card.NextReviewAt,
		card.LastReviewedAt,
		card.Metrics.TotalReviews,
		card.Metrics.CorrectReviews,
		card.Metrics.AverageResponseTime,
		card.Metrics.RetentionStrength,
		card.Metrics.MemoryStability,
		card.Version,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.CardID.String()),
			slog.String("owner_id", card.OwnerID.String()))
		return MapError(err)
	}

	log.Debug("card created",
		slog.String("card_id", card.CardID.String()),
		slog.String("owner_id", card.OwnerID.String()))
	return nil
}

// Get implements store.CardStore.Get.
// Returns store.ErrCardNotFound if no card exists for the owner and ID.
func (s *PostgresCardStore) Get(
	ctx context.Context,
	ownerID, cardID uuid.UUID,
) (*domain.LearningCard, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE owner_id = $1 AND card_id = $2`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, ownerID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}

	history, err := s.loadHistory(ctx, s.db, cardID)
	if err != nil {
		return nil, err
	}
	card.History = history

	return card, nil
}

// ListByOwner implements store.CardStore.ListByOwner.
func (s *PostgresCardStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.LearningCard, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE owner_id = $1`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.LearningCard
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	for _, card := range cards {
		history, err := s.loadHistory(ctx, s.db, card.CardID)
		if err != nil {
			return nil, err
		}
		card.History = history
	}

	return cards, nil
}

// ListOwners implements store.CardStore.ListOwners.
func (s *PostgresCardStore) ListOwners(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM cards`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var owners []uuid.UUID
	for rows.Next() {
		var ownerID uuid.UUID
		if err := rows.Scan(&ownerID); err != nil {
			return nil, MapError(err)
		}
		owners = append(owners, ownerID)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return owners, nil
}

// Save implements store.CardStore.Save.
//
// The scheduling state update and the history append commit in a single
// transaction; the UPDATE's version predicate detects concurrent writers.
// Returns store.ErrConflict when the card changed since it was loaded, and
// store.ErrCardNotFound when it does not exist at all.
func (s *PostgresCardStore) Save(ctx context.Context, card *domain.LearningCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			UPDATE cards SET
				ease_factor = $1, interval_days = $2, repetitions = $3, lapses = $4,
				graduation_stage = $5, next_review_at = $6, last_reviewed_at = $7,
				total_reviews = $8, correct_reviews = $9, average_response_time = $10,
				retention_strength = $11, memory_stability = $12,
				version = version + 1, updated_at = $13
			WHERE owner_id = $14 AND card_id = $15 AND version = $16
		`
		res, err := tx.ExecContext(
			ctx,
			query,
			card.EaseFactor,
			card.IntervalDays,
			card.Repetitions,
			card.Lapses,
			string(card.GraduationStage),
			card.NextReviewAt,
			card.LastReviewedAt,
			card.Metrics.TotalReviews,
			card.Metrics.CorrectReviews,
			card.Metrics.AverageResponseTime,
			card.Metrics.RetentionStrength,
			card.Metrics.MemoryStability,
			card.UpdatedAt,
			card.OwnerID,
			card.CardID,
			card.Version,
		)
		if err != nil {
			return MapError(err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return MapError(err)
		}
		if affected == 0 {
			// Distinguish a missing card from a stale version.
			var exists bool
			check := `SELECT EXISTS (SELECT 1 FROM cards WHERE owner_id = $1 AND card_id = $2)`
			if err := tx.QueryRowContext(ctx, check, card.OwnerID, card.CardID).Scan(&exists); err != nil {
				return MapError(err)
			}
			if !exists {
				return store.ErrCardNotFound
			}
			return store.ErrConflict
		}

		return s.appendNewEvents(ctx, tx, card)
	})
	if err != nil {
		if store.IsConflictError(err) {
			log.Debug("card save conflict",
				slog.String("card_id", card.CardID.String()),
				slog.Int64("version", card.Version))
		} else if !store.IsNotFoundError(err) {
			log.Error("failed to save card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.CardID.String()))
		}
		return err
	}

	card.Version++
	return nil
}

// appendNewEvents inserts the history events added since the card was
// loaded. Already-persisted events are left untouched.
func (s *PostgresCardStore) appendNewEvents(
	ctx context.Context,
	tx *sql.Tx,
	card *domain.LearningCard,
) error {
	var persisted int
	count := `SELECT COUNT(*) FROM review_events WHERE card_id = $1`
	if err := tx.QueryRowContext(ctx, count, card.CardID).Scan(&persisted); err != nil {
		return MapError(err)
	}

	if persisted > len(card.History) {
		return fmt.Errorf("%w: card history shorter than persisted events", store.ErrInvalidEntity)
	}

	insert := `
		INSERT INTO review_events (
			card_id, reviewed_at, quality, response_time_seconds,
			difficulty_felt, energy_level, time_of_day_hour
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, ev := range card.History[persisted:] {
		_, err := tx.ExecContext(
			ctx,
			insert,
			card.CardID,
			ev.Timestamp,
			ev.Quality,
			ev.ResponseTimeSeconds,
			ev.DifficultyFelt,
			ev.EnergyLevel,
			ev.TimeOfDayHour,
		)
		if err != nil {
			return MapError(err)
		}
	}

	return nil
}

// loadHistory reads a card's review events in insertion order.
func (s *PostgresCardStore) loadHistory(
	ctx context.Context,
	db store.DBTX,
	cardID uuid.UUID,
) ([]domain.ReviewEvent, error) {
	query := `
		SELECT reviewed_at, quality, response_time_seconds,
		       difficulty_felt, energy_level, time_of_day_hour
		FROM review_events
		WHERE card_id = $1
		ORDER BY id
	`
	rows, err := db.QueryContext(ctx, query, cardID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var history []domain.ReviewEvent
	for rows.Next() {
		var ev domain.ReviewEvent
		var energy, hour sql.NullInt64
		if err := rows.Scan(
			&ev.Timestamp,
			&ev.Quality,
			&ev.ResponseTimeSeconds,
			&ev.DifficultyFelt,
			&energy,
			&hour,
		); err != nil {
			return nil, MapError(err)
		}
		if energy.Valid {
			v := int(energy.Int64)
			ev.EnergyLevel = &v
		}
		if hour.Valid {
			v := int(hour.Int64)
			ev.TimeOfDayHour = &v
		}
		history = append(history, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return history, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanCard.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCard reads one cards row in cardColumns order.
func scanCard(row rowScanner) (*domain.LearningCard, error) {
	var card domain.LearningCard
	var content []byte
	var stage string
	var lastReviewed sql.NullTime

	err := row.Scan(
		&card.CardID,
		&card.OwnerID,
		&content,
		&card.EaseFactor,
		&card.IntervalDays,
		&card.Repetitions,
		&card.Lapses,
		&stage,
		&card.NextReviewAt,
		&lastReviewed,
		&card.Metrics.TotalReviews,
		&card.Metrics.CorrectReviews,
		&card.Metrics.AverageResponseTime,
		&card.Metrics.RetentionStrength,
		&card.Metrics.MemoryStability,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(content, &card.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card content: %w", err)
	}
	card.GraduationStage = domain.GraduationStage(stage)
	if lastReviewed.Valid {
		t := lastReviewed.Time.UTC()
		card.LastReviewedAt = &t
	}

	return &card, nil
}
