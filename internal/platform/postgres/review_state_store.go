package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

const reviewStateColumns = `interval_days, repetitions, ease_factor, next_review, last_reviewed_at`

// PostgresReviewStateStore implements the store.ReviewStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStateStore creates a new PostgreSQL implementation of the ReviewStateStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStateStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStateStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_state_store")),
	}
}

// Ensure PostgresReviewStateStore implements store.ReviewStateStore interface
var _ store.ReviewStateStore = (*PostgresReviewStateStore)(nil)

// Get implements store.ReviewStateStore.Get
func (s *PostgresReviewStateStore) Get(
	ctx context.Context,
	key domain.ReviewKey,
) (domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE learner_id = $1 AND deck_id = $2 AND card_index = $3
	`

	state, err := scanReviewState(s.db.QueryRowContext(ctx, query, key.LearnerID, key.DeckID, key.CardIndex))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("review state not found", reviewKeyAttrs(key)...)
			return domain.ReviewState{}, store.ErrReviewStateNotFound
		}

		log.Error("failed to get review state",
			append(reviewKeyAttrs(key), slog.String("error", err.Error()))...)
		return domain.ReviewState{}, mapEntityError(err, store.ErrReviewStateNotFound)
	}

	return state, nil
}

// Upsert implements store.ReviewStateStore.Upsert
// The row for key is inserted or fully replaced in a single statement.
func (s *PostgresReviewStateStore) Upsert(
	ctx context.Context,
	key domain.ReviewKey,
	state domain.ReviewState,
) error {
	return s.upsert(ctx, key, state)
}

func (s *PostgresReviewStateStore) upsert(
	ctx context.Context,
	key domain.ReviewKey,
	state domain.ReviewState,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateReviewWrite(key, state); err != nil {
		log.Warn("review state validation failed during upsert",
			append(reviewKeyAttrs(key), slog.String("error", err.Error()))...)
		return err
	}

	query := `
		INSERT INTO review_states (
			learner_id, deck_id, card_index,
			interval_days, repetitions, ease_factor, next_review, last_reviewed_at,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (learner_id, deck_id, card_index) DO UPDATE SET
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			ease_factor = EXCLUDED.ease_factor,
			next_review = EXCLUDED.next_review,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			updated_at = NOW()
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		key.LearnerID,
		key.DeckID,
		key.CardIndex,
		state.IntervalDays,
		state.Repetitions,
		state.EaseFactor,
		domain.DateOf(state.NextReview),
		nullTime(state.LastReviewedAt),
	)
	if err != nil {
		log.Error("failed to upsert review state",
			append(reviewKeyAttrs(key), slog.String("error", err.Error()))...)
		return MapError(err)
	}

	log.Debug("review state upserted",
		append(reviewKeyAttrs(key),
			slog.Int("interval_days", state.IntervalDays),
			slog.String("next_review", domain.DateOf(state.NextReview).Format(time.DateOnly)))...)
	return nil
}

// Modify implements store.ReviewStateStore.Modify
// The existing row is locked with SELECT ... FOR UPDATE for the duration of
// the read-modify-write. When the store wraps a *sql.DB a transaction is
// opened for the call; when it already wraps a transaction that one is used.
func (s *PostgresReviewStateStore) Modify(
	ctx context.Context,
	key domain.ReviewKey,
	fn store.ModifyFn,
) (domain.ReviewState, error) {
	sqlDB, ok := s.db.(*sql.DB)
	if !ok {
		return s.modify(ctx, key, fn)
	}

	var result domain.ReviewState
	err := store.RunInTransaction(ctx, sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		result, err = s.WithTx(tx).modify(ctx, key, fn)
		return err
	})
	return result, err
}

func (s *PostgresReviewStateStore) modify(
	ctx context.Context,
	key domain.ReviewKey,
	fn store.ModifyFn,
) (domain.ReviewState, error) {
	query := `
		SELECT ` + reviewStateColumns + `
		FROM review_states
		WHERE learner_id = $1 AND deck_id = $2 AND card_index = $3
		FOR UPDATE
	`

	var current *domain.ReviewState
	state, err := scanReviewState(s.db.QueryRowContext(ctx, query, key.LearnerID, key.DeckID, key.CardIndex))
	switch {
	case err == nil:
		current = &state
	case errors.Is(err, sql.ErrNoRows):
	default:
		return domain.ReviewState{}, MapError(err)
	}

	next, err := fn(current)
	if err != nil {
		return domain.ReviewState{}, err
	}

	if err := s.upsert(ctx, key, next); err != nil {
		return domain.ReviewState{}, err
	}
	return next, nil
}

// CountDue implements store.ReviewStateStore.CountDue
func (s *PostgresReviewStateStore) CountDue(
	ctx context.Context,
	learnerID uuid.UUID,
	asOf time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM review_states
		WHERE learner_id = $1 AND next_review <= $2
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, learnerID, domain.DateOf(asOf)).Scan(&count); err != nil {
		log.Error("failed to count due review states",
			slog.String("learner_id", learnerID.String()),
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return count, nil
}

// ListDue implements store.ReviewStateStore.ListDue
func (s *PostgresReviewStateStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]domain.DueCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT deck_id, card_index, next_review
		FROM review_states
		WHERE learner_id = $1 AND next_review <= $2
		ORDER BY next_review ASC, deck_id ASC, card_index ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, learnerID, domain.DateOf(asOf), limit)
	if err != nil {
		log.Error("failed to list due review states",
			slog.String("learner_id", learnerID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := make([]domain.DueCard, 0)
	for rows.Next() {
		var card domain.DueCard
		if err := rows.Scan(&card.DeckID, &card.CardIndex, &card.NextReview); err != nil {
			return nil, MapError(err)
		}
		card.NextReview = domain.DateOf(card.NextReview)
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating due review states",
			slog.String("learner_id", learnerID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return cards, nil
}

// WithTx returns a store that runs its queries inside tx.
func (s *PostgresReviewStateStore) WithTx(tx *sql.Tx) *PostgresReviewStateStore {
	return &PostgresReviewStateStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanReviewState(row *sql.Row) (domain.ReviewState, error) {
	var state domain.ReviewState
	var lastReviewedAt sql.NullTime

	err := row.Scan(
		&state.IntervalDays,
		&state.Repetitions,
		&state.EaseFactor,
		&state.NextReview,
		&lastReviewedAt,
	)
	if err != nil {
		return domain.ReviewState{}, err
	}

	state.NextReview = domain.DateOf(state.NextReview)
	if lastReviewedAt.Valid {
		t := lastReviewedAt.Time
		state.LastReviewedAt = &t
	}
	return state, nil
}

func validateReviewWrite(key domain.ReviewKey, state domain.ReviewState) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	return nil
}

func reviewKeyAttrs(key domain.ReviewKey) []any {
	return []any{
		slog.String("learner_id", key.LearnerID.String()),
		slog.String("deck_id", key.DeckID.String()),
		slog.Int("card_index", key.CardIndex),
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
