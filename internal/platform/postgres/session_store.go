package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

const sessionColumns = `id, learner_id, deck_id, current_index, status,
	correct_count, incorrect_count, hint_count, created_at, completed_at`

// getOrCreateAttempts bounds the retries of GetOrCreate. A retry is only
// needed when a concurrent insert commits between the statement snapshot and
// the conflict check, so the second attempt always sees the row.
const getOrCreateAttempts = 3

// statColumns maps each session stat onto its counter column.
var statColumns = map[domain.SessionStat]string{
	domain.SessionStatCorrect:   "correct_count",
	domain.SessionStatIncorrect: "incorrect_count",
	domain.SessionStatHint:      "hint_count",
}

// PostgresSessionStore implements the store.SessionStore interface
// using a PostgreSQL database as the storage backend.
//
// The study_sessions table has a unique (learner_id, deck_id) constraint, so
// there is never more than one session row per learner and deck.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a new PostgreSQL implementation of the SessionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Ensure PostgresSessionStore implements store.SessionStore interface
var _ store.SessionStore = (*PostgresSessionStore)(nil)

// GetActive implements store.SessionStore.GetActive
func (s *PostgresSessionStore) GetActive(
	ctx context.Context,
	learnerID, deckID uuid.UUID,
) (domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE learner_id = $1 AND deck_id = $2 AND status = 'in_progress'
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, learnerID, deckID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no active session",
				slog.String("learner_id", learnerID.String()),
				slog.String("deck_id", deckID.String()))
			return domain.Session{}, store.ErrSessionNotFound
		}

		log.Error("failed to get active session",
			slog.String("learner_id", learnerID.String()),
			slog.String("deck_id", deckID.String()),
			slog.String("error", err.Error()))
		return domain.Session{}, mapEntityError(err, store.ErrSessionNotFound)
	}

	return session, nil
}

// GetLatest implements store.SessionStore.GetLatest
func (s *PostgresSessionStore) GetLatest(
	ctx context.Context,
	learnerID, deckID uuid.UUID,
) (domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE learner_id = $1 AND deck_id = $2
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, learnerID, deckID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, store.ErrSessionNotFound
		}

		log.Error("failed to get session",
			slog.String("learner_id", learnerID.String()),
			slog.String("deck_id", deckID.String()),
			slog.String("error", err.Error()))
		return domain.Session{}, mapEntityError(err, store.ErrSessionNotFound)
	}

	return session, nil
}

// Create implements store.SessionStore.Create
// Returns store.ErrSessionExists if the learner already has a session for the deck.
func (s *PostgresSessionStore) Create(
	ctx context.Context,
	learnerID, deckID uuid.UUID,
) (domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO study_sessions (id, learner_id, deck_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + sessionColumns

	session, err := scanSession(s.db.QueryRowContext(ctx, query, uuid.New(), learnerID, deckID))
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("session already exists",
				slog.String("learner_id", learnerID.String()),
				slog.String("deck_id", deckID.String()))
			return domain.Session{}, MapUniqueViolation(err, store.ErrSessionExists)
		}

		log.Error("failed to create session",
			slog.String("learner_id", learnerID.String()),
			slog.String("deck_id", deckID.String()),
			slog.String("error", err.Error()))
		return domain.Session{}, MapError(err)
	}

	log.Info("session created",
		slog.String("session_id", session.ID.String()),
		slog.String("learner_id", learnerID.String()),
		slog.String("deck_id", deckID.String()))
	return session, nil
}

// GetOrCreate implements store.SessionStore.GetOrCreate
//
// The insert and the lookup run as one statement. ON CONFLICT DO NOTHING
// makes concurrent callers agree on a single row; the caller that loses the
// race reads the winner's row instead of inserting its own. The created
// column tells the two branches apart.
func (s *PostgresSessionStore) GetOrCreate(
	ctx context.Context,
	learnerID, deckID uuid.UUID,
) (domain.Session, bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		WITH inserted AS (
			INSERT INTO study_sessions (id, learner_id, deck_id, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (learner_id, deck_id) DO NOTHING
			RETURNING ` + sessionColumns + `
		)
		SELECT ` + sessionColumns + `, true AS created FROM inserted
		UNION ALL
		SELECT ` + sessionColumns + `, false AS created
		FROM study_sessions
		WHERE learner_id = $2 AND deck_id = $3
		LIMIT 1
	`

	var lastErr error
	for attempt := 1; attempt <= getOrCreateAttempts; attempt++ {
		var created bool
		session, err := scanSession(s.db.QueryRowContext(ctx, query, uuid.New(), learnerID, deckID), &created)
		if err == nil {
			log.Debug("session resolved",
				slog.String("session_id", session.ID.String()),
				slog.String("learner_id", learnerID.String()),
				slog.String("deck_id", deckID.String()),
				slog.String("status", string(session.Status)),
				slog.Bool("created", created))
			return session, created, nil
		}

		if !errors.Is(err, sql.ErrNoRows) {
			log.Error("failed to get or create session",
				slog.String("learner_id", learnerID.String()),
				slog.String("deck_id", deckID.String()),
				slog.String("error", err.Error()))
			return domain.Session{}, false, MapError(err)
		}

		// The conflicting row was committed after this statement's snapshot.
		lastErr = err
		log.Debug("session insert raced, retrying",
			slog.String("learner_id", learnerID.String()),
			slog.String("deck_id", deckID.String()),
			slog.Int("attempt", attempt))
	}

	return domain.Session{}, false, store.NewStoreError(
		"session",
		"get_or_create",
		fmt.Sprintf("no row visible after %d attempts", getOrCreateAttempts),
		lastErr,
	)
}

// UpdateProgress implements store.SessionStore.UpdateProgress
func (s *PostgresSessionStore) UpdateProgress(
	ctx context.Context,
	sessionID uuid.UUID,
	newIndex int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if newIndex < 0 {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidCardIndex)
	}

	query := `
		UPDATE study_sessions
		SET current_index = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, sessionID, newIndex)
	if err != nil {
		log.Error("failed to update session progress",
			slog.String("session_id", sessionID.String()),
			slog.Int("current_index", newIndex),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrSessionNotFound); err != nil {
		log.Debug("session not found for progress update",
			slog.String("session_id", sessionID.String()))
		return err
	}

	log.Debug("session progress updated",
		slog.String("session_id", sessionID.String()),
		slog.Int("current_index", newIndex))
	return nil
}

// IncrementStat implements store.SessionStore.IncrementStat
// The increment happens inside the UPDATE, so concurrent increments never lose updates.
func (s *PostgresSessionStore) IncrementStat(
	ctx context.Context,
	sessionID uuid.UUID,
	stat domain.SessionStat,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	column, ok := statColumns[stat]
	if !ok {
		return 0, fmt.Errorf("%w: %v: %q", store.ErrInvalidEntity, domain.ErrInvalidSessionStat, stat)
	}

	query := fmt.Sprintf(`
		UPDATE study_sessions
		SET %[1]s = %[1]s + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING %[1]s
	`, column)

	var count int
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		log.Error("failed to increment session stat",
			slog.String("session_id", sessionID.String()),
			slog.String("stat", string(stat)),
			slog.String("error", err.Error()))
		return 0, mapEntityError(err, store.ErrSessionNotFound)
	}

	return count, nil
}

// Complete implements store.SessionStore.Complete
// The first completion time is kept when the session is completed again.
func (s *PostgresSessionStore) Complete(
	ctx context.Context,
	sessionID uuid.UUID,
) (domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE study_sessions
		SET status = 'completed',
			completed_at = COALESCE(completed_at, NOW()),
			updated_at = CASE WHEN status = 'completed' THEN updated_at ELSE NOW() END
		WHERE id = $1
		RETURNING ` + sessionColumns

	session, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		log.Error("failed to complete session",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return domain.Session{}, mapEntityError(err, store.ErrSessionNotFound)
	}

	log.Info("session completed",
		slog.String("session_id", sessionID.String()),
		slog.Int("correct_count", session.CorrectCount),
		slog.Int("incorrect_count", session.IncorrectCount))
	return session, nil
}

// Restart implements store.SessionStore.Restart
func (s *PostgresSessionStore) Restart(
	ctx context.Context,
	sessionID uuid.UUID,
) (domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE study_sessions
		SET current_index = 0,
			status = 'in_progress',
			correct_count = 0,
			incorrect_count = 0,
			hint_count = 0,
			completed_at = NULL,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns

	session, err := scanSession(s.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		log.Error("failed to restart session",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
		return domain.Session{}, mapEntityError(err, store.ErrSessionNotFound)
	}

	log.Info("session restarted", slog.String("session_id", sessionID.String()))
	return session, nil
}

// scanSession reads the sessionColumns of row, followed by any extra columns into extra.
func scanSession(row *sql.Row, extra ...any) (domain.Session, error) {
	var session domain.Session
	var status string
	var completedAt sql.NullTime

	dest := []any{
		&session.ID,
		&session.LearnerID,
		&session.DeckID,
		&session.CurrentIndex,
		&status,
		&session.CorrectCount,
		&session.IncorrectCount,
		&session.HintCount,
		&session.CreatedAt,
		&completedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return domain.Session{}, err
	}

	session.Status = domain.SessionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		session.CompletedAt = &t
	}
	return session, nil
}
