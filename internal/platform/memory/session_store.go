package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

type pairKey struct {
	learnerID uuid.UUID
	deckID    uuid.UUID
}

// SessionStore is an in-memory store.SessionStore. Every operation runs
// under a single mutex, which makes GetOrCreate and IncrementStat atomic.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]domain.Session
	byPair    map[pairKey]uuid.UUID
	touched   map[uuid.UUID]time.Time
	lastSweep time.Time
	ttl       time.Duration
	ephemeral bool
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a SessionStore.
type Option func(*SessionStore)

// WithClock sets the time source used for creation and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SessionStore) {
		s.now = now
	}
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *SessionStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTTL evicts sessions that have not been read or written for ttl.
// Zero keeps sessions for the lifetime of the store.
func WithTTL(ttl time.Duration) Option {
	return func(s *SessionStore) {
		s.ttl = ttl
	}
}

// NewSessionStore creates a SessionStore that keeps one session per
// learner and deck for the lifetime of the process.
func NewSessionStore(opts ...Option) *SessionStore {
	return newSessionStore(false, "memory_session_store", opts...)
}

// NewEphemeralSessionStore creates a SessionStore for disposable decks.
// GetOrCreate always starts a fresh session, replacing the previous one for
// the learner and deck; GetLatest finds it again for the rest of the pass.
// Sessions are never persisted. Use WithTTL to bound how long idle passes
// are kept.
func NewEphemeralSessionStore(opts ...Option) *SessionStore {
	return newSessionStore(true, "ephemeral_session_store", opts...)
}

func newSessionStore(ephemeral bool, component string, opts ...Option) *SessionStore {
	s := &SessionStore{
		sessions:  make(map[uuid.UUID]domain.Session),
		byPair:    make(map[pairKey]uuid.UUID),
		touched:   make(map[uuid.UUID]time.Time),
		ephemeral: ephemeral,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", component))
	return s
}

var _ store.SessionStore = (*SessionStore)(nil)

// GetActive implements store.SessionStore.GetActive
func (s *SessionStore) GetActive(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookupLocked(learnerID, deckID)
	if !ok || session.IsCompleted() {
		return domain.Session{}, store.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// GetLatest implements store.SessionStore.GetLatest
func (s *SessionStore) GetLatest(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.lookupLocked(learnerID, deckID)
	if !ok {
		return domain.Session{}, store.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// Create implements store.SessionStore.Create
// An ephemeral store replaces any previous session for the pair instead of failing.
func (s *SessionStore) Create(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookupLocked(learnerID, deckID); ok && !s.ephemeral {
		return domain.Session{}, store.ErrSessionExists
	}
	return s.createLocked(ctx, learnerID, deckID), nil
}

// GetOrCreate implements store.SessionStore.GetOrCreate
func (s *SessionStore) GetOrCreate(
	ctx context.Context,
	learnerID, deckID uuid.UUID,
) (domain.Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ephemeral {
		if session, ok := s.lookupLocked(learnerID, deckID); ok {
			return cloneSession(session), false, nil
		}
	}
	return s.createLocked(ctx, learnerID, deckID), true, nil
}

// Len returns the number of sessions held, including idle ones not yet evicted.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// UpdateProgress implements store.SessionStore.UpdateProgress
func (s *SessionStore) UpdateProgress(ctx context.Context, sessionID uuid.UUID, newIndex int) error {
	if newIndex < 0 {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidCardIndex)
	}
	_, err := s.mutate(ctx, sessionID, func(session domain.Session) domain.Session {
		session.CurrentIndex = newIndex
		return session
	})
	return err
}

// IncrementStat implements store.SessionStore.IncrementStat
func (s *SessionStore) IncrementStat(
	ctx context.Context,
	sessionID uuid.UUID,
	stat domain.SessionStat,
) (int, error) {
	if !stat.IsValid() {
		return 0, fmt.Errorf("%w: %v: %q", store.ErrInvalidEntity, domain.ErrInvalidSessionStat, stat)
	}
	session, err := s.mutate(ctx, sessionID, func(session domain.Session) domain.Session {
		return session.WithIncrement(stat)
	})
	if err != nil {
		return 0, err
	}
	return session.Count(stat), nil
}

// Complete implements store.SessionStore.Complete
func (s *SessionStore) Complete(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	return s.mutate(ctx, sessionID, func(session domain.Session) domain.Session {
		if session.IsCompleted() {
			return session
		}
		completedAt := s.now().UTC()
		session.Status = domain.SessionStatusCompleted
		session.CompletedAt = &completedAt
		return session
	})
}

// Restart implements store.SessionStore.Restart
func (s *SessionStore) Restart(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	return s.mutate(ctx, sessionID, domain.Session.Reset)
}

func (s *SessionStore) mutate(
	ctx context.Context,
	sessionID uuid.UUID,
	fn func(domain.Session) domain.Session,
) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || s.expiredLocked(sessionID) {
		logger.FromContextOrDefault(ctx, s.logger).Debug("session not found",
			slog.String("session_id", sessionID.String()))
		return domain.Session{}, store.ErrSessionNotFound
	}

	session = fn(cloneSession(session))
	if err := session.Validate(); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	s.sessions[sessionID] = session
	s.touched[sessionID] = s.now()
	return cloneSession(session), nil
}

func (s *SessionStore) lookupLocked(learnerID, deckID uuid.UUID) (domain.Session, bool) {
	id, ok := s.byPair[pairKey{learnerID, deckID}]
	if !ok || s.expiredLocked(id) {
		return domain.Session{}, false
	}
	session, ok := s.sessions[id]
	if ok {
		s.touched[id] = s.now()
	}
	return session, ok
}

func (s *SessionStore) createLocked(ctx context.Context, learnerID, deckID uuid.UUID) domain.Session {
	s.sweepLocked(ctx)

	key := pairKey{learnerID, deckID}
	if previous, ok := s.byPair[key]; ok {
		s.removeLocked(previous)
	}

	session := domain.NewSession(learnerID, deckID, s.now())
	s.sessions[session.ID] = session
	s.byPair[key] = session.ID
	s.touched[session.ID] = s.now()

	logger.FromContextOrDefault(ctx, s.logger).Debug("session created",
		slog.String("session_id", session.ID.String()),
		slog.String("learner_id", learnerID.String()),
		slog.String("deck_id", deckID.String()))
	return cloneSession(session)
}

func (s *SessionStore) expiredLocked(id uuid.UUID) bool {
	if s.ttl <= 0 {
		return false
	}
	touched, ok := s.touched[id]
	return ok && s.now().Sub(touched) >= s.ttl
}

// sweepLocked evicts idle sessions, at most once per quarter TTL.
func (s *SessionStore) sweepLocked(ctx context.Context) {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	if now.Sub(s.lastSweep) < s.ttl/4 {
		return
	}
	s.lastSweep = now

	evicted := 0
	for id := range s.sessions {
		if s.expiredLocked(id) {
			s.removeLocked(id)
			evicted++
		}
	}
	if evicted > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Debug("evicted idle sessions",
			slog.Int("evicted", evicted),
			slog.Int("remaining", len(s.sessions)))
	}
}

func (s *SessionStore) removeLocked(id uuid.UUID) {
	if session, ok := s.sessions[id]; ok {
		key := pairKey{session.LearnerID, session.DeckID}
		if s.byPair[key] == id {
			delete(s.byPair, key)
		}
	}
	delete(s.sessions, id)
	delete(s.touched, id)
}

func cloneSession(session domain.Session) domain.Session {
	if session.CompletedAt != nil {
		t := *session.CompletedAt
		session.CompletedAt = &t
	}
	return session
}
