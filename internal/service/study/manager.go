package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/platform/memory"
	"github.com/phrazzld/scry-study/internal/service/review"
	"github.com/phrazzld/scry-study/internal/store"
)

// Manager runs study passes. It is safe for concurrent use.
type Manager struct {
	sessions  store.SessionStore
	ephemeral store.SessionStore
	scheduler review.Scheduler
	emitter   events.EventEmitter
	now       func() time.Time
	inflight  *inflight
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithEventEmitter sets the sink notified after successful operations.
func WithEventEmitter(emitter events.EventEmitter) Option {
	return func(m *Manager) {
		if emitter != nil {
			m.emitter = emitter
		}
	}
}

// WithClock sets the time source used to schedule reviews.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the manager's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithEphemeralStore sets the store holding passes over disposable decks.
// Its GetOrCreate must always start a fresh session.
func WithEphemeralStore(sessions store.SessionStore) Option {
	return func(m *Manager) {
		m.ephemeral = sessions
	}
}

// NewManager creates a Manager backed by the durable session store and the scheduler.
func NewManager(sessions store.SessionStore, scheduler review.Scheduler, opts ...Option) *Manager {
	if sessions == nil {
		panic("sessions cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}

	m := &Manager{
		sessions:  sessions,
		scheduler: scheduler,
		emitter:   events.NopEmitter{},
		now:       time.Now,
		inflight:  newInflight(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(slog.String("component", "study_manager"))
	if m.ephemeral == nil {
		m.ephemeral = memory.NewEphemeralSessionStore(
			memory.WithClock(m.now),
			memory.WithLogger(m.logger),
			memory.WithTTL(DefaultEphemeralTTL))
	}
	return m
}

// DefaultEphemeralTTL is how long an idle pass over a disposable deck is kept
// by the default ephemeral store.
const DefaultEphemeralTTL = 2 * time.Hour

// Begin opens or resumes the learner's pass over deck.
// A durable deck resumes its stored session. A disposable deck always starts
// a fresh pass; use Resume to continue it.
// A stored position past the end of a deck that lost cards is reset to the
// first card and the correction is persisted.
func (m *Manager) Begin(ctx context.Context, learnerID uuid.UUID, deck domain.Deck) (Pass, error) {
	return m.open(ctx, learnerID, deck, false)
}

// Resume continues the learner's pass over deck. For a durable deck it is the
// same as Begin. For a disposable deck it returns the pass started by the last
// Begin, whatever its status, and starts one only when there is none.
func (m *Manager) Resume(ctx context.Context, learnerID uuid.UUID, deck domain.Deck) (Pass, error) {
	return m.open(ctx, learnerID, deck, true)
}

func (m *Manager) open(ctx context.Context, learnerID uuid.UUID, deck domain.Deck, resume bool) (Pass, error) {
	log := logger.FromContextOrDefault(ctx, m.logger).With(
		slog.String("learner_id", learnerID.String()),
		slog.String("deck_id", deck.ID.String()))

	if learnerID == uuid.Nil {
		return Pass{}, NewBeginError("invalid learner", domain.ErrEmptyLearnerID)
	}
	if deck.ID == uuid.Nil {
		return Pass{}, NewBeginError("invalid deck", domain.ErrEmptyDeckID)
	}
	if deck.CardCount <= 0 {
		log.Warn("refusing to begin a pass over an empty deck", slog.Int("card_count", deck.CardCount))
		return Pass{}, fmt.Errorf("%w: deck has no cards to study", ErrInvalidDeckState)
	}

	sessions := m.sessions
	if deck.Disposable {
		sessions = m.ephemeral
	}

	session, created, err := m.resolve(ctx, sessions, learnerID, deck, resume)
	if err != nil {
		log.Error("failed to resolve session", slog.String("error", err.Error()))
		return Pass{}, NewBeginError("failed to resolve session", err)
	}

	if session.CurrentIndex >= deck.CardCount {
		log.Warn("session position past end of deck, resetting to first card",
			slog.String("session_id", session.ID.String()),
			slog.Int("current_index", session.CurrentIndex),
			slog.Int("card_count", deck.CardCount))
		if err := sessions.UpdateProgress(ctx, session.ID, 0); err != nil {
			return Pass{}, NewBeginError("failed to reset session position", err)
		}
		session.CurrentIndex = 0
	}

	pass := Pass{
		Session:   session,
		Deck:      deck,
		sessions:  sessions,
		ephemeral: deck.Disposable,
	}

	log.Debug("pass opened",
		slog.String("session_id", session.ID.String()),
		slog.Int("current_index", session.CurrentIndex),
		slog.String("status", string(session.Status)),
		slog.Bool("ephemeral", deck.Disposable),
		slog.Bool("created", created))

	if created {
		m.emit(ctx, pass, events.TypeSessionStarted, sessionPayload(session))
	}
	return pass, nil
}

// resolve finds the session for the pass. Only a disposable resume looks the
// latest session up first; everything else goes through GetOrCreate.
func (m *Manager) resolve(
	ctx context.Context,
	sessions store.SessionStore,
	learnerID uuid.UUID,
	deck domain.Deck,
	resume bool,
) (domain.Session, bool, error) {
	if resume && deck.Disposable {
		session, err := sessions.GetLatest(ctx, learnerID, deck.ID)
		if err == nil {
			return session, false, nil
		}
		if !errors.Is(err, store.ErrSessionNotFound) {
			return domain.Session{}, false, err
		}
	}
	return sessions.GetOrCreate(ctx, learnerID, deck.ID)
}

// GradeCard records one answer. The review schedule is written first; when it
// fails nothing else is written and the grade can be retried. Counter
// increments that fail after the schedule was written are reported in
// GradeResult.StatErr rather than failing the call.
func (m *Manager) GradeCard(ctx context.Context, pass Pass, grade Grade) (Pass, GradeResult, error) {
	if pass.sessions == nil {
		return pass, GradeResult{}, ErrInvalidPass
	}
	log := m.passLogger(ctx, pass).With(slog.Int("card_index", grade.CardIndex))

	if err := validateGrade(pass.Deck, grade); err != nil {
		log.Warn("rejected grade", slog.String("error", err.Error()))
		return pass, GradeResult{}, err
	}
	if pass.IsCompleted() {
		return pass, GradeResult{}, ErrSessionCompleted
	}

	if !m.inflight.tryAcquire(pass.Session.ID) {
		return pass, GradeResult{}, ErrGradeInFlight
	}
	defer m.inflight.release(pass.Session.ID)

	var result GradeResult
	if grade.Rating != nil {
		state, err := m.scheduler.RecordReview(ctx, pass.key(grade.CardIndex), *grade.Rating, m.now())
		if err != nil {
			log.Error("failed to schedule card", slog.String("error", err.Error()))
			return pass, GradeResult{}, NewGradeCardError("failed to schedule card", err)
		}
		result.ReviewState = &state
	}

	var statErrs []error
	for _, stat := range grade.stats() {
		count, err := pass.sessions.IncrementStat(ctx, pass.Session.ID, stat)
		if err != nil {
			if grade.Rating == nil {
				log.Error("failed to record session statistic",
					slog.String("stat", string(stat)),
					slog.String("error", err.Error()))
				return pass, GradeResult{}, NewGradeCardError("failed to record statistic",
					fmt.Errorf("%w: %s: %w", ErrStatRecording, stat, err))
			}
			log.Warn("failed to record session statistic after scheduling",
				slog.String("stat", string(stat)),
				slog.String("error", err.Error()))
			statErrs = append(statErrs, fmt.Errorf("%s: %w", stat, err))
			continue
		}
		pass.Session = withCount(pass.Session, stat, count)
	}
	if len(statErrs) > 0 {
		result.StatErr = fmt.Errorf("%w: %w", ErrStatRecording, errors.Join(statErrs...))
	}

	payload := events.CardGradedPayload{
		SessionID: pass.Session.ID,
		CardIndex: grade.CardIndex,
		Outcome:   string(grade.Outcome),
		HintUsed:  grade.HintUsed,
	}
	if result.ReviewState != nil {
		nextReview := result.ReviewState.NextReview
		payload.Rating = grade.Rating.String()
		payload.IntervalDays = result.ReviewState.IntervalDays
		payload.NextReview = &nextReview
	}
	m.emit(ctx, pass, events.TypeCardGraded, payload)

	log.Debug("card graded",
		slog.String("outcome", string(grade.Outcome)),
		slog.Bool("hint_used", grade.HintUsed),
		slog.Bool("rated", grade.Rating != nil))
	return pass, result, nil
}

// Advance moves to the next card. Advancing from the last card completes the
// session; advancing a completed session returns it unchanged.
func (m *Manager) Advance(ctx context.Context, pass Pass) (Pass, error) {
	if pass.sessions == nil {
		return pass, ErrInvalidPass
	}
	if m.inflight.busy(pass.Session.ID) {
		return pass, ErrGradeInFlight
	}
	if pass.IsCompleted() {
		return pass, nil
	}
	log := m.passLogger(ctx, pass)

	if pass.Session.CurrentIndex >= pass.Deck.LastIndex() {
		session, err := pass.sessions.Complete(ctx, pass.Session.ID)
		if err != nil {
			log.Error("failed to complete session", slog.String("error", err.Error()))
			return pass, NewAdvanceError("failed to complete session", err)
		}
		pass.Session = session

		log.Info("session completed",
			slog.Int("correct_count", session.CorrectCount),
			slog.Int("incorrect_count", session.IncorrectCount),
			slog.Int("hint_count", session.HintCount))
		m.emit(ctx, pass, events.TypeSessionCompleted, sessionPayload(session))
		return pass, nil
	}

	next := pass.Session.CurrentIndex + 1
	if err := pass.sessions.UpdateProgress(ctx, pass.Session.ID, next); err != nil {
		log.Error("failed to advance session", slog.String("error", err.Error()))
		return pass, NewAdvanceError("failed to update progress", err)
	}
	pass.Session.CurrentIndex = next
	return pass, nil
}

// Retreat moves to the previous card, stopping at the first. Counters
// recorded for later cards are kept.
func (m *Manager) Retreat(ctx context.Context, pass Pass) (Pass, error) {
	if pass.sessions == nil {
		return pass, ErrInvalidPass
	}
	if m.inflight.busy(pass.Session.ID) {
		return pass, ErrGradeInFlight
	}
	if pass.IsCompleted() || pass.Session.CurrentIndex == 0 {
		return pass, nil
	}

	prev := pass.Session.CurrentIndex - 1
	if err := pass.sessions.UpdateProgress(ctx, pass.Session.ID, prev); err != nil {
		m.passLogger(ctx, pass).Error("failed to retreat session", slog.String("error", err.Error()))
		return pass, NewRetreatError("failed to update progress", err)
	}
	pass.Session.CurrentIndex = prev
	return pass, nil
}

// Restart zeroes the session's position and counters. Callers Begin again
// to continue studying.
func (m *Manager) Restart(ctx context.Context, pass Pass) error {
	if pass.sessions == nil {
		return ErrInvalidPass
	}
	if m.inflight.busy(pass.Session.ID) {
		return ErrGradeInFlight
	}
	log := m.passLogger(ctx, pass)

	session, err := pass.sessions.Restart(ctx, pass.Session.ID)
	if err != nil {
		log.Error("failed to restart session", slog.String("error", err.Error()))
		return NewRestartError("failed to restart session", err)
	}
	pass.Session = session

	log.Info("session restarted")
	m.emit(ctx, pass, events.TypeSessionRestarted, sessionPayload(session))
	return nil
}

func (m *Manager) emit(ctx context.Context, pass Pass, eventType string, payload interface{}) {
	log := m.passLogger(ctx, pass)

	event, err := events.NewStudyEvent(eventType, pass.Session.LearnerID, pass.Deck.ID, m.now(), payload)
	if err != nil {
		log.Warn("failed to build event", slog.String("event_type", eventType), slog.String("error", err.Error()))
		return
	}
	if err := m.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit event", slog.String("event_type", eventType), slog.String("error", err.Error()))
	}
}

func (m *Manager) passLogger(ctx context.Context, pass Pass) *slog.Logger {
	return logger.FromContextOrDefault(ctx, m.logger).With(
		slog.String("learner_id", pass.Session.LearnerID.String()),
		slog.String("deck_id", pass.Deck.ID.String()),
		slog.String("session_id", pass.Session.ID.String()))
}

func validateGrade(deck domain.Deck, grade Grade) error {
	if deck.CardCount <= 0 {
		return fmt.Errorf("%w: deck has no cards", ErrInvalidDeckState)
	}
	if !deck.Contains(grade.CardIndex) {
		return fmt.Errorf("%w: card index %d outside [0, %d)", ErrInvalidDeckState, grade.CardIndex, deck.CardCount)
	}
	if !grade.hasSignal() {
		return fmt.Errorf("%w: no outcome, hint or rating", ErrInvalidGrade)
	}
	if !grade.Outcome.IsValid() {
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidGrade, grade.Outcome)
	}
	if grade.Rating != nil && !grade.Rating.IsValid() {
		return fmt.Errorf("%w: %v: %q", ErrInvalidGrade, domain.ErrInvalidRating, *grade.Rating)
	}
	return nil
}

func withCount(session domain.Session, stat domain.SessionStat, count int) domain.Session {
	switch stat {
	case domain.SessionStatCorrect:
		session.CorrectCount = count
	case domain.SessionStatIncorrect:
		session.IncorrectCount = count
	case domain.SessionStatHint:
		session.HintCount = count
	}
	return session
}

func sessionPayload(session domain.Session) events.SessionPayload {
	return events.SessionPayload{
		SessionID:      session.ID,
		CorrectCount:   session.CorrectCount,
		IncorrectCount: session.IncorrectCount,
		HintCount:      session.HintCount,
	}
}
