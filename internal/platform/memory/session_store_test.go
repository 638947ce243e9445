package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/memory"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSessionStoreGetOrCreateIsSingleton(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()
	learnerID, deckID := uuid.New(), uuid.New()

	const callers = 50
	ids := make(chan uuid.UUID, callers)
	creators := make(chan struct{}, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, created, err := s.GetOrCreate(context.Background(), learnerID, deckID)
			assert.NoError(t, err)
			if created {
				creators <- struct{}{}
			}
			ids <- session.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(creators)
	assert.Len(t, creators, 1, "exactly one caller creates the session")

	var first uuid.UUID
	for id := range ids {
		if first == uuid.Nil {
			first = id
		}
		assert.Equal(t, first, id)
	}

	active, err := s.GetActive(context.Background(), learnerID, deckID)
	require.NoError(t, err)
	assert.Equal(t, first, active.ID)
}

func TestSessionStoreCreate(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()
	ctx := context.Background()
	learnerID, deckID := uuid.New(), uuid.New()

	session, err := s.Create(ctx, learnerID, deckID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusInProgress, session.Status)
	assert.Zero(t, session.CurrentIndex)

	_, err = s.Create(ctx, learnerID, deckID)
	assert.ErrorIs(t, err, store.ErrSessionExists)

	_, err = s.Create(ctx, learnerID, uuid.New())
	assert.NoError(t, err, "a different deck gets its own session")
}

func TestSessionStoreConcurrentIncrements(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()
	session, _, err := s.GetOrCreate(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)

	const increments = 100
	var wg sync.WaitGroup
	for i := 0; i < increments; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementStat(context.Background(), session.ID, domain.SessionStatCorrect)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := s.IncrementStat(context.Background(), session.ID, domain.SessionStatCorrect)
	require.NoError(t, err)
	assert.Equal(t, increments+1, n)
}

func TestSessionStoreCompleteIsIdempotent(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	s := memory.NewSessionStore(memory.WithClock(clock.Now))
	ctx := context.Background()

	session, _, err := s.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	first, err := s.Complete(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, first.CompletedAt)
	assert.Equal(t, clock.Now(), *first.CompletedAt)

	clock.Advance(time.Hour)
	second, err := s.Complete(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)

	_, err = s.GetActive(ctx, session.LearnerID, session.DeckID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	resolved, created, err := s.GetOrCreate(ctx, session.LearnerID, session.DeckID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, session.ID, resolved.ID, "a completed session is returned, not replaced")
	assert.True(t, resolved.IsCompleted())

	latest, err := s.GetLatest(ctx, session.LearnerID, session.DeckID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, latest.ID)
}

func TestSessionStoreRestart(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()
	ctx := context.Background()

	session, _, err := s.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, s.UpdateProgress(ctx, session.ID, 3))
	_, err = s.IncrementStat(ctx, session.ID, domain.SessionStatIncorrect)
	require.NoError(t, err)
	_, err = s.IncrementStat(ctx, session.ID, domain.SessionStatHint)
	require.NoError(t, err)
	_, err = s.Complete(ctx, session.ID)
	require.NoError(t, err)

	restarted, err := s.Restart(ctx, session.ID)

	require.NoError(t, err)
	assert.Equal(t, session.ID, restarted.ID)
	assert.Equal(t, domain.SessionStatusInProgress, restarted.Status)
	assert.Zero(t, restarted.CurrentIndex)
	assert.Zero(t, restarted.CorrectCount)
	assert.Zero(t, restarted.IncorrectCount)
	assert.Zero(t, restarted.HintCount)
	assert.Nil(t, restarted.CompletedAt)
}

func TestSessionStoreMissingSession(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()
	ctx := context.Background()
	missing := uuid.New()

	assert.ErrorIs(t, s.UpdateProgress(ctx, missing, 1), store.ErrSessionNotFound)
	_, err := s.IncrementStat(ctx, missing, domain.SessionStatHint)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
	_, err = s.Complete(ctx, missing)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
	_, err = s.Restart(ctx, missing)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionStoreRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()
	ctx := context.Background()
	session, _, err := s.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.ErrorIs(t, s.UpdateProgress(ctx, session.ID, -1), store.ErrInvalidEntity)
	_, err = s.IncrementStat(ctx, session.ID, domain.SessionStat("streak"))
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestSessionStoreCanceledContext(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.GetOrCreate(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEphemeralSessionStoreAlwaysCreatesFresh(t *testing.T) {
	t.Parallel()
	s := memory.NewEphemeralSessionStore()
	ctx := context.Background()
	learnerID, deckID := uuid.New(), uuid.New()

	first, created, err := s.GetOrCreate(ctx, learnerID, deckID)
	require.NoError(t, err)
	assert.True(t, created)
	_, err = s.IncrementStat(ctx, first.ID, domain.SessionStatCorrect)
	require.NoError(t, err)

	second, created, err := s.GetOrCreate(ctx, learnerID, deckID)
	require.NoError(t, err)
	assert.True(t, created)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Zero(t, second.CorrectCount)

	active, err := s.GetActive(ctx, learnerID, deckID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID, "the fresh session replaces the previous one")

	_, err = s.IncrementStat(ctx, first.ID, domain.SessionStatCorrect)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionStoreGetLatestMissing(t *testing.T) {
	t.Parallel()
	s := memory.NewSessionStore()

	_, err := s.GetLatest(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestEphemeralSessionStoreResumesLatestPass(t *testing.T) {
	t.Parallel()
	s := memory.NewEphemeralSessionStore()
	ctx := context.Background()
	learnerID, deckID := uuid.New(), uuid.New()

	session, _, err := s.GetOrCreate(ctx, learnerID, deckID)
	require.NoError(t, err)
	require.NoError(t, s.UpdateProgress(ctx, session.ID, 2))
	_, err = s.Complete(ctx, session.ID)
	require.NoError(t, err)

	latest, err := s.GetLatest(ctx, learnerID, deckID)

	require.NoError(t, err)
	assert.Equal(t, session.ID, latest.ID)
	assert.Equal(t, 2, latest.CurrentIndex)
	assert.True(t, latest.IsCompleted())
}

func TestEphemeralSessionStoreEvictsIdleSessions(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)}
	s := memory.NewEphemeralSessionStore(memory.WithClock(clock.Now), memory.WithTTL(time.Hour))
	ctx := context.Background()

	idle, _, err := s.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	active, _, err := s.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	clock.Advance(40 * time.Minute)
	require.NoError(t, s.UpdateProgress(ctx, active.ID, 1))

	clock.Advance(30 * time.Minute)
	_, err = s.GetLatest(ctx, idle.LearnerID, idle.DeckID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound, "idle past the TTL")
	assert.ErrorIs(t, s.UpdateProgress(ctx, idle.ID, 1), store.ErrSessionNotFound)

	latest, err := s.GetLatest(ctx, active.LearnerID, active.DeckID)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.CurrentIndex)

	_, _, err = s.GetOrCreate(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len(), "creating a session sweeps expired ones")
}
