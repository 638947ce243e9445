package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

// ReviewStateStore is an in-memory store.ReviewStateStore.
type ReviewStateStore struct {
	mu     sync.RWMutex
	states map[domain.ReviewKey]domain.ReviewState
	logger *slog.Logger
}

// NewReviewStateStore creates an empty ReviewStateStore.
// If logger is nil, a default logger will be used.
func NewReviewStateStore(logger *slog.Logger) *ReviewStateStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewStateStore{
		states: make(map[domain.ReviewKey]domain.ReviewState),
		logger: logger.With(slog.String("component", "memory_review_state_store")),
	}
}

var _ store.ReviewStateStore = (*ReviewStateStore)(nil)

// Get implements store.ReviewStateStore.Get
func (s *ReviewStateStore) Get(ctx context.Context, key domain.ReviewKey) (domain.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReviewState{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[key]
	if !ok {
		return domain.ReviewState{}, store.ErrReviewStateNotFound
	}
	return cloneState(state), nil
}

// Upsert implements store.ReviewStateStore.Upsert
func (s *ReviewStateStore) Upsert(ctx context.Context, key domain.ReviewKey, state domain.ReviewState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateWrite(key, state); err != nil {
		return err
	}

	s.mu.Lock()
	s.states[key] = normalize(state)
	s.mu.Unlock()

	logger.FromContextOrDefault(ctx, s.logger).Debug("review state upserted",
		slog.String("learner_id", key.LearnerID.String()),
		slog.String("deck_id", key.DeckID.String()),
		slog.Int("card_index", key.CardIndex))
	return nil
}

// Modify implements store.ReviewStateStore.Modify
// The store's write lock is held while fn runs, so fn must not call back into the store.
func (s *ReviewStateStore) Modify(
	ctx context.Context,
	key domain.ReviewKey,
	fn store.ModifyFn,
) (domain.ReviewState, error) {
	if err := ctx.Err(); err != nil {
		return domain.ReviewState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current *domain.ReviewState
	if state, ok := s.states[key]; ok {
		c := cloneState(state)
		current = &c
	}

	next, err := fn(current)
	if err != nil {
		return domain.ReviewState{}, err
	}
	if err := validateWrite(key, next); err != nil {
		return domain.ReviewState{}, err
	}

	s.states[key] = normalize(next)
	return cloneState(s.states[key]), nil
}

// CountDue implements store.ReviewStateStore.CountDue
func (s *ReviewStateStore) CountDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for key, state := range s.states {
		if key.LearnerID == learnerID && state.IsDue(asOf) {
			count++
		}
	}
	return count, nil
}

// ListDue implements store.ReviewStateStore.ListDue
func (s *ReviewStateStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]domain.DueCard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cards := make([]domain.DueCard, 0)
	for key, state := range s.states {
		if key.LearnerID == learnerID && state.IsDue(asOf) {
			cards = append(cards, domain.DueCard{
				DeckID:     key.DeckID,
				CardIndex:  key.CardIndex,
				NextReview: state.NextReview,
			})
		}
	}
	s.mu.RUnlock()

	sort.Slice(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if !a.NextReview.Equal(b.NextReview) {
			return a.NextReview.Before(b.NextReview)
		}
		if a.DeckID != b.DeckID {
			return a.DeckID.String() < b.DeckID.String()
		}
		return a.CardIndex < b.CardIndex
	})

	if limit >= 0 && len(cards) > limit {
		cards = cards[:limit]
	}
	return cards, nil
}

func validateWrite(key domain.ReviewKey, state domain.ReviewState) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	return nil
}

// normalize stores due dates as civil dates, matching the DATE column of the durable store.
func normalize(state domain.ReviewState) domain.ReviewState {
	state = cloneState(state)
	state.NextReview = domain.DateOf(state.NextReview)
	return state
}

func cloneState(state domain.ReviewState) domain.ReviewState {
	if state.LastReviewedAt != nil {
		t := *state.LastReviewedAt
		state.LastReviewedAt = &t
	}
	return state
}
