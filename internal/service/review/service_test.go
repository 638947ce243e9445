package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/mocks"
	"github.com/phrazzld/scry-study/internal/platform/memory"
	"github.com/phrazzld/scry-study/internal/service/review"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*review.Service, *memory.ReviewStateStore) {
	t.Helper()
	reviews := memory.NewReviewStateStore(nil)
	return review.NewService(reviews, srs.NewDefaultService(), nil), reviews
}

func TestRecordReviewFollowsSchedule(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()
	key := domain.ReviewKey{LearnerID: uuid.New(), DeckID: uuid.New(), CardIndex: 0}
	now := time.Date(2026, 2, 1, 18, 30, 0, 0, time.UTC)

	wantIntervals := []int{1, 6, 15}
	for i, want := range wantIntervals {
		state, err := svc.RecordReview(ctx, key, domain.RatingGood, now)
		require.NoError(t, err)
		assert.Equal(t, want, state.IntervalDays, "review %d", i+1)
		assert.Equal(t, i+1, state.Repetitions)
		assert.Equal(t, domain.AddDays(domain.DateOf(now), want), state.NextReview)
	}

	state, err := svc.RecordReview(ctx, key, domain.RatingAgain, now)
	require.NoError(t, err)
	assert.Equal(t, 1, state.IntervalDays)
	assert.Zero(t, state.Repetitions)
}

func TestRecordReviewInvalidRating(t *testing.T) {
	t.Parallel()
	svc, reviews := newService(t)
	key := domain.ReviewKey{LearnerID: uuid.New(), DeckID: uuid.New()}

	_, err := svc.RecordReview(context.Background(), key, domain.Rating("perfect"), time.Now())

	assert.ErrorIs(t, err, srs.ErrInvalidRating)
	_, err = reviews.Get(context.Background(), key)
	assert.ErrorIs(t, err, store.ErrReviewStateNotFound)
}

func TestRecordReviewStoreFailure(t *testing.T) {
	t.Parallel()
	reviews := &mocks.MockReviewStateStore{}
	svc := review.NewService(reviews, srs.NewDefaultService(), nil)
	key := domain.ReviewKey{LearnerID: uuid.New(), DeckID: uuid.New()}
	reviews.On("Modify", mock.Anything, key, mock.Anything).
		Return(nil, store.ErrStorageUnavailable)

	_, err := svc.RecordReview(context.Background(), key, domain.RatingEasy, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorageUnavailable)
	var serviceErr *review.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, "record_review", serviceErr.Operation)
	reviews.AssertExpectations(t)
}

func TestCountDueNormalizesDate(t *testing.T) {
	t.Parallel()
	reviews := &mocks.MockReviewStateStore{}
	svc := review.NewService(reviews, srs.NewDefaultService(), nil)
	learnerID := uuid.New()
	asOf := time.Date(2026, 4, 4, 23, 59, 0, 0, time.UTC)
	reviews.On("CountDue", mock.Anything, learnerID, time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)).
		Return(7, nil)

	count, err := svc.CountDue(context.Background(), learnerID, asOf)

	require.NoError(t, err)
	assert.Equal(t, 7, count)
	reviews.AssertExpectations(t)
}

func TestCountDueCountsOnlyReviewedCards(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()
	learnerID, deckID := uuid.New(), uuid.New()
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	count, err := svc.CountDue(ctx, learnerID, now)
	require.NoError(t, err)
	assert.Zero(t, count, "cards that were never reviewed are not due")

	for i := 0; i < 3; i++ {
		_, err := svc.RecordReview(ctx, domain.ReviewKey{LearnerID: learnerID, DeckID: deckID, CardIndex: i},
			domain.RatingAgain, now)
		require.NoError(t, err)
	}

	count, err = svc.CountDue(ctx, learnerID, now)
	require.NoError(t, err)
	assert.Zero(t, count, "again schedules tomorrow")

	count, err = svc.CountDue(ctx, learnerID, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestListDueLimit(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		limit   int
		wantErr bool
	}{
		{"zero", 0, true},
		{"negative", -1, true},
		{"minimum", review.MinListLimit, false},
		{"maximum", review.MaxListLimit, false},
		{"too large", review.MaxListLimit + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ListDue(ctx, uuid.New(), time.Now(), tt.limit)
			if tt.wantErr {
				assert.ErrorIs(t, err, review.ErrInvalidLimit)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPostpone(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	ctx := context.Background()
	key := domain.ReviewKey{LearnerID: uuid.New(), DeckID: uuid.New(), CardIndex: 2}
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	_, err := svc.Postpone(ctx, key, 3)
	require.ErrorIs(t, err, store.ErrReviewStateNotFound)

	reviewed, err := svc.RecordReview(ctx, key, domain.RatingGood, now)
	require.NoError(t, err)

	_, err = svc.Postpone(ctx, key, 0)
	require.ErrorIs(t, err, review.ErrInvalidDays)

	postponed, err := svc.Postpone(ctx, key, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.AddDays(reviewed.NextReview, 3), postponed.NextReview)
	assert.Equal(t, reviewed.IntervalDays, postponed.IntervalDays)
	assert.Equal(t, reviewed.EaseFactor, postponed.EaseFactor)
	assert.Equal(t, reviewed.Repetitions, postponed.Repetitions)
}
