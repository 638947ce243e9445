package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockReviewStateStore mocks the store.ReviewStateStore interface.
//
// Modify runs the supplied function against the state returned for the
// "Modify" expectation: configure it with
//
//	m.On("Modify", mock.Anything, key, mock.Anything).Return(current, nil)
//
// where current is a *domain.ReviewState (nil for a never-reviewed card).
type MockReviewStateStore struct {
	mock.Mock
}

var _ store.ReviewStateStore = (*MockReviewStateStore)(nil)

func (m *MockReviewStateStore) Get(ctx context.Context, key domain.ReviewKey) (domain.ReviewState, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.ReviewState), args.Error(1)
}

func (m *MockReviewStateStore) Upsert(ctx context.Context, key domain.ReviewKey, state domain.ReviewState) error {
	args := m.Called(ctx, key, state)
	return args.Error(0)
}

func (m *MockReviewStateStore) Modify(
	ctx context.Context,
	key domain.ReviewKey,
	fn store.ModifyFn,
) (domain.ReviewState, error) {
	args := m.Called(ctx, key, fn)
	if err := args.Error(1); err != nil {
		return domain.ReviewState{}, err
	}
	var current *domain.ReviewState
	if args.Get(0) != nil {
		current = args.Get(0).(*domain.ReviewState)
	}
	return fn(current)
}

func (m *MockReviewStateStore) CountDue(ctx context.Context, learnerID uuid.UUID, asOf time.Time) (int, error) {
	args := m.Called(ctx, learnerID, asOf)
	return args.Int(0), args.Error(1)
}

func (m *MockReviewStateStore) ListDue(
	ctx context.Context,
	learnerID uuid.UUID,
	asOf time.Time,
	limit int,
) ([]domain.DueCard, error) {
	args := m.Called(ctx, learnerID, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DueCard), args.Error(1)
}
