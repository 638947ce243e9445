package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockSessionStore mocks the store.SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

var _ store.SessionStore = (*MockSessionStore)(nil)

func (m *MockSessionStore) GetActive(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error) {
	args := m.Called(ctx, learnerID, deckID)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessionStore) Create(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error) {
	args := m.Called(ctx, learnerID, deckID)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessionStore) GetLatest(ctx context.Context, learnerID, deckID uuid.UUID) (domain.Session, error) {
	args := m.Called(ctx, learnerID, deckID)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessionStore) GetOrCreate(
	ctx context.Context,
	learnerID, deckID uuid.UUID,
) (domain.Session, bool, error) {
	args := m.Called(ctx, learnerID, deckID)
	return args.Get(0).(domain.Session), args.Bool(1), args.Error(2)
}

func (m *MockSessionStore) UpdateProgress(ctx context.Context, sessionID uuid.UUID, newIndex int) error {
	args := m.Called(ctx, sessionID, newIndex)
	return args.Error(0)
}

func (m *MockSessionStore) IncrementStat(
	ctx context.Context,
	sessionID uuid.UUID,
	stat domain.SessionStat,
) (int, error) {
	args := m.Called(ctx, sessionID, stat)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionStore) Complete(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *MockSessionStore) Restart(ctx context.Context, sessionID uuid.UUID) (domain.Session, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.Session), args.Error(1)
}
