package queuestore

import (
	"context"

	"clipstream/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockQueueStore struct {
	mock.Mock
}

func NewMockQueueStore() *MockQueueStore {
	return &MockQueueStore{}
}

func (m *MockQueueStore) Load(ctx context.Context) ([]domain.PersistedTask, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.PersistedTask), args.Error(1)
}

func (m *MockQueueStore) Save(ctx context.Context, tasks []domain.PersistedTask) error {
	args := m.Called(ctx, tasks)
	return args.Error(0)
}

func (m *MockQueueStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
