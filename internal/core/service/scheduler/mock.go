package scheduler

import (
	"context"

	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"

	"github.com/stretchr/testify/mock"
)

type MockScheduler struct {
	mock.Mock
}

func NewMockScheduler() *MockScheduler {
	return &MockScheduler{}
}

func (m *MockScheduler) Enqueue(ctx context.Context, task *domain.UploadTask, observer port.TaskObserver) error {
	args := m.Called(ctx, task, observer)
	return args.Error(0)
}

func (m *MockScheduler) SetPriority(index int, priority int) {
	m.Called(index, priority)
}

func (m *MockScheduler) Pause() {
	m.Called()
}

func (m *MockScheduler) Resume() {
	m.Called()
}

func (m *MockScheduler) Cancel(taskID string) {
	m.Called(taskID)
}

func (m *MockScheduler) Tasks() []domain.UploadTask {
	args := m.Called()
	return args.Get(0).([]domain.UploadTask)
}

func (m *MockScheduler) Restore(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduler) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
