package upload

import (
	"context"

	"clipstream/internal/core/port"

	"github.com/stretchr/testify/mock"
)

type MockOrchestrator struct {
	mock.Mock
}

func NewMockOrchestrator() *MockOrchestrator {
	return &MockOrchestrator{}
}

func (m *MockOrchestrator) UploadVideo(ctx context.Context, req port.UploadRequest, onProgress func(int)) (*port.UploadOutcome, error) {
	args := m.Called(ctx, req, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadOutcome), args.Error(1)
}
