package processor

import (
	"context"

	"clipstream/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockVideoProcessor struct {
	mock.Mock
}

func NewMockVideoProcessor() *MockVideoProcessor {
	return &MockVideoProcessor{}
}

func (m *MockVideoProcessor) Process(ctx context.Context, sourcePath string, onProgress func(int)) (*domain.ProcessingResult, error) {
	args := m.Called(ctx, sourcePath, onProgress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessingResult), args.Error(1)
}
