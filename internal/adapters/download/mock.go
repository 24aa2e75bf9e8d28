package download

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDownloader struct {
	mock.Mock
}

func NewMockDownloader() *MockDownloader {
	return &MockDownloader{}
}

func (m *MockDownloader) Fetch(ctx context.Context, url, destPath string) (int64, error) {
	args := m.Called(ctx, url, destPath)
	return args.Get(0).(int64), args.Error(1)
}
