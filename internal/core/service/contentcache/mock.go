package contentcache

import (
	"context"

	"clipstream/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

type MockContentCache struct {
	mock.Mock
}

func NewMockContentCache() *MockContentCache {
	return &MockContentCache{}
}

func (m *MockContentCache) Resolve(ctx context.Context, remoteURI string) string {
	args := m.Called(ctx, remoteURI)
	return args.String(0)
}

func (m *MockContentCache) Put(ctx context.Context, remoteURI, localPath string) error {
	args := m.Called(ctx, remoteURI, localPath)
	return args.Error(0)
}

func (m *MockContentCache) Invalidate(remoteURI string) error {
	args := m.Called(remoteURI)
	return args.Error(0)
}

func (m *MockContentCache) Clear() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockContentCache) Entries() []domain.CacheEntry {
	args := m.Called()
	return args.Get(0).([]domain.CacheEntry)
}
