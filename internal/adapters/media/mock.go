package media

import (
	"context"

	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"

	"github.com/stretchr/testify/mock"
)

type MockProber struct {
	mock.Mock
}

func NewMockProber() *MockProber {
	return &MockProber{}
}

func (m *MockProber) Probe(ctx context.Context, path string) (*port.VideoInfo, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(*port.VideoInfo), args.Error(1)
}

type MockThumbnailer struct {
	mock.Mock
}

func NewMockThumbnailer() *MockThumbnailer {
	return &MockThumbnailer{}
}

func (m *MockThumbnailer) ExtractFrame(ctx context.Context, sourcePath, destPath string, offsetSec float64, width, quality int) error {
	args := m.Called(ctx, sourcePath, destPath, offsetSec, width, quality)
	return args.Error(0)
}

type MockTranscoder struct {
	mock.Mock
}

func NewMockTranscoder() *MockTranscoder {
	return &MockTranscoder{}
}

func (m *MockTranscoder) Transcode(ctx context.Context, sourcePath, destPath string, tier domain.CompressionTier, onProgress func(float64)) error {
	args := m.Called(ctx, sourcePath, destPath, tier, onProgress)
	return args.Error(0)
}
