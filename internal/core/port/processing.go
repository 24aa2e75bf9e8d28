package port

import (
	"clipstream/internal/core/domain"
	"context"
)

// VideoProcessor is an interface to define the two-stage processing pipeline
type VideoProcessor interface {
	// Process produces a thumbnail and, when the source is large enough,
	// a compressed copy of the video. onProgress, when non-nil, receives
	// monotonically non-decreasing values in [0,100].
	Process(ctx context.Context, sourcePath string, onProgress func(int)) (*domain.ProcessingResult, error)
}
