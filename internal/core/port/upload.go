package port

import (
	"context"
)

// UploadRequest carries the UI-validated metadata for one video upload.
type UploadRequest struct {
	SourcePath string
	Caption    string
	Category   string
	UserID     string
}

// UploadOutcome describes where the finished upload landed.
type UploadOutcome struct {
	VideoURL     string
	ThumbnailURL string
	SizeBytes    int64
	DurationSec  float64
	Caption      string
	Category     string
}

// UploadOrchestrator composes processing, caching and scheduling into
// the end-to-end upload flow
type UploadOrchestrator interface {
	// UploadVideo runs the full process-then-upload sequence. onProgress,
	// when non-nil, receives monotonically non-decreasing values in [0,100].
	UploadVideo(ctx context.Context, req UploadRequest, onProgress func(int)) (*UploadOutcome, error)
}
