package port

import (
	"clipstream/internal/core/domain"
	"context"
)

// VideoInfo carries probed stream metadata. Fields are best-effort and
// may be zero when the prober cannot determine them.
type VideoInfo struct {
	DurationSec float64
	Width       int
	Height      int
	BitrateKbps int
}

// Prober extracts stream metadata from a local video file
type Prober interface {
	Probe(ctx context.Context, path string) (*VideoInfo, error)
}

// Thumbnailer extracts a single down-scaled frame from a local video file
type Thumbnailer interface {
	// ExtractFrame decodes the frame at offsetSec, scales it to width and
	// writes a JPEG at destPath with the given encoder quality.
	ExtractFrame(ctx context.Context, sourcePath, destPath string, offsetSec float64, width, quality int) error
}

// Transcoder re-encodes a local video file according to a compression tier
type Transcoder interface {
	// Transcode writes the re-encoded copy of sourcePath to destPath.
	// onProgress, when non-nil, receives a fraction in [0,1] that never
	// decreases.
	Transcode(ctx context.Context, sourcePath, destPath string, tier domain.CompressionTier, onProgress func(float64)) error
}
