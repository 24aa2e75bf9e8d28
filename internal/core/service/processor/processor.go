package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"clipstream/internal/config"
	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"

	"github.com/google/uuid"
)

// Processor runs the two-stage pipeline: thumbnail extraction followed by
// size-gated compression. Outputs land in the processor work directory
// and ownership transfers to the caller.
type Processor struct {
	cfg         config.ProcessingConfig
	prober      port.Prober
	thumbnailer port.Thumbnailer
	transcoder  port.Transcoder
	logger      *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewProcessor creates a new processing pipeline rooted at the configured
// work directory.
func NewProcessor(cfg config.ProcessingConfig, prober port.Prober, thumbnailer port.Thumbnailer, transcoder port.Transcoder, logger *slog.Logger) (*Processor, error) {
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &Processor{
		cfg:         cfg,
		prober:      prober,
		thumbnailer: thumbnailer,
		transcoder:  transcoder,
		logger:      logger,
		inFlight:    make(map[string]struct{}),
	}, nil
}

var _ port.VideoProcessor = (*Processor)(nil)

// Process produces a thumbnail and, when the source crosses the medium
// threshold, a compressed copy. Progress checkpoints: 10 after metadata,
// 30 after thumbnail, 30-90 across compression, 95 after the final copy,
// 100 at the end. Any step failure aborts the call with a single typed
// error; partially written outputs are the caller's to clean up.
func (p *Processor) Process(ctx context.Context, sourcePath string, onProgress func(int)) (*domain.ProcessingResult, error) {
	guardKey := sourcePath
	if abs, err := filepath.Abs(sourcePath); err == nil {
		guardKey = abs
	}

	p.mu.Lock()
	if _, busy := p.inFlight[guardKey]; busy {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyProcessing, sourcePath)
	}
	p.inFlight[guardKey] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.inFlight, guardKey)
		p.mu.Unlock()
	}()

	report := progressGate(onProgress)

	info, err := os.Stat(sourcePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, sourcePath)
	}
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrMetadataUnavailable, sourcePath)
	}
	if info.Size() > p.cfg.MaxSourceBytes {
		return nil, fmt.Errorf("%w: %d bytes", domain.ErrCapacityExceeded, info.Size())
	}
	report(10)

	thumbPath := filepath.Join(p.cfg.WorkDir, freshName(".jpg"))
	if err := p.thumbnailer.ExtractFrame(ctx, sourcePath, thumbPath, p.cfg.ThumbnailOffset, p.cfg.ThumbnailWidth, p.cfg.ThumbnailQuality); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrThumbnailGeneration, err)
	}
	report(30)

	tier := p.TierForSize(info.Size())
	p.logger.Info("compression tier selected",
		slog.String("source", sourcePath),
		slog.Int64("size", info.Size()),
		slog.String("tier", tier.Name))

	produced := sourcePath
	if tier.Compress {
		tmpPath := filepath.Join(p.cfg.WorkDir, freshName(".transcoding.mp4"))
		err := p.transcoder.Transcode(ctx, sourcePath, tmpPath, tier, func(frac float64) {
			report(30 + int(frac*60))
		})
		if err != nil {
			os.Remove(tmpPath)
			return nil, fmt.Errorf("%w: %w", domain.ErrCompressionFailed, err)
		}
		produced = tmpPath
		defer os.Remove(tmpPath)
	}
	report(90)

	finalPath := filepath.Join(p.cfg.WorkDir, freshName(".mp4"))
	if err := copyChunked(produced, finalPath, p.cfg.CopyChunkSize); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCompressionFailed, err)
	}
	report(95)

	finalInfo, err := os.Stat(finalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMetadataUnavailable, finalPath)
	}

	// Duration is best-effort: playback works without it.
	var duration float64
	if probed, probeErr := p.prober.Probe(ctx, sourcePath); probeErr == nil {
		duration = probed.DurationSec
	} else {
		p.logger.Warn("probe failed, duration unknown", "source", sourcePath, "error", probeErr)
	}
	report(100)

	return &domain.ProcessingResult{
		VideoPath:     finalPath,
		ThumbnailPath: thumbPath,
		SizeBytes:     finalInfo.Size(),
		DurationSec:   duration,
	}, nil
}

// TierForSize selects the compression preset from the source byte size.
// Sources at or under the medium threshold are never compressed.
func (p *Processor) TierForSize(size int64) domain.CompressionTier {
	switch {
	case size > p.cfg.LargeThreshold:
		return domain.TierLarge
	case size > p.cfg.MediumThreshold:
		return domain.TierMedium
	default:
		return domain.TierSmall
	}
}

// progressGate wraps onProgress so reported values are clamped to [0,100]
// and never decrease.
func progressGate(onProgress func(int)) func(int) {
	last := -1
	return func(pct int) {
		if pct > 100 {
			pct = 100
		}
		if pct <= last || onProgress == nil {
			return
		}
		last = pct
		onProgress(pct)
	}
}

// copyChunked copies src to dst in fixed-size chunks.
func copyChunked(src, dst string, chunkSize int64) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		os.Remove(dst)
		return err
	}
	return out.Sync()
}

// freshName generates a per-call-unique filename combining a millisecond
// timestamp and a random suffix. Collisions are made negligible, not
// locked against.
func freshName(ext string) string {
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
