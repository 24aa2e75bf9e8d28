package upload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"
)

// Thumbnails ride ahead of the video payload so the feed can render a
// poster before the full clip lands.
const thumbnailPriority = 8

// Orchestrator composes the processing pipeline, the content cache and
// the upload scheduler into the end-to-end upload flow. It never retries
// at its own level: the first unrecovered stage failure surfaces to the
// caller.
type Orchestrator struct {
	processor port.VideoProcessor
	scheduler port.UploadScheduler
	cache     port.ContentCache
	events    port.EventPublisher
	logger    *slog.Logger
}

// NewOrchestrator creates the orchestrator. cache and events may be nil;
// thumbnail cache seeding and event publishing are skipped when they are.
func NewOrchestrator(processor port.VideoProcessor, scheduler port.UploadScheduler, cache port.ContentCache, events port.EventPublisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		processor: processor,
		scheduler: scheduler,
		cache:     cache,
		events:    events,
		logger:    logger,
	}
}

var _ port.UploadOrchestrator = (*Orchestrator)(nil)

// UploadVideo runs process -> upload thumbnail -> upload video. Overall
// progress weighting: processing maps to 0-30, thumbnail completion jumps
// to 50, the video transfer maps linearly into 50-100.
func (o *Orchestrator) UploadVideo(ctx context.Context, req port.UploadRequest, onProgress func(int)) (*port.UploadOutcome, error) {
	report := progressGate(onProgress)

	result, err := o.processor.Process(ctx, req.SourcePath, func(pct int) {
		report(pct * 30 / 100)
	})
	if err != nil {
		return nil, fmt.Errorf("processing stage: %w", err)
	}

	thumbResult, err := o.runTask(ctx,
		domain.NewUploadTask(result.ThumbnailPath, req.UserID, domain.ContentKindThumbnail, thumbnailPriority),
		nil)
	if err != nil {
		return nil, fmt.Errorf("thumbnail upload stage: %w", err)
	}
	report(50)

	// Seeding is explicit wiring, not an automatic pipeline side effect.
	if o.cache != nil {
		if cacheErr := o.cache.Put(ctx, thumbResult.URL, result.ThumbnailPath); cacheErr != nil {
			o.logger.Warn("failed to seed thumbnail cache", "url", thumbResult.URL, "error", cacheErr)
		}
	}

	videoResult, err := o.runTask(ctx,
		domain.NewUploadTask(result.VideoPath, req.UserID, domain.ContentKindVideo, 0),
		func(pct int) {
			report(50 + pct/2)
		})
	if err != nil {
		return nil, fmt.Errorf("video upload stage: %w", err)
	}
	report(100)

	o.removeTemp(result.VideoPath)
	o.removeTemp(result.ThumbnailPath)

	o.publish(domain.Event{
		Type:      domain.EventTypeVideoCompleted,
		UserID:    req.UserID,
		ObjectKey: videoResult.ObjectKey,
		URL:       videoResult.URL,
		At:        time.Now(),
	})

	o.logger.Info("video upload completed",
		slog.String("user_id", req.UserID),
		slog.String("key", videoResult.ObjectKey),
		slog.Int64("size", result.SizeBytes))

	return &port.UploadOutcome{
		VideoURL:     videoResult.URL,
		ThumbnailURL: thumbResult.URL,
		SizeBytes:    result.SizeBytes,
		DurationSec:  result.DurationSec,
		Caption:      req.Caption,
		Category:     req.Category,
	}, nil
}

// runTask enqueues one task and blocks until it reaches a terminal state.
func (o *Orchestrator) runTask(ctx context.Context, task *domain.UploadTask, onProgress func(int)) (*domain.UploadResult, error) {
	obs := &completionObserver{progress: onProgress, done: make(chan taskOutcome, 1)}

	if err := o.scheduler.Enqueue(ctx, task, obs); err != nil {
		return nil, err
	}

	select {
	case outcome := <-obs.done:
		if outcome.err != nil {
			return nil, outcome.err
		}
		return &outcome.result, nil
	case <-ctx.Done():
		o.scheduler.Cancel(task.ID)
		return nil, ctx.Err()
	}
}

// removeTemp deletes a pipeline temp file. Failure is logged, never
// surfaced.
func (o *Orchestrator) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("failed to delete temp file", "path", path, "error", err)
	}
}

func (o *Orchestrator) publish(event domain.Event) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(context.Background(), event); err != nil {
		o.logger.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}

type taskOutcome struct {
	result domain.UploadResult
	err    error
}

// completionObserver adapts the scheduler's observer contract to a
// blocking wait.
type completionObserver struct {
	progress func(int)
	done     chan taskOutcome
}

func (c *completionObserver) TaskProgress(taskID string, pct int) {
	if c.progress != nil {
		c.progress(pct)
	}
}

func (c *completionObserver) TaskCompleted(taskID string, result domain.UploadResult) {
	c.done <- taskOutcome{result: result}
}

func (c *completionObserver) TaskFailed(taskID string, err error) {
	c.done <- taskOutcome{err: err}
}

// progressGate clamps progress to [0,100] and drops non-increasing
// updates.
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
