package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"clipstream/internal/config"
	"clipstream/internal/core/domain"
	"clipstream/internal/core/port"

	"github.com/google/uuid"
)

// entry pairs a pending task with its observer. seq records insertion
// order so equal priorities drain first-in first-out.
type entry struct {
	task *domain.UploadTask
	obs  port.TaskObserver
	seq  uint64
}

type activeTransfer struct {
	task   *domain.UploadTask
	obs    port.TaskObserver
	cancel context.CancelFunc
}

// Scheduler owns the priority-ordered pending queue and runs a bounded
// pool of concurrent transfers against the storage backend. Dispatch is
// capacity-driven: it is triggered by enqueue, resume and transfer
// completion, never by polling.
type Scheduler struct {
	cfg     config.SchedulerConfig
	storage port.ObjectStorage
	store   port.QueueStore
	events  port.EventPublisher
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	pending []*entry
	active  map[string]*activeTransfer
	failed  map[string]*domain.UploadTask
	paused  bool
	closed  bool
	seq     uint64
	wg      sync.WaitGroup
}

// NewScheduler creates a new upload scheduler. events may be nil when no
// broker is configured.
func NewScheduler(cfg config.SchedulerConfig, storage port.ObjectStorage, store port.QueueStore, events port.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		storage: storage,
		store:   store,
		events:  events,
		logger:  logger,
		sleep:   sleepContext,
		active:  make(map[string]*activeTransfer),
		failed:  make(map[string]*domain.UploadTask),
	}
}

var _ port.UploadScheduler = (*Scheduler)(nil)

// Enqueue inserts the task into the pending queue, persists the snapshot
// and starts transfers if capacity allows and the queue is not paused.
func (s *Scheduler) Enqueue(ctx context.Context, task *domain.UploadTask, observer port.TaskObserver) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSchedulerClosed
	}

	if task.Priority == 0 {
		task.Priority = s.cfg.DefaultPriority
	}
	task.Status = domain.TaskStatusPending

	s.seq++
	s.pending = append(s.pending, &entry{task: task, obs: observer, seq: s.seq})
	s.sortLocked()
	s.persistLocked(ctx)
	s.dispatchLocked()

	return nil
}

// SetPriority updates the priority of the pending task at the given
// queue index. Out-of-range indexes are a no-op.
func (s *Scheduler) SetPriority(index int, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.pending) {
		return
	}
	s.pending[index].task.Priority = priority
	s.sortLocked()
	s.persistLocked(context.Background())
}

// Pause stops further dequeues. Transfers already in flight finish
// normally.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume re-enables dequeues and drains up to the concurrency cap.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	s.dispatchLocked()
}

// Cancel aborts the in-flight transfer for taskID, releasing its storage
// handle. For a task that already failed it discards the failed record
// instead. It has no effect on pending tasks and is an idempotent no-op
// for unknown or completed task IDs.
func (s *Scheduler) Cancel(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if at, ok := s.active[taskID]; ok {
		at.cancel()
		return
	}
	delete(s.failed, taskID)
}

// Tasks returns a snapshot of pending, active and failed tasks.
// Completed tasks are dropped at completion; failed tasks stay listed
// until discarded through Cancel, so the caller can inspect LastError
// and decide whether to resubmit.
func (s *Scheduler) Tasks() []domain.UploadTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.UploadTask, 0, len(s.pending)+len(s.active)+len(s.failed))
	for _, e := range s.pending {
		out = append(out, *e.task)
	}
	for _, at := range s.active {
		out = append(out, *at.task)
	}
	for _, task := range s.failed {
		out = append(out, *task)
	}
	return out
}

// Shutdown stops dispatching and waits for in-flight transfers up to the
// context deadline.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sortLocked re-sorts pending by priority descending, breaking ties by
// insertion sequence so equal priorities drain first-in first-out.
func (s *Scheduler) sortLocked() {
	sort.Slice(s.pending, func(i, j int) bool {
		if s.pending[i].task.Priority != s.pending[j].task.Priority {
			return s.pending[i].task.Priority > s.pending[j].task.Priority
		}
		return s.pending[i].seq < s.pending[j].seq
	})
}

// dispatchLocked pops head tasks and starts transfer goroutines while
// capacity remains. Callers must hold s.mu.
func (s *Scheduler) dispatchLocked() {
	for !s.paused && !s.closed && len(s.pending) > 0 && len(s.active) < s.cfg.MaxConcurrent {
		e := s.pending[0]
		s.pending = s.pending[1:]

		e.task.Status = domain.TaskStatusUploading

		// The transfer must outlive the enqueueing request context.
		ctx, cancel := context.WithCancel(context.Background())
		s.active[e.task.ID] = &activeTransfer{task: e.task, obs: e.obs, cancel: cancel}

		s.wg.Add(1)
		go s.run(ctx, cancel, e)
	}
}

// run executes one dequeued task: transfer with retry, invoke the
// observer, then release the capacity slot, persist and re-enter the
// drain loop. The observer is notified before the slot frees so
// completion callbacks see tasks finish in drain order.
func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc, e *entry) {
	defer s.wg.Done()
	defer cancel()

	result, err := s.transferWithRetry(ctx, e)

	s.mu.Lock()
	if err != nil {
		e.task.Status = domain.TaskStatusFailed
		e.task.LastError = err.Error()
	} else {
		e.task.Status = domain.TaskStatusCompleted
		e.task.Progress = 100
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.active, e.task.ID)
		if err != nil {
			s.failed[e.task.ID] = e.task
		}
		s.persistLocked(context.Background())
		s.dispatchLocked()
		s.mu.Unlock()
	}()

	if err != nil {
		s.logger.Error("upload task failed",
			slog.String("task_id", e.task.ID),
			slog.String("kind", string(e.task.Kind)),
			slog.String("error", err.Error()))
		if e.obs != nil {
			e.obs.TaskFailed(e.task.ID, err)
		}
		s.publish(domain.Event{
			Type:   domain.EventTypeTaskFailed,
			TaskID: e.task.ID,
			UserID: e.task.UserID,
			Error:  err.Error(),
			At:     time.Now(),
		})
		return
	}

	s.logger.Info("upload task completed",
		slog.String("task_id", e.task.ID),
		slog.String("key", result.ObjectKey))
	if e.obs != nil {
		e.obs.TaskCompleted(e.task.ID, *result)
	}
	s.publish(domain.Event{
		Type:      domain.EventTypeTaskCompleted,
		TaskID:    e.task.ID,
		UserID:    e.task.UserID,
		ObjectKey: result.ObjectKey,
		URL:       result.URL,
		At:        time.Now(),
	})
}

// transferWithRetry executes one upload, retrying transient failures with
// exponential backoff. The retry loop is internal to the single uploading
// attempt: exhaustion moves the task straight to failed.
func (s *Scheduler) transferWithRetry(ctx context.Context, e *entry) (*domain.UploadResult, error) {
	key := s.objectKey(e.task)

	var result *domain.UploadResult
	err := s.withRetry(ctx, e.task.ID, func(ctx context.Context) error {
		r, transferErr := s.transfer(ctx, e, key)
		if transferErr != nil {
			return transferErr
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}
	return result, nil
}

func (s *Scheduler) transfer(ctx context.Context, e *entry, key string) (*domain.UploadResult, error) {
	f, err := os.Open(e.task.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	pr := &progressReader{
		r:     f,
		total: info.Size(),
		onProgress: func(pct int) {
			s.mu.Lock()
			if pct > e.task.Progress {
				e.task.Progress = pct
			}
			pct = e.task.Progress
			s.mu.Unlock()
			if e.obs != nil {
				e.obs.TaskProgress(e.task.ID, pct)
			}
		},
	}

	etag, err := s.storage.Put(ctx, key, pr, info.Size(), contentTypeFor(e.task.LocalPath))
	if err != nil {
		return nil, err
	}

	url, _, err := s.storage.ObjectURL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve object url: %w", err)
	}

	return &domain.UploadResult{ObjectKey: key, URL: url, ETag: etag, Size: info.Size()}, nil
}

// objectKey builds the storage key as {kind}/{userID}/{timestamp}_{random}{ext}.
func (s *Scheduler) objectKey(task *domain.UploadTask) string {
	ext := filepath.Ext(task.LocalPath)
	return fmt.Sprintf("%s/%s/%d_%s%s", task.Kind, task.UserID, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

// progressReader reports transfer percentage as the storage client
// consumes the source.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	last       int
	onProgress func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct > p.last {
			p.last = pct
			if p.onProgress != nil {
				p.onProgress(pct)
			}
		}
	}
	return n, err
}

func (s *Scheduler) publish(event domain.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(context.Background(), event); err != nil {
		s.logger.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
