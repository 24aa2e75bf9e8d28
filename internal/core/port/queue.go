package port

import (
	"clipstream/internal/core/domain"
	"context"
)

// QueueStore is an interface to define the durable pending-queue snapshot store.
// The whole pending queue lives as one ordered list under a single fixed key.
type QueueStore interface {
	// Load returns the persisted snapshot, or an empty slice when absent.
	Load(ctx context.Context) ([]domain.PersistedTask, error)
	Save(ctx context.Context, tasks []domain.PersistedTask) error
	Clear(ctx context.Context) error
}

// TaskObserver receives lifecycle notifications for one enqueued task.
// Methods are invoked from scheduler goroutines; implementations must
// be safe for that.
type TaskObserver interface {
	TaskProgress(taskID string, progress int)
	TaskCompleted(taskID string, result domain.UploadResult)
	TaskFailed(taskID string, err error)
}

// UploadScheduler is an interface to define the priority upload queue
type UploadScheduler interface {
	Enqueue(ctx context.Context, task *domain.UploadTask, observer TaskObserver) error
	SetPriority(index int, priority int)
	Pause()
	Resume()
	// Cancel aborts the in-flight transfer for taskID, or discards the
	// task's failed record when it already reached the failed state.
	Cancel(taskID string)
	// Tasks lists pending, active and failed tasks. Failed tasks are
	// kept until discarded; completed tasks are dropped on completion.
	Tasks() []domain.UploadTask
	Restore(ctx context.Context) (int, error)
	Shutdown(ctx context.Context) error
}
