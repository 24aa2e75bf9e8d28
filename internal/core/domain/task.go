package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle status of an upload task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusUploading TaskStatus = "uploading"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// ContentKind represents the kind of content an upload task carries
type ContentKind string

const (
	ContentKindVideo     ContentKind = "video"
	ContentKindThumbnail ContentKind = "thumbnail"
)

// UploadTask is one unit of upload work tracked by the scheduler.
// The ID is unique for the task's lifetime; a failed task is only
// revived by submitting a new task with a fresh ID.
type UploadTask struct {
	ID        string
	LocalPath string
	UserID    string
	Kind      ContentKind
	Priority  int
	Status    TaskStatus
	Progress  int
	LastError string
	CreatedAt time.Time
}

// NewTaskID generates a task identifier embedding a millisecond
// timestamp and a random suffix.
func NewTaskID() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// NewUploadTask creates a pending task for the given source file.
func NewUploadTask(localPath, userID string, kind ContentKind, priority int) *UploadTask {
	return &UploadTask{
		ID:        NewTaskID(),
		LocalPath: localPath,
		UserID:    userID,
		Kind:      kind,
		Priority:  priority,
		Status:    TaskStatusPending,
		CreatedAt: time.Now(),
	}
}

// PersistedTask is the durable record for one pending task. The full
// pending queue is stored as an ordered list of these records under a
// single store key.
type PersistedTask struct {
	URI       string      `json:"uri"`
	UserID    string      `json:"user_id"`
	Type      ContentKind `json:"type"`
	Priority  int         `json:"priority"`
	CreatedAt time.Time   `json:"created_at"`
}

// UploadResult describes where a completed transfer landed.
type UploadResult struct {
	ObjectKey string
	URL       string
	ETag      string
	Size      int64
}
