package scheduler_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"clipstream/internal/core/domain"
	"clipstream/internal/core/service/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RestoreSkipsStaleAndMissingSources(t *testing.T) {
	// Arrange: a persisted queue with one fresh task, one past the age
	// cutoff and one whose source file is gone.
	ctx := context.Background()
	dir := t.TempDir()
	storage := &stubStorage{}

	fresh := writeSource(t, dir, "fresh.mp4")
	stale := writeSource(t, dir, "stale.mp4")

	store := &memStore{}
	require.NoError(t, store.Save(ctx, []domain.PersistedTask{
		{URI: fresh, UserID: "user-1", Type: domain.ContentKindVideo, Priority: 4, CreatedAt: time.Now().Add(-time.Hour)},
		{URI: stale, UserID: "user-1", Type: domain.ContentKindVideo, Priority: 9, CreatedAt: time.Now().Add(-30 * 24 * time.Hour)},
		{URI: filepath.Join(dir, "deleted.mp4"), UserID: "user-2", Type: domain.ContentKindThumbnail, Priority: 7, CreatedAt: time.Now()},
	}))

	s := scheduler.NewScheduler(testConfig(), storage, store, nil, testLogger())
	s.Pause()

	// Act
	restored, err := s.Restore(ctx)

	// Assert: only the fresh task survives, with its original metadata.
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, fresh, tasks[0].LocalPath)
	assert.Equal(t, "user-1", tasks[0].UserID)
	assert.Equal(t, 4, tasks[0].Priority)
	assert.Equal(t, domain.TaskStatusPending, tasks[0].Status)

	// The pruned queue is re-persisted.
	snapshot, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, fresh, snapshot[0].URI)
}

func TestScheduler_RestoreKeepsPriorityOrder(t *testing.T) {
	// Arrange
	ctx := context.Background()
	dir := t.TempDir()
	storage := &stubStorage{}

	low := writeSource(t, dir, "low.mp4")
	high := writeSource(t, dir, "high.mp4")
	mid := writeSource(t, dir, "mid.mp4")

	store := &memStore{}
	require.NoError(t, store.Save(ctx, []domain.PersistedTask{
		{URI: low, UserID: "user-1", Type: domain.ContentKindVideo, Priority: 1, CreatedAt: time.Now()},
		{URI: high, UserID: "user-1", Type: domain.ContentKindVideo, Priority: 8, CreatedAt: time.Now()},
		{URI: mid, UserID: "user-1", Type: domain.ContentKindVideo, Priority: 5, CreatedAt: time.Now()},
	}))

	s := scheduler.NewScheduler(testConfig(), storage, store, nil, testLogger())
	s.Pause()

	// Act
	restored, err := s.Restore(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, restored)

	tasks := s.Tasks()
	require.Len(t, tasks, 3)
	assert.Equal(t, high, tasks[0].LocalPath)
	assert.Equal(t, mid, tasks[1].LocalPath)
	assert.Equal(t, low, tasks[2].LocalPath)
}

func TestScheduler_RestoreEmptyStore(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := scheduler.NewScheduler(testConfig(), &stubStorage{}, &memStore{}, nil, testLogger())

	// Act
	restored, err := s.Restore(ctx)

	// Assert
	require.NoError(t, err)
	assert.Zero(t, restored)
	assert.Empty(t, s.Tasks())
}
