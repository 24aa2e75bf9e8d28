package scheduler

import (
	"context"
	"os"
	"time"

	"clipstream/internal/core/domain"
)

// persistLocked serializes the pending queue (active transfers excluded)
// to the durable store. Persistence is not atomic with the in-memory
// mutation that triggered it: a crash in between loses at most that one
// change. Store failures are logged, never surfaced to callers.
func (s *Scheduler) persistLocked(ctx context.Context) {
	records := make([]domain.PersistedTask, 0, len(s.pending))
	for _, e := range s.pending {
		records = append(records, domain.PersistedTask{
			URI:       e.task.LocalPath,
			UserID:    e.task.UserID,
			Type:      e.task.Kind,
			Priority:  e.task.Priority,
			CreatedAt: e.task.CreatedAt,
		})
	}

	if err := s.store.Save(ctx, records); err != nil {
		s.logger.Error("failed to persist queue snapshot", "error", err)
	}
}

// Restore loads the persisted queue, discards entries older than the
// maximum task age or whose source file no longer exists, and re-submits
// the remainder as a batch in priority order. It returns the number of
// tasks restored.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.cfg.MaxTaskAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	restored := 0
	for _, rec := range records {
		if rec.CreatedAt.Before(cutoff) {
			s.logger.Info("dropping stale persisted task", "uri", rec.URI, "created_at", rec.CreatedAt)
			continue
		}
		if _, statErr := os.Stat(rec.URI); statErr != nil {
			s.logger.Info("dropping persisted task with missing source", "uri", rec.URI)
			continue
		}

		task := domain.NewUploadTask(rec.URI, rec.UserID, rec.Type, rec.Priority)
		task.CreatedAt = rec.CreatedAt

		s.seq++
		s.pending = append(s.pending, &entry{task: task, seq: s.seq})
		restored++
	}

	s.sortLocked()
	s.persistLocked(ctx)
	s.dispatchLocked()

	if restored > 0 {
		s.logger.Info("restored persisted upload queue", "tasks", restored)
	}
	return restored, nil
}
