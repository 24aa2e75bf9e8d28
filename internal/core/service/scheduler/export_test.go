package scheduler

import (
	"context"
	"time"
)

// SetSleep replaces the retry delay function in tests.
func (s *Scheduler) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	s.sleep = fn
}
