package scheduler

import (
	"context"
	"time"
)

// withRetry runs fn, retrying on failure with the delay multiplied by the
// backoff factor after each attempt, up to the configured retry count.
// The final error is returned once retries are exhausted or the context
// is cancelled.
func (s *Scheduler) withRetry(ctx context.Context, taskID string, fn func(ctx context.Context) error) error {
	delay := s.cfg.RetryBaseDelay

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt >= s.cfg.MaxRetries {
			return err
		}

		s.logger.Warn("transfer attempt failed, retrying",
			"task_id", taskID,
			"attempt", attempt+1,
			"delay", delay,
			"error", err)

		if sleepErr := s.sleep(ctx, delay); sleepErr != nil {
			return err
		}
		delay = time.Duration(float64(delay) * s.cfg.BackoffFactor)
	}
}

// sleepContext waits for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
