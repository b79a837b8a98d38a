package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Every enqueues a job built by next immediately and then on each tick of interval,
// until ctx is cancelled. Coalesced enqueues are skipped silently.
func Every(ctx context.Context, q *Queue, interval time.Duration, next func(time.Time) Job) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	enqueue := func(at time.Time) {
		if err := q.Enqueue(next(at)); err != nil && !errors.Is(err, ErrCoalesced) {
			q.logger.Warn("scheduled enqueue failed", zap.Error(err))
		}
	}
	enqueue(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C:
			enqueue(at)
		}
	}
}
