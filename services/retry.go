package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retry runs an operation a bounded number of times with a fixed pause
// between attempts.
type Retry struct {
	Attempts int
	Backoff  time.Duration
}

// Do calls fn until it succeeds, the attempts run out or ctx ends. It returns
// the last error from fn, or ctx.Err() if the context ended while waiting.
func (r Retry) Do(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		logger.Warn("Attempt failed",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		if attempt >= attempts {
			return err
		}

		t := time.NewTimer(r.Backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
