package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy retries failed RPC calls with exponential backoff.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Do runs fn until it succeeds, the retries are used up or ctx is done.
// Every failed attempt is logged as a warning under op.
func (p RetryPolicy) Do(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.Backoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if logger != nil {
			logger.Warn(op+" failed", zap.Int("attempt", attempt+1), zap.Error(err))
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
