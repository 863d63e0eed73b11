package browser

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// navigateWithRetry attempts to load the target until it succeeds or the attempts run out.
// Attempts are separated by a fixed interval. Returns the number of attempts made and the last navigation error.
func navigateWithRetry(ctx context.Context, p Page, target string, navTimeout time.Duration, retry RetrySpec, logger log.Logger) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= retry.Attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, navTimeout)
		lastErr = p.Navigate(attemptCtx, target)
		cancel()

		if lastErr == nil {
			_ = level.Info(logger).Log("msg", "page loaded", "target", target, "attempt", attempt)
			return attempt, nil
		}

		if ctx.Err() != nil {
			return attempt, ctx.Err()
		}

		_ = level.Info(logger).Log("msg", "waiting for server...", "attempt", attempt, "of", retry.Attempts, "err", lastErr)
		if attempt == retry.Attempts {
			break
		}

		if err := sleep(ctx, retry.Interval); err != nil {
			return attempt, err
		}
	}

	return retry.Attempts, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
