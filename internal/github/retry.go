package github

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/spiffcs/activity/internal/log"
)

const (
	maxRetryAttempts  = 4
	initialRetryDelay = 1 * time.Second
	maxRetryDelay     = 30 * time.Second
)

// retryWithBackoff executes fn with exponential backoff. Retrying happens
// only here, inside the transport; callers see a single success or the
// last error.
func retryWithBackoff(ctx context.Context, operation string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(maxRetryAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(initialRetryDelay),
		retry.MaxDelay(maxRetryDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("retrying", "operation", operation, "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
}
