package payment

import (
	"context"
	"time"
)

// DefaultBackoffTable paces retry attempts. It is a lookup table indexed
// by the retry count before increment, not an exponential formula: the
// first retry waits 1s, the second 2s, and every later attempt reuses
// the 5s ceiling.
var DefaultBackoffTable = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
}

// backoffFor returns the wait before the next attempt. Indices past the
// end of the table resolve to its last entry.
func backoffFor(table []time.Duration, retryCount int) time.Duration {
	if len(table) == 0 {
		return 0
	}
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount >= len(table) {
		return table[len(table)-1]
	}
	return table[retryCount]
}

// waitBackoff suspends the calling attempt sequence for d. Other payment
// flows are unaffected; cancellation of ctx cuts the wait short.
func waitBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
