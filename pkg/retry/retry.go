// Package retry provides a shared retry-with-backoff helper for call sites
// that talk to flaky external services (vendor APIs, email delivery).
package retry

import (
	"context"
	"time"
)

// Policy defines how many attempts to make and how long to wait between them.
// The delay for attempt N (1-based, counting failures) is Delays[N-1]; when
// there are more attempts than delays the last delay is reused.
type Policy struct {
	MaxAttempts int
	Delays      []time.Duration
}

// DefaultPolicy matches the trigger-processing schedule: three attempts with
// 3s, 2s, 1s between them.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	Delays:      []time.Duration{3 * time.Second, 2 * time.Second, 1 * time.Second},
}

// delayFor returns the wait duration after failed attempt n (1-based).
func (p Policy) delayFor(n int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if n-1 >= len(p.Delays) {
		return p.Delays[len(p.Delays)-1]
	}
	return p.Delays[n-1]
}

// Do invokes fn until it succeeds, the policy is exhausted, or ctx is
// cancelled. The last error is returned when all attempts fail.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delayFor(attempt)):
		}
	}

	return lastErr
}
