// Package pacer provides request pacing for rate-limited vendor APIs.
package pacer

import (
	"context"
	"time"
)

// Pacer spaces out successive operations. Wait blocks until the next
// operation may proceed or the context is cancelled.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedDelay enforces a minimum interval between successive Wait returns.
// The first call never blocks.
type FixedDelay struct {
	interval time.Duration
	last     time.Time
}

// NewFixedDelay creates a pacer with the given minimum interval.
func NewFixedDelay(interval time.Duration) *FixedDelay {
	return &FixedDelay{interval: interval}
}

// Wait blocks until at least the configured interval has passed since the
// previous call. Not safe for concurrent use; collection runs sequentially.
func (p *FixedDelay) Wait(ctx context.Context) error {
	if p.last.IsZero() {
		p.last = time.Now()
		return nil
	}

	wait := p.interval - time.Since(p.last)
	if wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	p.last = time.Now()
	return nil
}

// None is a no-op pacer for tests.
type None struct{}

// Wait returns immediately.
func (None) Wait(ctx context.Context) error { return ctx.Err() }
