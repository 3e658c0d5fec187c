package tracking

import (
	"context"
	"time"
)

// Clock supplies the time the core compares its timers against.
// time.Now carries a monotonic reading, so wall clock jumps do not affect it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Sleeper blocks between interpolated moves.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemSleeper sleeps on a real timer and honours cancellation.
type SystemSleeper struct{}

// Sleep waits for d or until ctx is done.
func (SystemSleeper) Sleep(ctx context.Context, d time.Duration) error {
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
