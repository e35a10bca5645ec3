package orchestrator

import (
	"context"
	"time"
)

// defaultBackoffCap bounds the retry delay after an unexpected loop
// failure.
const defaultBackoffCap = 300 * time.Second

// backoffDelay doubles the cycle interval and clamps it at the cap.
func backoffDelay(interval, cap time.Duration) time.Duration {
	if cap <= 0 {
		cap = defaultBackoffCap
	}
	d := 2 * interval
	if d > cap {
		return cap
	}
	return d
}

// Clock abstracts time for the run loop so tests can drive it without
// real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
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
