package engine

import (
	"context"
	"fmt"
	"time"
)

// Pace sleeps for whatever is left of delay since started. It returns false
// if ctx is cancelled first.
func Pace(ctx context.Context, started time.Time, delay time.Duration) bool {
	remaining := delay - time.Since(started)
	if remaining <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(remaining)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// StepFunc computes the frame for generation gen (zero based).
type StepFunc func(gen int) (*Frame, error)

// Animate runs step once per generation and publishes each frame in order,
// keeping at least delay between consecutive frames.
func Animate(ctx context.Context, out Output, gens int, delay time.Duration, step StepFunc) error {
	for gen := 0; gen < gens; gen++ {
		if ctx.Err() != nil {
			return nil
		}

		started := time.Now()
		out.Report(fmt.Sprintf("Calculating generation %d...", gen+1))

		f, err := step(gen)
		if err != nil {
			return fmt.Errorf("generation %d: %w", gen+1, err)
		}

		if !Pace(ctx, started, delay) {
			return nil
		}
		if !out.Publish(ctx, f) {
			return nil
		}
	}
	return nil
}
