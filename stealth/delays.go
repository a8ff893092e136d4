package stealth

import (
	"context"
	"math/rand"
	"time"
)

// Pause sleeps for d or until ctx ends, whichever comes first.
// A non-positive d returns at once.
func Pause(ctx context.Context, d time.Duration) error {
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

// RandomMillis returns a random duration between min and max milliseconds
func RandomMillis(rng *rand.Rand, min, max int) time.Duration {
	if min >= max {
		return time.Duration(min) * time.Millisecond
	}
	n := rng.Intn(max-min+1) + min
	return time.Duration(n) * time.Millisecond
}

// Jitter spreads base by ±percent. Bases of 50ms or more never drop below 50ms.
func Jitter(rng *rand.Rand, base time.Duration, percent int) time.Duration {
	if base <= 0 {
		return 0
	}
	spread := int64(base) * int64(percent) / 100
	if spread == 0 {
		return base
	}

	d := time.Duration(int64(base) + rng.Int63n(2*spread) - spread)
	if floor := min(base, 50*time.Millisecond); d < floor {
		d = floor
	}
	return d
}

// ReactionPause waits a human reaction time (30-100ms) before a click
func ReactionPause(ctx context.Context, rng *rand.Rand) error {
	return Pause(ctx, RandomMillis(rng, 30, 100))
}
