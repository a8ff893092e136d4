// Package extract reads single fields off the current page.
//
// Every field is a chain of steps tried in order. A step polls its probe
// until the probe reports a value or the step's timeout runs out; errors,
// timeouts and panics inside a probe all count as "not found". A chain
// therefore always returns, within the sum of its step timeouts.
package extract

import (
	"context"
	"fmt"
	"time"
)

// PollInterval is the pause between two probes of the same step
const PollInterval = 50 * time.Millisecond

// Outcome is the result of one extraction attempt
type Outcome[T any] struct {
	Found bool
	Value T
}

func Found[T any](v T) Outcome[T] {
	return Outcome[T]{Found: true, Value: v}
}

func Missing[T any]() Outcome[T] {
	return Outcome[T]{}
}

// OrEmpty returns the value, or T's zero value when nothing was found
func (o Outcome[T]) OrEmpty() T {
	var zero T
	return o.OrElse(zero)
}

func (o Outcome[T]) OrElse(def T) T {
	if !o.Found {
		return def
	}
	return o.Value
}

// Probe inspects the page once without waiting
type Probe[T any] func(ctx context.Context) (T, bool, error)

// Step is one selector strategy with its own wait bound
type Step[T any] struct {
	Name    string
	Timeout time.Duration
	Probe   Probe[T]
}

// Attempt polls step.Probe until it finds a value or step.Timeout elapses.
// The probe runs at least once, even with a zero timeout.
func Attempt[T any](ctx context.Context, step Step[T]) Outcome[T] {
	if ctx.Err() != nil {
		return Missing[T]()
	}

	if step.Timeout <= 0 {
		if v, ok, err := safeProbe(ctx, step.Probe); err == nil && ok {
			return Found(v)
		}
		return Missing[T]()
	}

	attemptCtx, cancel := context.WithTimeout(ctx, step.Timeout)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		if v, ok, err := safeProbe(attemptCtx, step.Probe); err == nil && ok {
			return Found(v)
		}

		select {
		case <-attemptCtx.Done():
			return Missing[T]()
		case <-ticker.C:
		}
	}
}

// Chain tries steps in order and returns the first found outcome
func Chain[T any](ctx context.Context, steps ...Step[T]) Outcome[T] {
	for _, step := range steps {
		if out := Attempt(ctx, step); out.Found {
			return out
		}
	}
	return Missing[T]()
}

func safeProbe[T any](ctx context.Context, probe Probe[T]) (v T, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
			ok = false
		}
	}()
	return probe(ctx)
}
