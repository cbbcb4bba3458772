// Package retry runs an operation until it succeeds, a classifier declares
// its error permanent, the attempts run out or the context ends.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// Action is a classifier's verdict on an error.
type Action int

const (
	Stop  Action = iota // permanent, return at once
	Retry               // transient, exponential backoff
	After               // rate limited, wait RateLimitBackoff
)

// Policy controls Do. MaxAttempts <= 0 retries until the context ends.
// MaxBackoff > 0 caps the exponential growth. A nil Clock is the real one.
type Policy struct {
	MaxAttempts      int
	InitialBackoff   time.Duration
	RateLimitBackoff time.Duration
	MaxBackoff       time.Duration
	OnRetry          func(attempt int, err error, backoff time.Duration)
	Clock            clockwork.Clock
}

type Classify func(err error) Action
type Operation[T any] func() (T, error)
type VoidOperation func() error

// Always treats every error as transient.
func Always(error) Action { return Retry }

// PermanentError wraps the error that made a classifier answer Stop.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Do[T any](ctx context.Context, p Policy, classify Classify, op Operation[T]) (T, error) {
	var zero T
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	next := p.InitialBackoff
	for attempt := 1; ; attempt++ {
		val, err := op()
		if err == nil {
			return val, nil
		}

		action := classify(err)
		switch {
		case action == Stop:
			return zero, &PermanentError{Err: err}
		case p.MaxAttempts > 0 && attempt >= p.MaxAttempts:
			return zero, fmt.Errorf("failed after %d attempts: %w", attempt, err)
		}

		wait := p.wait(action, next)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if err := sleep(ctx, clock, wait); err != nil {
			return zero, err
		}
		next = wait * 2
	}
}

func DoVoid(ctx context.Context, p Policy, classify Classify, op VoidOperation) error {
	_, err := Do(ctx, p, classify, func() (struct{}, error) { return struct{}{}, op() })
	return err
}

func (p Policy) wait(action Action, backoff time.Duration) time.Duration {
	if action == After && p.RateLimitBackoff > 0 {
		backoff = p.RateLimitBackoff
	}
	if p.MaxBackoff > 0 {
		backoff = min(backoff, p.MaxBackoff)
	}
	return backoff
}

func sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
	}
}
