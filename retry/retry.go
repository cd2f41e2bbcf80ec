// Package retry is the single retry-with-backoff loop shared by every
// component that talks to the ledger.
package retry

import (
	"context"
	"errors"
	"time"
)

type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort wraps err so Do stops retrying and returns err immediately.
// Use it for definitive negatives such as an explicit on-chain
// rejection.
func Abort(err error) error {
	return &abortError{err: err}
}

// Do runs fn up to attempts times, waiting delay(attempt) between
// failed attempts. Attempts are numbered from 1. It returns nil on the
// first success, the wrapped error of the first Abort, or the last
// observed error once attempts are exhausted. It never fabricates a
// success.
func Do(ctx context.Context, attempts int, delay func(attempt int) time.Duration, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		var abort *abortError
		if errors.As(err, &abort) {
			return abort.err
		}
		last = err
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return last
}

// FixedDelay waits the same duration between every attempt.
func FixedDelay(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// LinearBackoff waits base*attempt between attempts.
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration { return base * time.Duration(attempt) }
}
