// Package retry reruns an operation with capped, jittered exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	Factor   float64
	// Jitter spreads each delay by up to this fraction in both directions.
	Jitter float64
	// ShouldRetry defaults to IsTransient. Errors wrapped with Permanent are
	// never retried.
	ShouldRetry func(error) bool
	// OnRetry runs before each sleep.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry: attempts exhausted")

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns the inner error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

func (b Backoff) normalized() Backoff {
	b.Attempts = max(b.Attempts, 1)
	if b.Initial <= 0 {
		b.Initial = 100 * time.Millisecond
	}
	if b.Factor < 1 {
		b.Factor = 2
	}
	b.Jitter = min(max(b.Jitter, 0), 1)
	if b.ShouldRetry == nil {
		b.ShouldRetry = IsTransient
	}
	return b
}

// Delay is the wait after the given failed attempt, before jitter.
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.normalized()
	d := float64(b.Initial)
	for i := 1; i < attempt; i++ {
		d *= b.Factor
		if b.Max > 0 && d >= float64(b.Max) {
			return b.Max
		}
	}
	if b.Max > 0 && d > float64(b.Max) {
		return b.Max
	}
	return time.Duration(d)
}

func (b Backoff) jittered(d time.Duration) time.Duration {
	if b.Jitter == 0 || d <= 0 {
		return d
	}
	spread := (rand.Float64()*2 - 1) * b.Jitter
	return time.Duration(float64(d) * (1 + spread))
}

// Do calls fn until it returns nil. It stops early on a permanent or
// non-retryable error and when ctx ends during a wait.
func Do(ctx context.Context, b Backoff, fn func(context.Context) error) error {
	b = b.normalized()

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, last)
		}

		last = fn(ctx)
		if last == nil {
			return nil
		}

		var perm permanentError
		if errors.As(last, &perm) {
			return perm.err
		}
		if !b.ShouldRetry(last) {
			return last
		}
		if attempt == b.Attempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, last)
		}

		wait := b.jittered(b.Delay(attempt))
		if b.OnRetry != nil {
			b.OnRetry(attempt, wait, last)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), last)
		case <-timer.C:
		}
	}
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no such host",
	"temporary failure",
	"the database system is starting up",
	"too many connections",
	"database is locked",
}

// IsTransient reports whether err looks like a dependency that is still
// starting or briefly overloaded.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
