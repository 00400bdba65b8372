// Package retry provides the single retry/backoff policy used for every
// external call class (platform API, LLM service). Call sites never hand-roll
// their own loops.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Policy is a bounded, jittered exponential backoff policy.
type Policy struct {
	MaxAttempts int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
	JitterFrac  float64
	// Retryable decides whether an error is worth another attempt.
	// Nil means every error is retryable.
	Retryable func(err error) bool
}

// PlatformPolicy is the call class for the content-platform data API.
func PlatformPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		MinBackoff:  500 * time.Millisecond,
		MaxBackoff:  8 * time.Second,
		JitterFrac:  0.2,
	}
}

// LLMPolicy is the call class for the LLM classification/title service.
func LLMPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		MinBackoff:  time.Second,
		MaxBackoff:  15 * time.Second,
		JitterFrac:  0.2,
	}
}

// Permanent wraps an error so the policy stops retrying it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Do runs fn up to MaxAttempts times, sleeping a jittered exponential
// backoff between attempts. It stops early on context cancellation or a
// Permanent error, and returns the last error.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(p.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// backoff returns the sleep before the next attempt: min*2^(attempt-1),
// capped at max, with +/- JitterFrac of random jitter.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.MinBackoff
	if d <= 0 {
		d = time.Second
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			d = p.MaxBackoff
			break
		}
	}
	if p.JitterFrac > 0 {
		jitter := 1 + p.JitterFrac*(2*rand.Float64()-1)
		d = time.Duration(float64(d) * jitter)
	}
	return d
}
