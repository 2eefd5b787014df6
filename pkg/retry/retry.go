// Package retry runs an operation with bounded exponential backoff.
//
// Delay for attempt n (starting at 0) is BaseDelay * 2^n plus a random jitter
// in [0, MaxJitter). Errors wrapped with Permanent stop the loop immediately;
// errors implementing RetryAfter replace the computed delay with the
// provider-advertised wait.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Policy configures Do.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxJitter time.Duration

	// Sleep waits for d or until ctx is done. Nil means a timer-based sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each wait. Optional.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy matches the provider guidance: 3 attempts, 1s jitter.
func DefaultPolicy(base time.Duration) Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: base,
		MaxJitter: time.Second,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryAfter is implemented by errors that carry an explicit wait time.
type RetryAfter interface {
	RetryAfter() time.Duration
}

// Backoff returns the delay before retrying after the given attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.MaxJitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.MaxJitter)))
	}
	return d
}

// Do calls fn until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is cancelled. The last error is returned unwrapped from
// Permanent.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx, attempt)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.Backoff(attempt)
		var ra RetryAfter
		if errors.As(err, &ra) && ra.RetryAfter() > 0 {
			delay = ra.RetryAfter()
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if sErr := sleep(ctx, delay); sErr != nil {
			return err
		}
	}
	return err
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
