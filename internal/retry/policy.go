// Package retry runs storage operations again after transient failures.
package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/focusforge/internal/config"
)

// Policy is a backoff schedule. The zero value is not useful; build one with
// DefaultPolicy, NewPolicy or FromConfig.
type Policy struct {
	Mode       config.RetryBackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // attempts after the first failure
}

// DefaultPolicy backs off exponentially from 100ms up to 2s, twice.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.RetryBackoffExponential,
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		MaxRetries: 2,
	}
}

// NoRetry runs the operation exactly once.
func NoRetry() Policy {
	p := DefaultPolicy()
	p.MaxRetries = 0
	return p
}

// NewPolicy overlays the given values on DefaultPolicy. Non-positive
// durations, negative retry counts and unknown modes keep the default.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	p.Initial = min(p.Initial, p.Max)
	return p
}

// FromConfig builds a policy from the retry section of focusforge.yaml.
func FromConfig(rc config.RetryConfig) Policy {
	initial, maxDelay := rc.Delays()
	return NewPolicy(rc.Backoff, initial, maxDelay, rc.MaxRetries)
}

// Delay is the wait before retry n (1-based). It never exceeds Max.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	var d time.Duration
	switch p.Mode {
	case config.RetryBackoffFixed:
		d = p.Initial
	case config.RetryBackoffExponential:
		if n > 32 {
			return p.Max
		}
		d = p.Initial << (n - 1)
	default:
		d = p.Initial * time.Duration(n)
	}
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// Do calls fn until it succeeds or the policy gives up. It also stops when
// retryable rejects the error or ctx ends while waiting. onRetry, if set,
// sees the retry number and the error that triggered it. Do returns the
// last error from fn.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error, retryable func(error) bool, onRetry func(attempt int, err error)) error {
	err := fn(ctx)
	for n := 1; err != nil && n <= p.MaxRetries; n++ {
		if retryable != nil && !retryable(err) {
			return err
		}
		if onRetry != nil {
			onRetry(n, err)
		}
		wait := time.NewTimer(p.Delay(n))
		select {
		case <-ctx.Done():
			wait.Stop()
			return err
		case <-wait.C:
		}
		err = fn(ctx)
	}
	return err
}
