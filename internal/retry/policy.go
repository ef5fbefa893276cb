package retry

import (
	"context"
	"time"

	"git.home.luguber.info/inful/autopage/internal/config"
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration           // base delay
	Max        time.Duration           // cap for growth
	MaxRetries int                     // maximum retry attempts after the first failure
}

// DefaultPolicy mirrors the notify.retry defaults.
func DefaultPolicy() Policy {
	return Policy{
		Mode:       config.DefaultRetryBackoff,
		Initial:    100 * time.Millisecond,
		Max:        2 * time.Second,
		MaxRetries: config.DefaultRetryMaxRetries,
	}
}

// NoRetry attempts an operation exactly once.
func NoRetry() Policy {
	p := DefaultPolicy()
	p.MaxRetries = 0
	return p
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch mode {
	case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
		p.Mode = mode
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds a policy from a validated RetryConfig.
func FromConfig(rc config.RetryConfig) Policy {
	return NewPolicy(rc.Backoff, rc.InitialDuration(), rc.MaxDuration(), rc.Retries())
}

// Delay returns the backoff delay for the given retry attempt number (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		if retryCount > 30 {
			return p.Max
		}
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max || d <= 0 {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return errors.ValidationError("retry initial delay must be > 0").Build()
	}
	if p.Max <= 0 {
		return errors.ValidationError("retry max delay must be > 0").Build()
	}
	if p.MaxRetries < 0 {
		return errors.ValidationError("retry count cannot be negative").Build()
	}
	return nil
}

// Do runs fn until it succeeds, the retries are exhausted or ctx ends.
// The last error from fn is returned when retries run out. Classified
// errors steer the loop: RetryNever and RetryUserAction stop it at once,
// RetryImmediate skips the backoff delay before the next attempt.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	immediate := false
	for attempt := 0; ; attempt++ {
		if attempt > 0 && !immediate {
			timer := time.NewTimer(p.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || ctx.Err() != nil {
			return err
		}
		immediate = false
		if classified, ok := errors.AsClassified(err); ok {
			if !classified.CanRetry() {
				return err
			}
			immediate = classified.RetryStrategy() == errors.RetryImmediate
		}
	}
}
