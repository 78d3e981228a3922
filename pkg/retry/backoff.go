package retry

import (
	"context"
	"math/rand/v2"
	"time"

	errs "igharvest/pkg/errors"
)

// BackoffStrategy returns the delay to wait after the given failed attempt
// (1-based). Attempt 0 waits nothing.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ErrorAware strategies choose a delay schedule from the failure itself
type ErrorAware interface {
	ForError(err error) BackoffStrategy
}

// ExponentialBackoff grows BaseDelay by Multiplier per attempt up to MaxDelay,
// then spreads the result by +/- JitterFactor.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultExponentialBackoff returns the backoff used for media fetches
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(eb.BaseDelay)
	for i := 1; i < attempt && delay < float64(eb.MaxDelay); i++ {
		delay *= eb.Multiplier
	}
	delay = min(delay, float64(eb.MaxDelay))

	if eb.JitterFactor > 0 {
		delay *= 1 + eb.JitterFactor*(2*rand.Float64()-1)
	}
	return time.Duration(max(delay, 0))
}

// ConstantBackoff waits the same Delay after every failure
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// ByErrorType looks the schedule up by the failure's error type
type ByErrorType struct {
	Table   map[errs.ErrorType]BackoffStrategy
	Default BackoffStrategy
}

// NewErrorTypeBackoff returns the table used for CDN fetches. Rate limiting
// backs off much slower than transient network or server failures.
func NewErrorTypeBackoff() *ByErrorType {
	return &ByErrorType{
		Table: map[errs.ErrorType]BackoffStrategy{
			errs.ErrorTypeNetwork: &ExponentialBackoff{
				BaseDelay: 500 * time.Millisecond, MaxDelay: 8 * time.Second, Multiplier: 2, JitterFactor: 0.2,
			},
			errs.ErrorTypeRateLimit: &ExponentialBackoff{
				BaseDelay: 5 * time.Second, MaxDelay: time.Minute, Multiplier: 1.5, JitterFactor: 0.3,
			},
			errs.ErrorTypeServerError: &ExponentialBackoff{
				BaseDelay: time.Second, MaxDelay: 15 * time.Second, Multiplier: 2, JitterFactor: 0.1,
			},
		},
		Default: DefaultExponentialBackoff(),
	}
}

// NextDelay uses the default schedule
func (b *ByErrorType) NextDelay(attempt int) time.Duration {
	return b.Default.NextDelay(attempt)
}

func (b *ByErrorType) ForError(err error) BackoffStrategy {
	if s, ok := b.Table[errs.TypeOf(err)]; ok {
		return s
	}
	return b.Default
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jitter returns a uniformly random duration in [lo, hi]
func Jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

// Pause waits a random duration in [lo, hi], returning early on cancellation
func Pause(ctx context.Context, lo, hi time.Duration) error {
	return Wait(ctx, Jitter(lo, hi))
}
