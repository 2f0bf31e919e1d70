// Package retry provides exponential backoff for calls to external services.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	config "github.com/tigerroll/rlsgen/pkg/batch/core/config"
	"github.com/tigerroll/rlsgen/pkg/batch/support/util/exception"
)

// RetryPolicy decides whether an error is retried and how long to wait before the next attempt.
type RetryPolicy interface {
	// ShouldRetry determines if a given error is retryable.
	ShouldRetry(err error) bool
	// GetBackoffInterval returns the delay before attempt (0-based, attempt >= 1) given a jitter sample.
	GetBackoffInterval(attempt int, jitter time.Duration) time.Duration
	// GetMaxAttempts returns the total number of attempts, including the first.
	GetMaxAttempts() int
	// GetMaxJitter returns the exclusive upper bound for jitter samples.
	GetMaxJitter() time.Duration
}

// ExponentialBackoffPolicy waits min(initial*factor^attempt + jitter, max) before attempt.
type ExponentialBackoffPolicy struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	factor          float64
	maxJitter       time.Duration
}

// NewExponentialBackoffPolicy creates a policy from millisecond based settings.
func NewExponentialBackoffPolicy(cfg config.RetryConfig) *ExponentialBackoffPolicy {
	factor := cfg.Factor
	if factor <= 0 {
		factor = 2
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &ExponentialBackoffPolicy{
		maxAttempts:     maxAttempts,
		initialInterval: time.Duration(cfg.InitialInterval) * time.Millisecond,
		maxInterval:     time.Duration(cfg.MaxInterval) * time.Millisecond,
		factor:          factor,
		maxJitter:       time.Duration(cfg.Jitter) * time.Millisecond,
	}
}

// GetMaxAttempts returns the maximum number of attempts.
func (p *ExponentialBackoffPolicy) GetMaxAttempts() int {
	return p.maxAttempts
}

// GetMaxJitter returns the jitter bound.
func (p *ExponentialBackoffPolicy) GetMaxJitter() time.Duration {
	return p.maxJitter
}

// ShouldRetry retries errors classified as temporary by exception.IsTemporary.
func (p *ExponentialBackoffPolicy) ShouldRetry(err error) bool {
	return exception.IsTemporary(err)
}

// GetBackoffInterval is a pure function of attempt and jitter. The first attempt never waits.
func (p *ExponentialBackoffPolicy) GetBackoffInterval(attempt int, jitter time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	base := float64(p.initialInterval) * math.Pow(p.factor, float64(attempt))
	delay := time.Duration(base) + jitter
	if p.maxInterval > 0 && (delay > p.maxInterval || base > float64(p.maxInterval)) {
		return p.maxInterval
	}
	return delay
}

// JitterSource returns a random duration in [0, max).
type JitterSource func(max time.Duration) time.Duration

// UniformJitter samples uniformly from [0, max).
func UniformJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}

// Sleeper waits for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper sleeps on a real timer.
type TimerSleeper struct{}

// Sleep implements Sleeper.
func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ RetryPolicy = (*ExponentialBackoffPolicy)(nil)
