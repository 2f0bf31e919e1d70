package retry

import (
	"context"
	"time"
)

// Executor runs an operation under a RetryPolicy.
type Executor struct {
	Policy  RetryPolicy
	Jitter  JitterSource
	Sleeper Sleeper
	// OnRetry, when set, is called after a retryable failure and before sleeping.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates an Executor with uniform jitter and a real timer.
func NewExecutor(policy RetryPolicy) *Executor {
	return &Executor{Policy: policy, Jitter: UniformJitter, Sleeper: TimerSleeper{}}
}

// Do calls op until it succeeds, returns a non-retryable error, or the attempts run out.
// It returns the number of attempts made and the last error.
// Cancellation of ctx while waiting ends the loop with ctx's error.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	var lastErr error
	maxAttempts := e.Policy.GetMaxAttempts()
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := e.Policy.GetBackoffInterval(attempt, e.Jitter(e.Policy.GetMaxJitter()))
			if e.OnRetry != nil {
				e.OnRetry(attempt, lastErr, delay)
			}
			if err := e.Sleeper.Sleep(ctx, delay); err != nil {
				return attempt, err
			}
		}

		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return attempt + 1, nil
		}
		if !e.Policy.ShouldRetry(lastErr) {
			return attempt + 1, lastErr
		}
	}
	return maxAttempts, lastErr
}
