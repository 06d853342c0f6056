package llm

import (
	"context"
	"time"
)

// DefaultRetryDelay is the fixed wait between attempts after a rate limit.
const DefaultRetryDelay = 20 * time.Second

// RetryPolicy configures how rate-limited calls are retried. The delay is
// fixed; there is no backoff.
type RetryPolicy struct {
	Delay      time.Duration
	MaxRetries int // 0 = unlimited
	Retryable  func(err error) bool
	Sleep      func(ctx context.Context, d time.Duration) error
	OnRetry    func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy retries rate limits forever with a 20 second pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Delay:     DefaultRetryDelay,
		Retryable: IsRateLimit,
		Sleep:     SleepContext,
	}
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsRateLimit(err)
	}
	return p.Retryable(err)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep == nil {
		return SleepContext(ctx, d)
	}
	return p.Sleep(ctx, d)
}

// Retry executes fn with the configured retry policy.
// Only errors accepted by the policy's matcher are retried.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}

	for attempt := 1; policy.MaxRetries == 0 || attempt <= policy.MaxRetries; attempt++ {
		if !policy.retryable(err) {
			return zero, err
		}

		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt, policy.Delay)
		}

		if serr := policy.sleep(ctx, policy.Delay); serr != nil {
			return zero, &AbortError{BaseError: BaseError{Message: "request cancelled during retry", Cause: serr}}
		}

		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
	}

	return zero, err
}
