package llm

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"time"
)

// RetryPolicy bounds the exponential backoff applied to retryable
// transport failures: rate limits, timeouts, connection errors, 5xx.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the configured defaults: up to 5 attempts,
// 4s base, 60s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 4 * time.Second, MaxDelay: 60 * time.Second}
}

func (p RetryPolicy) normalized() RetryPolicy {
	out := p
	if out.MaxAttempts < 1 {
		out.MaxAttempts = 1
	}
	if out.BaseDelay <= 0 {
		out.BaseDelay = 4 * time.Second
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = 60 * time.Second
	}
	return out
}

// Do runs fn up to MaxAttempts times, sleeping an exponentially growing,
// jittered delay between retryable failures. Cancellation aborts the wait.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	policy := p.normalized()

	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = fn(); err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == policy.MaxAttempts {
			return err
		}

		delay := policy.backoff(attempt)
		if rl, ok := asRateLimited(err); ok && rl.RetryAfter > delay && rl.RetryAfter <= policy.MaxDelay {
			delay = rl.RetryAfter
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

// backoff returns base * 2^(attempt-1), capped, with up to 25% jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	if delay+jitter > p.MaxDelay {
		return p.MaxDelay
	}
	return delay + jitter
}

// IsRetryable classifies transport failures. Auth failures, malformed
// requests, and policy blocks are terminal; rate limits, timeouts,
// connection errors, and 5xx are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if _, ok := asRateLimited(err); ok {
		return true
	}
	var serverErr ErrServerError
	if errors.As(err, &serverErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func asRateLimited(err error) (ErrRateLimited, bool) {
	var rl ErrRateLimited
	if errors.As(err, &rl) {
		return rl, true
	}
	return ErrRateLimited{}, false
}
