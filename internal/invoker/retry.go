package invoker

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/vk/choreo/internal/ctxlog"
)

// RetryPolicy controls how often a failed invocation is repeated.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

func (p RetryPolicy) normalized() RetryPolicy {
	q := p
	if q.BaseDelay <= 0 {
		q.BaseDelay = 200 * time.Millisecond
	}
	if q.MaxDelay <= 0 {
		q.MaxDelay = 5 * time.Second
	}
	if q.MaxDelay < q.BaseDelay {
		q.MaxDelay = q.BaseDelay
	}
	if q.MaxRetries < 0 {
		q.MaxRetries = 0
	}
	return q
}

// backoff returns the delay before the given retry attempt.
func backoff(attempt int, base, max time.Duration, jitter bool) time.Duration {
	d := base << attempt
	if d > max || d <= 0 {
		d = max
	}
	if !jitter {
		return d
	}
	// add +/- 50% jitter
	half := d / 2
	if half <= 0 {
		return d
	}
	delta := time.Duration(rand.Int63n(int64(half))) // #nosec G404 non-crypto
	return half + delta
}

// Retry wraps an invoker with a retry policy. Routing errors are not retried.
type Retry struct {
	next   Invoker
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetry creates a retrying invoker around next.
func NewRetry(next Invoker, policy RetryPolicy) *Retry {
	return &Retry{next: next, policy: policy.normalized(), sleep: sleepCtx}
}

// Invoke calls the wrapped invoker until it succeeds or retries run out.
func (r *Retry) Invoke(ctx context.Context, resourceID string, input map[string]any) (string, int64, error) {
	logger := ctxlog.FromContext(ctx)
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			d := backoff(attempt-1, r.policy.BaseDelay, r.policy.MaxDelay, r.policy.Jitter)
			logger.Warn("Retrying invocation.", "resource", resourceID, "attempt", attempt, "delay", d, "error", lastErr)
			if err := r.sleep(ctx, d); err != nil {
				return "", 0, err
			}
		}
		out, rtt, err := r.next.Invoke(ctx, resourceID, input)
		if err == nil {
			return out, rtt, nil
		}
		var noRoute *ErrNoRoute
		if errors.As(err, &noRoute) || ctx.Err() != nil {
			return "", rtt, err
		}
		lastErr = err
	}
	return "", 0, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
