package backoff

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Policy computes retry delays. Kind is one of "fixed", "linear",
// "exponential", "exp_equal_jitter", "exp_full_jitter"; unknown kinds fall
// back to exp_full_jitter.
type Policy struct {
	Kind string
	Base time.Duration
	Max  time.Duration
}

// Delay returns the wait before the given attempt. attempt is expected to be
// >= 0.
func (p Policy) Delay(attempt int, rng *rand.Rand) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	max := p.Max
	if max <= 0 {
		max = base
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	switch p.Kind {
	case "fixed":
		return minDur(base, max)
	case "linear":
		n := attempt
		if n < 1 {
			n = 1
		}
		return minDur(base*time.Duration(n), max)
	case "exponential":
		return expDelay(base, max, attempt)
	case "exp_equal_jitter":
		d := expDelay(base, max, attempt)
		half := d / 2
		return half + time.Duration(rng.Int63n(int64(half)+1))
	default: // exp_full_jitter
		d := expDelay(base, max, attempt)
		if d <= 0 {
			return 0
		}
		return time.Duration(rng.Int63n(int64(d) + 1))
	}
}

func expDelay(base, max time.Duration, attempt int) time.Duration {
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d <= 0 || d > max {
		return max
	}
	return d
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// ErrExhausted signals that a poll loop used up its attempt budget without
// the condition becoming true.
var ErrExhausted = errors.New("poll attempts exhausted")

// Poll invokes fn up to maxAttempts times, waiting policy.Delay between
// attempts, stopping early when fn reports done or errors, or when ctx is
// cancelled. External collaborators with long-running jobs are polled through
// this so a degraded service surfaces as ErrExhausted instead of a hang.
func Poll(ctx context.Context, maxAttempts int, policy Policy, fn func(ctx context.Context) (done bool, err error)) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for attempt := 0; attempt < maxAttempts; attempt++ {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Delay(attempt, rng)):
		}
	}
	return ErrExhausted
}
