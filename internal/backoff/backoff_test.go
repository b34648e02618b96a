package backoff

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestPolicyDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed", Policy{Kind: "fixed", Base: 5 * time.Second, Max: 900 * time.Second}, 3, 5 * time.Second},
		{"fixed capped", Policy{Kind: "fixed", Base: 10 * time.Second, Max: 2 * time.Second}, 0, 2 * time.Second},
		{"linear attempt 3", Policy{Kind: "linear", Base: 5 * time.Second, Max: 900 * time.Second}, 3, 15 * time.Second},
		{"linear attempt 0", Policy{Kind: "linear", Base: 5 * time.Second, Max: 900 * time.Second}, 0, 5 * time.Second},
		{"exponential attempt 4", Policy{Kind: "exponential", Base: 5 * time.Second, Max: 900 * time.Second}, 4, 80 * time.Second},
		{"exponential capped", Policy{Kind: "exponential", Base: 5 * time.Second, Max: 60 * time.Second}, 10, 60 * time.Second},
		{"negative attempt", Policy{Kind: "exponential", Base: 5 * time.Second, Max: 900 * time.Second}, -1, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Delay(tt.attempt, rng); got != tt.want {
				t.Errorf("Delay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicyDelayJitterBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for attempt := 0; attempt < 8; attempt++ {
		full := Policy{Kind: "exp_full_jitter", Base: time.Second, Max: time.Minute}
		d := full.Delay(attempt, rng)
		if d < 0 || d > time.Minute {
			t.Errorf("full jitter attempt %d: delay %v out of [0, 1m]", attempt, d)
		}

		equal := Policy{Kind: "exp_equal_jitter", Base: time.Second, Max: time.Minute}
		d = equal.Delay(attempt, rng)
		cap := expDelay(time.Second, time.Minute, attempt)
		if d < cap/2 || d > cap {
			t.Errorf("equal jitter attempt %d: delay %v out of [%v, %v]", attempt, d, cap/2, cap)
		}
	}
}

func TestPollSucceedsBeforeBudget(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 5, Policy{Kind: "fixed", Base: time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestPollExhaustsBudget(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 4, Policy{Kind: "fixed", Base: time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Poll error = %v, want ErrExhausted", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want exactly the attempt budget 4", calls)
	}
}

func TestPollPropagatesError(t *testing.T) {
	boom := errors.New("render service down")
	err := Poll(context.Background(), 3, Policy{Kind: "fixed", Base: time.Millisecond}, func(ctx context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Poll error = %v, want %v", err, boom)
	}
}

func TestPollStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Poll(ctx, 1000, Policy{Kind: "fixed", Base: 5 * time.Millisecond}, func(ctx context.Context) (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Poll error = %v, want context.Canceled", err)
	}
	if calls >= 1000 {
		t.Error("poll did not stop on cancellation")
	}
}
