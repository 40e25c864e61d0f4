package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(Config{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2.0}, func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 invocation, got %d", calls)
	}
}

func TestDo_Exhaustion(t *testing.T) {
	boom := errors.New("always fails")

	calls := 0
	err := Do(Config{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2.0}, func() error {
		calls++
		return boom
	})

	if calls != 3 {
		t.Errorf("Expected exactly 3 invocations, got %d", calls)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected the original error after exhaustion, got %v", err)
	}
}

func TestDo_RecoversMidway(t *testing.T) {
	calls := 0
	err := Do(Config{MaxAttempts: 5, Delay: time.Millisecond, Backoff: 2.0}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Expected eventual success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 invocations, got %d", calls)
	}
}

func TestDo_ExponentialDelay(t *testing.T) {
	start := time.Now()
	Do(Config{MaxAttempts: 3, Delay: 20 * time.Millisecond, Backoff: 2.0}, func() error {
		return errors.New("fail")
	})
	elapsed := time.Since(start)

	// Two waits: 20ms then 40ms
	if elapsed < 60*time.Millisecond {
		t.Errorf("Expected at least 60ms of backoff, got %v", elapsed)
	}
}

func TestDoContext_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := DoContext(ctx, Config{MaxAttempts: 3, Delay: time.Minute, Backoff: 2.0}, func() error {
		calls++
		return errors.New("fail")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected cancellation to stop further attempts, got %d invocations", calls)
	}
}

func TestDo_SingleAttemptNoWait(t *testing.T) {
	boom := errors.New("fail")

	start := time.Now()
	err := Do(Config{MaxAttempts: 1, Delay: time.Second, Backoff: 2.0}, func() error {
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("Expected the original error, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("Expected no backoff wait after the final attempt")
	}
}
