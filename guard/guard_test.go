package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursegen-go/cache"
	"coursegen-go/circuitbreaker"
	"coursegen-go/metrics"
	"coursegen-go/ratelimit"
	"coursegen-go/retry"
)

func setupTestGuard(t *testing.T) *Guard {
	t.Helper()

	store, err := cache.Open(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("Failed to open cache store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &Guard{
		Cache:   store,
		Limiter: ratelimit.New(100, time.Minute, nil),
		Breaker: circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 5, RecoveryTimeout: time.Minute}),
		Retry:   retry.Config{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 2.0},
		Metrics: metrics.New(),
	}
}

func TestCall_SuccessIsCached(t *testing.T) {
	g := setupTestGuard(t)
	ctx := context.Background()
	spec := CallSpec{Name: "generate", Args: []any{"prompt"}, Kind: KindLLM}

	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "generated text", nil
	}

	got, err := Call(g, ctx, spec, op)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got != "generated text" {
		t.Errorf("Expected the operation result, got %q", got)
	}

	// Same spec again: served from cache without invoking op
	got, err = Call(g, ctx, spec, op)
	if err != nil {
		t.Fatalf("Expected cached success, got %v", err)
	}
	if got != "generated text" {
		t.Errorf("Expected the cached result, got %q", got)
	}
	if calls != 1 {
		t.Errorf("Expected 1 invocation, got %d", calls)
	}

	snap := g.Metrics.Snapshot()
	if snap.CacheMisses != 1 || snap.CacheHits != 1 {
		t.Errorf("Expected 1 miss and 1 hit, got %d misses %d hits", snap.CacheMisses, snap.CacheHits)
	}
	if snap.LLMCalls != 1 {
		t.Errorf("Expected 1 LLM call recorded, got %d", snap.LLMCalls)
	}
}

func TestCall_DifferentArgsMiss(t *testing.T) {
	g := setupTestGuard(t)
	ctx := context.Background()

	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "out", nil
	}

	Call(g, ctx, CallSpec{Name: "generate", Args: []any{"a"}}, op)
	Call(g, ctx, CallSpec{Name: "generate", Args: []any{"b"}}, op)

	if calls != 2 {
		t.Errorf("Expected distinct arguments to bypass the cache, got %d invocations", calls)
	}
}

func TestCall_FailureNotCached(t *testing.T) {
	g := setupTestGuard(t)
	ctx := context.Background()
	spec := CallSpec{Name: "generate", Args: []any{"prompt"}}
	boom := errors.New("upstream failed")

	calls := 0
	if _, err := Call(g, ctx, spec, func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	}); !errors.Is(err, boom) {
		t.Fatalf("Expected the underlying error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts before exhaustion, got %d", calls)
	}

	// The failure must not have been cached: the next call goes out again
	got, err := Call(g, ctx, spec, func(ctx context.Context) (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	if got != "recovered" {
		t.Errorf("Expected the fresh result, got %q", got)
	}
}

func TestCall_RateLimitDenialSurfaces(t *testing.T) {
	g := setupTestGuard(t)
	g.Limiter = ratelimit.New(1, time.Minute, nil)
	ctx := context.Background()

	op := func(ctx context.Context) (int, error) { return 42, nil }

	if _, err := Call(g, ctx, CallSpec{Name: "first", RateKey: "llm_api"}, op); err != nil {
		t.Fatalf("Expected first call to pass, got %v", err)
	}

	invoked := false
	_, err := Call(g, ctx, CallSpec{Name: "second", RateKey: "llm_api"}, func(ctx context.Context) (int, error) {
		invoked = true
		return 0, nil
	})

	var rlErr *ratelimit.Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("Expected *ratelimit.Error, got %v", err)
	}
	if rlErr.RetryAfter <= 0 {
		t.Errorf("Expected a positive wait hint, got %v", rlErr.RetryAfter)
	}
	if invoked {
		t.Error("Expected the operation not to run past a denied limiter")
	}
}

func TestCall_CacheHitSkipsLimiter(t *testing.T) {
	g := setupTestGuard(t)
	g.Limiter = ratelimit.New(1, time.Minute, nil)
	ctx := context.Background()
	spec := CallSpec{Name: "generate", Args: []any{"prompt"}, RateKey: "llm_api"}

	op := func(ctx context.Context) (string, error) { return "out", nil }

	if _, err := Call(g, ctx, spec, op); err != nil {
		t.Fatalf("Expected first call to pass, got %v", err)
	}

	// The limiter is exhausted, but a cached result is still served
	if _, err := Call(g, ctx, spec, op); err != nil {
		t.Errorf("Expected cache hit to bypass the limiter, got %v", err)
	}
}

func TestCall_BreakerOpenFailsFast(t *testing.T) {
	g := setupTestGuard(t)
	g.Breaker = circuitbreaker.New(circuitbreaker.Config{Name: "llm_api", Threshold: 1, RecoveryTimeout: time.Minute})
	g.Retry = retry.Config{MaxAttempts: 1, Delay: time.Millisecond, Backoff: 2.0}
	ctx := context.Background()

	boom := errors.New("upstream failed")
	Call(g, ctx, CallSpec{Name: "trip"}, func(ctx context.Context) (string, error) {
		return "", boom
	})

	invoked := false
	_, err := Call(g, ctx, CallSpec{Name: "blocked"}, func(ctx context.Context) (string, error) {
		invoked = true
		return "", nil
	})

	var openErr *circuitbreaker.OpenError
	if !errors.As(err, &openErr) {
		t.Fatalf("Expected *circuitbreaker.OpenError, got %v", err)
	}
	if invoked {
		t.Error("Expected the operation not to run while the circuit is open")
	}

	// A rejection never reached the network and is not counted as a call
	snap := g.Metrics.Snapshot()
	if snap.APICalls != 1 {
		t.Errorf("Expected only the tripping call to be recorded, got %d", snap.APICalls)
	}
}

func TestCall_RetryExhaustionCountsOneBreakerFailure(t *testing.T) {
	g := setupTestGuard(t)
	g.Breaker = circuitbreaker.New(circuitbreaker.Config{Name: "llm_api", Threshold: 2, RecoveryTimeout: time.Minute})
	ctx := context.Background()

	boom := errors.New("upstream failed")
	Call(g, ctx, CallSpec{Name: "generate"}, func(ctx context.Context) (string, error) {
		return "", boom
	})

	// Three retry attempts failed, but the breaker saw one failure
	if got := g.Breaker.Failures(); got != 1 {
		t.Errorf("Expected exhausted retries to count as one breaker failure, got %d", got)
	}
	if g.Breaker.State() != circuitbreaker.StateClosed {
		t.Errorf("Expected CLOSED after one failure, got %s", g.Breaker.State())
	}
}

func TestCall_NilBreakerAndLimiter(t *testing.T) {
	g := setupTestGuard(t)
	g.Breaker = nil
	g.Limiter = nil

	got, err := Call(g, context.Background(), CallSpec{Name: "bare"}, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("Expected success without optional components, got %v", err)
	}
	if got != 7 {
		t.Errorf("Expected 7, got %d", got)
	}
}

func TestCall_MetricsKindRouting(t *testing.T) {
	g := setupTestGuard(t)
	ctx := context.Background()

	Call(g, ctx, CallSpec{Name: "a", Kind: KindLLM}, func(ctx context.Context) (int, error) { return 1, nil })
	Call(g, ctx, CallSpec{Name: "b", Kind: KindImage}, func(ctx context.Context) (int, error) { return 2, nil })
	Call(g, ctx, CallSpec{Name: "c"}, func(ctx context.Context) (int, error) { return 3, nil })

	snap := g.Metrics.Snapshot()
	if snap.LLMCalls != 1 {
		t.Errorf("Expected 1 LLM call, got %d", snap.LLMCalls)
	}
	if snap.ImageGenerationCount != 1 {
		t.Errorf("Expected 1 image call, got %d", snap.ImageGenerationCount)
	}
	if snap.APICalls != 1 {
		t.Errorf("Expected 1 API call, got %d", snap.APICalls)
	}
}
