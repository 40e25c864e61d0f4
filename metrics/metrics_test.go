package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestCollector_ErrorRate(t *testing.T) {
	c := New()

	boom := errors.New("upstream failed")
	for i := 0; i < 8; i++ {
		c.RecordAPICall(10*time.Millisecond, nil)
	}
	for i := 0; i < 2; i++ {
		c.RecordAPICall(10*time.Millisecond, boom)
	}

	snap := c.Snapshot()
	if snap.APICalls != 10 {
		t.Errorf("Expected 10 API calls, got %d", snap.APICalls)
	}
	if snap.APIErrors != 2 {
		t.Errorf("Expected 2 API errors, got %d", snap.APIErrors)
	}
	if snap.ErrorRate != 0.2 {
		t.Errorf("Expected error rate exactly 0.2, got %v", snap.ErrorRate)
	}
}

func TestCollector_ZeroRates(t *testing.T) {
	c := New()
	snap := c.Snapshot()

	if snap.ErrorRate != 0 {
		t.Errorf("Expected 0 error rate with no calls, got %v", snap.ErrorRate)
	}
	if snap.CacheHitRate != 0 {
		t.Errorf("Expected 0 cache hit rate with no cache ops, got %v", snap.CacheHitRate)
	}
	if snap.AverageProcessingTime != 0 {
		t.Errorf("Expected 0 average processing time with no calls, got %v", snap.AverageProcessingTime)
	}
}

func TestCollector_CacheHitRate(t *testing.T) {
	c := New()

	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()

	snap := c.Snapshot()
	if snap.CacheHitRate != 0.75 {
		t.Errorf("Expected cache hit rate 0.75, got %v", snap.CacheHitRate)
	}
}

func TestCollector_AverageProcessingTime(t *testing.T) {
	c := New()

	c.RecordLLMCall(100*time.Millisecond, nil)
	c.RecordImageGeneration(300*time.Millisecond, nil)

	snap := c.Snapshot()
	if snap.LLMCalls != 1 || snap.ImageGenerationCount != 1 {
		t.Fatalf("Expected one call per kind, got llm=%d image=%d", snap.LLMCalls, snap.ImageGenerationCount)
	}
	if snap.TotalProcessingTime != 0.4 {
		t.Errorf("Expected 0.4s total processing time, got %v", snap.TotalProcessingTime)
	}
	if snap.AverageProcessingTime != 0.2 {
		t.Errorf("Expected 0.2s average processing time, got %v", snap.AverageProcessingTime)
	}
}

func TestCollector_ErrorRateAcrossKinds(t *testing.T) {
	c := New()

	c.RecordAPICall(time.Millisecond, nil)
	c.RecordLLMCall(time.Millisecond, errors.New("llm failed"))
	c.RecordImageGeneration(time.Millisecond, errors.New("image failed"))
	c.RecordImageGeneration(time.Millisecond, nil)

	snap := c.Snapshot()
	if snap.ErrorRate != 0.5 {
		t.Errorf("Expected error rate 0.5 across all kinds, got %v", snap.ErrorRate)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := New()

	c.RecordAPICall(time.Millisecond, errors.New("fail"))
	c.RecordCacheHit()
	c.RecordLLMCall(time.Millisecond, nil)

	c.Reset()

	snap := c.Snapshot()
	if snap.APICalls != 0 || snap.APIErrors != 0 || snap.CacheHits != 0 || snap.LLMCalls != 0 {
		t.Errorf("Expected all counters zeroed after reset, got %+v", snap)
	}
	if snap.TotalProcessingTime != 0 {
		t.Errorf("Expected processing time zeroed, got %v", snap.TotalProcessingTime)
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	c := New()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				c.RecordAPICall(time.Microsecond, nil)
				c.RecordCacheHit()
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	snap := c.Snapshot()
	if snap.APICalls != 800 {
		t.Errorf("Expected 800 API calls, got %d", snap.APICalls)
	}
	if snap.CacheHits != 800 {
		t.Errorf("Expected 800 cache hits, got %d", snap.CacheHits)
	}
}

func TestGet_ReturnsProcessWideInstance(t *testing.T) {
	if Get() != Get() {
		t.Error("Expected Get to return the same collector instance")
	}
}
