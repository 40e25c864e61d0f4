package metrics

import (
	"sync/atomic"
	"time"
)

// Collector accumulates call, error and cache counters from the resilience
// components. It is a passive aggregator: it never participates in control
// flow and is safe to mutate from concurrent call sites.
type Collector struct {
	startTime atomic.Int64 // unix nanos

	apiCalls    atomic.Int64
	apiErrors   atomic.Int64
	llmCalls    atomic.Int64
	llmErrors   atomic.Int64
	imageCalls  atomic.Int64
	imageErrors atomic.Int64

	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	totalProcessingTime atomic.Int64 // nanos
}

// Global collector instance
var global = New()

// Get returns the process-wide collector.
func Get() *Collector {
	return global
}

// New creates an independent collector. Tests use this to avoid the
// process-wide instance.
func New() *Collector {
	c := &Collector{}
	c.startTime.Store(time.Now().UnixNano())
	return c
}

// RecordAPICall records a generic API call and its duration. A non-nil err
// also counts an error.
func (c *Collector) RecordAPICall(duration time.Duration, err error) {
	c.apiCalls.Add(1)
	c.totalProcessingTime.Add(int64(duration))
	if err != nil {
		c.apiErrors.Add(1)
	}
}

// RecordLLMCall records a text-generation call and its duration.
func (c *Collector) RecordLLMCall(duration time.Duration, err error) {
	c.llmCalls.Add(1)
	c.totalProcessingTime.Add(int64(duration))
	if err != nil {
		c.llmErrors.Add(1)
	}
}

// RecordImageGeneration records an image-generation call and its duration.
func (c *Collector) RecordImageGeneration(duration time.Duration, err error) {
	c.imageCalls.Add(1)
	c.totalProcessingTime.Add(int64(duration))
	if err != nil {
		c.imageErrors.Add(1)
	}
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Add(1)
}

// Snapshot is a point-in-time view of all counters plus derived rates.
type Snapshot struct {
	APICalls              int64   `json:"api_calls"`
	APIErrors             int64   `json:"api_errors"`
	LLMCalls              int64   `json:"llm_calls"`
	LLMErrors             int64   `json:"llm_errors"`
	ImageGenerationCount  int64   `json:"image_generation_count"`
	ImageGenerationErrors int64   `json:"image_generation_errors"`
	CacheHits             int64   `json:"cache_hits"`
	CacheMisses           int64   `json:"cache_misses"`
	TotalProcessingTime   float64 `json:"total_processing_time"`
	ErrorRate             float64 `json:"error_rate"`
	CacheHitRate          float64 `json:"cache_hit_rate"`
	AverageProcessingTime float64 `json:"average_processing_time"`
	UptimeSeconds         float64 `json:"uptime_seconds"`
}

// Snapshot returns the current counters and derived rates. Rates are 0 when
// there is nothing to divide by.
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		APICalls:              c.apiCalls.Load(),
		APIErrors:             c.apiErrors.Load(),
		LLMCalls:              c.llmCalls.Load(),
		LLMErrors:             c.llmErrors.Load(),
		ImageGenerationCount:  c.imageCalls.Load(),
		ImageGenerationErrors: c.imageErrors.Load(),
		CacheHits:             c.cacheHits.Load(),
		CacheMisses:           c.cacheMisses.Load(),
	}

	totalTime := time.Duration(c.totalProcessingTime.Load())
	s.TotalProcessingTime = totalTime.Seconds()

	totalOps := s.APICalls + s.LLMCalls + s.ImageGenerationCount
	totalErrors := s.APIErrors + s.LLMErrors + s.ImageGenerationErrors
	if totalOps > 0 {
		s.ErrorRate = float64(totalErrors) / float64(totalOps)
		s.AverageProcessingTime = totalTime.Seconds() / float64(totalOps)
	}

	totalCacheOps := s.CacheHits + s.CacheMisses
	if totalCacheOps > 0 {
		s.CacheHitRate = float64(s.CacheHits) / float64(totalCacheOps)
	}

	s.UptimeSeconds = time.Since(time.Unix(0, c.startTime.Load())).Seconds()
	return s
}

// Reset zeroes all counters and restarts the uptime clock.
func (c *Collector) Reset() {
	c.apiCalls.Store(0)
	c.apiErrors.Store(0)
	c.llmCalls.Store(0)
	c.llmErrors.Store(0)
	c.imageCalls.Store(0)
	c.imageErrors.Store(0)
	c.cacheHits.Store(0)
	c.cacheMisses.Store(0)
	c.totalProcessingTime.Store(0)
	c.startTime.Store(time.Now().UnixNano())
}
