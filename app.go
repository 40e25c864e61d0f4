package main

import (
	"time"

	"coursegen-go/cache"
	"coursegen-go/circuitbreaker"
	"coursegen-go/config"
	"coursegen-go/guard"
	"coursegen-go/logcolors"
	"coursegen-go/metrics"
	"coursegen-go/ratelimit"
	"coursegen-go/retry"
	"coursegen-go/services/imagegen"
	"coursegen-go/services/textgen"

	log "github.com/sirupsen/logrus"
)

// app wires the resilience instances and collaborators together. Everything
// is constructed explicitly here and lives for the process lifetime.
type app struct {
	cfg     config.Config
	store   *cache.Store
	metrics *metrics.Collector
	checker *circuitbreaker.HealthChecker

	llmBreaker   *circuitbreaker.CircuitBreaker
	imageBreaker *circuitbreaker.CircuitBreaker

	textGen  *textgen.Client
	imageGen *imagegen.Client
}

// loadConfig resolves the effective configuration, applying the --config
// YAML override when given.
func loadConfig() (config.Config, error) {
	if cfgFile == "" {
		return config.Get(), nil
	}

	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return cfg, err
	}
	log.Infof("%s Loaded config overrides from %s", logcolors.LogConfig, cfgFile)
	return cfg, nil
}

// newApp builds the full object graph from cfg.
func newApp(cfg config.Config) (*app, error) {
	store, err := cache.Open(cfg.Cache.Dir, time.Duration(cfg.Cache.TTLInSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	collector := metrics.Get()
	recoveryTimeout := time.Duration(cfg.Resilience.HealthCheckIntervalInSeconds) * time.Second
	window := time.Duration(cfg.RateLimit.WindowInSeconds) * time.Second
	retryCfg := retry.Config{
		MaxAttempts: cfg.Resilience.MaxRetries,
		Delay:       time.Second,
		Backoff:     2.0,
	}

	llmBreaker := circuitbreaker.New(circuitbreaker.Config{
		Name:            "llm_api",
		Threshold:       cfg.Resilience.CircuitBreakerThreshold,
		RecoveryTimeout: recoveryTimeout,
	})
	imageBreaker := circuitbreaker.New(circuitbreaker.Config{
		Name:            "image_api",
		Threshold:       cfg.Resilience.CircuitBreakerThreshold,
		RecoveryTimeout: recoveryTimeout,
	})

	llmGuard := &guard.Guard{
		Cache:   store,
		Limiter: ratelimit.New(cfg.RateLimit.Requests, window, func() string { return "llm_api" }),
		Breaker: llmBreaker,
		Retry:   retryCfg,
		Metrics: collector,
	}

	// Image generation is metered more strictly than text.
	imageRequests := cfg.RateLimit.Requests / 2
	if imageRequests < 1 {
		imageRequests = 1
	}
	imageGuard := &guard.Guard{
		Cache:   store,
		Limiter: ratelimit.New(imageRequests, window, func() string { return "image_api" }),
		Breaker: imageBreaker,
		Retry:   retryCfg,
		Metrics: collector,
	}

	checker := circuitbreaker.NewHealthChecker()
	checker.Register("llm_api", llmBreaker.Healthy)
	checker.Register("image_api", imageBreaker.Healthy)
	checker.Register("cache", func() error {
		store.Stats() // exercises the database
		return nil
	})

	a := &app{
		cfg:          cfg,
		store:        store,
		metrics:      collector,
		checker:      checker,
		llmBreaker:   llmBreaker,
		imageBreaker: imageBreaker,
		textGen:      textgen.New(cfg.TextGen.BaseURL, cfg.TextGen.APIKey, llmGuard),
		imageGen:     imagegen.New(cfg.ImageGen.BaseURL, cfg.ImageGen.APIKey, 1024, 512, imageGuard),
	}

	return a, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Warnf("%s Failed to close cache: %v", logcolors.LogCache, err)
	}
}
