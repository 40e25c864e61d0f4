// Package retry wraps fallible operations with bounded re-attempts and
// exponential backoff. No jitter is applied: delays are deterministic.
package retry

import (
	"context"
	"time"

	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// Config holds retry configuration.
type Config struct {
	MaxAttempts int           // Total attempts, including the first
	Delay       time.Duration // Wait before the first retry
	Backoff     float64       // Delay multiplier between retries
}

// DefaultConfig returns the defaults used by the generation clients.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       time.Second,
		Backoff:     2.0,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.Backoff <= 0 {
		c.Backoff = 2.0
	}
	return c
}

// Do invokes op up to cfg.MaxAttempts times, sleeping cfg.Delay before each
// retry and multiplying the delay by cfg.Backoff. The error from the final
// attempt is returned unchanged.
func Do(cfg Config, op func() error) error {
	return run(cfg, op, func(d time.Duration) error {
		time.Sleep(d)
		return nil
	})
}

// DoContext is Do with a context-aware wait: cancellation during a backoff
// pause aborts remaining attempts and returns the context error.
func DoContext(ctx context.Context, cfg Config, op func() error) error {
	return run(cfg, op, func(d time.Duration) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}

func run(cfg Config, op func() error, wait func(time.Duration) error) error {
	cfg = cfg.withDefaults()

	var lastErr error
	delay := cfg.Delay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		log.Warnf("%s Attempt %d failed: %v. Retrying in %v...", logcolors.LogRetry, attempt, lastErr, delay)
		if err := wait(delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * cfg.Backoff)
	}

	return lastErr
}
