// Package guard composes the resilience primitives around a network
// operation: cache lookup first, then rate-limit admission, then the circuit
// breaker wrapping retries around the call itself.
package guard

import (
	"context"
	"errors"
	"time"

	"coursegen-go/cache"
	"coursegen-go/circuitbreaker"
	"coursegen-go/logcolors"
	"coursegen-go/metrics"
	"coursegen-go/ratelimit"
	"coursegen-go/retry"

	log "github.com/sirupsen/logrus"
)

// Kind selects which metrics counters a call reports into.
type Kind string

const (
	KindAPI   Kind = "api"
	KindLLM   Kind = "llm"
	KindImage Kind = "image"
)

// Guard holds explicitly constructed resilience instances. Collaborators
// build one per protected dependency and hold it for the process lifetime;
// there is no hidden global state.
type Guard struct {
	Cache   *cache.Store
	Limiter *ratelimit.Limiter
	Breaker *circuitbreaker.CircuitBreaker
	Retry   retry.Config
	Metrics *metrics.Collector
}

// CallSpec describes one protected call.
type CallSpec struct {
	Name      string         // operation name, part of the cache fingerprint
	Args      []any          // positional arguments, part of the fingerprint
	Kwargs    map[string]any // keyword arguments, sorted into the fingerprint
	KeyPrefix string         // optional cache key prefix
	RateKey   string         // rate-limit key; empty uses the limiter default
	TTL       time.Duration  // cache TTL; non-positive uses the store default
	Kind      Kind           // metrics bucket; empty counts as KindAPI
}

// Call executes op under the guard's full composition. A cache hit returns
// immediately without touching the limiter or the network. Rate-limit and
// circuit-open denials surface to the caller unchanged; retry exhaustion
// surfaces the last underlying error. Results of failed calls are never
// cached, and cache write failures are logged rather than surfaced.
func Call[T any](g *Guard, ctx context.Context, spec CallSpec, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	key := cache.Fingerprint(spec.Name, spec.Args, spec.Kwargs)
	if spec.KeyPrefix != "" {
		key = spec.KeyPrefix + "_" + key
	}

	if g.Cache != nil {
		var cached T
		if g.Cache.Get(key, &cached) {
			if g.Metrics != nil {
				g.Metrics.RecordCacheHit()
			}
			log.Debugf("%s Cache hit for %s", logcolors.LogGuard, spec.Name)
			return cached, nil
		}
	}

	if g.Limiter != nil {
		if err := g.Limiter.Check(spec.RateKey); err != nil {
			log.Warnf("%s Rate limit denied %s: %v", logcolors.LogGuard, spec.Name, err)
			return zero, err
		}
	}

	var result T
	start := time.Now()
	err := g.protect(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	duration := time.Since(start)

	// Fail-fast rejections never reached the network, so they are not
	// counted as calls.
	var openErr *circuitbreaker.OpenError
	if g.Metrics != nil && !errors.As(err, &openErr) {
		g.record(spec.Kind, duration, err)
	}

	if err != nil {
		return zero, err
	}

	if g.Cache != nil {
		if g.Metrics != nil {
			g.Metrics.RecordCacheMiss()
		}
		if err := g.Cache.Set(key, result, spec.TTL); err != nil {
			log.Warnf("%s Failed to cache result for %s: %v", logcolors.LogGuard, spec.Name, err)
		}
	}

	return result, nil
}

// protect runs op under the breaker with retries inside it, so an exhausted
// retry sequence counts as a single breaker failure.
func (g *Guard) protect(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := func() error {
		return retry.DoContext(ctx, g.Retry, func() error {
			return op(ctx)
		})
	}

	if g.Breaker == nil {
		return attempt()
	}
	return g.Breaker.Do(attempt)
}

func (g *Guard) record(kind Kind, duration time.Duration, err error) {
	switch kind {
	case KindLLM:
		g.Metrics.RecordLLMCall(duration, err)
	case KindImage:
		g.Metrics.RecordImageGeneration(duration, err)
	default:
		g.Metrics.RecordAPICall(duration, err)
	}
}
