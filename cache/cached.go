package cache

import (
	"context"
	"time"

	"coursegen-go/logcolors"
	"coursegen-go/metrics"

	log "github.com/sirupsen/logrus"
)

// Cached wraps fn with result caching keyed by name and the call arguments.
// On a hit the cached value is returned without invoking fn; on a miss fn
// runs and its result is stored with ttl. Failed results are never cached.
// Hits and misses are recorded on m when it is non-nil.
func Cached[T any](s *Store, m *metrics.Collector, name string, keyPrefix string, ttl time.Duration, fn func(args ...any) (T, error)) func(args ...any) (T, error) {
	return func(args ...any) (T, error) {
		key := callKey(name, keyPrefix, args)

		var cached T
		if s.Get(key, &cached) {
			if m != nil {
				m.RecordCacheHit()
			}
			log.Debugf("%s Cache hit for %s", logcolors.LogCache, name)
			return cached, nil
		}

		result, err := fn(args...)
		if err != nil {
			return result, err
		}

		if m != nil {
			m.RecordCacheMiss()
		}
		if err := s.Set(key, result, ttl); err != nil {
			log.Warnf("%s Failed to store result for %s: %v", logcolors.LogCache, name, err)
		}
		log.Debugf("%s Cache miss for %s, stored result", logcolors.LogCache, name)
		return result, nil
	}
}

// CachedContext is Cached for context-aware operations. The context is not
// part of the cache key.
func CachedContext[T any](s *Store, m *metrics.Collector, name string, keyPrefix string, ttl time.Duration, fn func(ctx context.Context, args ...any) (T, error)) func(ctx context.Context, args ...any) (T, error) {
	return func(ctx context.Context, args ...any) (T, error) {
		key := callKey(name, keyPrefix, args)

		var cached T
		if s.Get(key, &cached) {
			if m != nil {
				m.RecordCacheHit()
			}
			log.Debugf("%s Cache hit for %s", logcolors.LogCache, name)
			return cached, nil
		}

		result, err := fn(ctx, args...)
		if err != nil {
			return result, err
		}

		if m != nil {
			m.RecordCacheMiss()
		}
		if err := s.Set(key, result, ttl); err != nil {
			log.Warnf("%s Failed to store result for %s: %v", logcolors.LogCache, name, err)
		}
		log.Debugf("%s Cache miss for %s, stored result", logcolors.LogCache, name)
		return result, nil
	}
}

func callKey(name, keyPrefix string, args []any) string {
	key := Fingerprint(name, args, nil)
	if keyPrefix != "" {
		key = keyPrefix + "_" + key
	}
	return key
}
