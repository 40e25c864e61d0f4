// Package ratelimit implements a sliding-window rate limiter: admitted-call
// timestamps are tracked per key over a trailing window, and capacity
// regenerates continuously as old timestamps age out. This is a hard cutoff,
// not a token bucket.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Error reports a denied admission. It always carries a hint for how long
// the caller should wait before the oldest admitted call ages out.
type Error struct {
	Key        string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded for %q, try again in %.1fs", e.Key, e.RetryAfter.Seconds())
}

// Limiter bounds calls per key within a trailing time window.
type Limiter struct {
	maxRequests int
	window      time.Duration
	keyFunc     func() string

	mu       sync.Mutex
	requests map[string][]time.Time

	now func() time.Time
}

// New creates a limiter allowing maxRequests per window. keyFunc derives the
// key when none is passed to the admission methods; nil means a single
// shared key.
func New(maxRequests int, window time.Duration, keyFunc func() string) *Limiter {
	if keyFunc == nil {
		keyFunc = func() string { return "default" }
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		keyFunc:     keyFunc,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

func (l *Limiter) key(key string) string {
	if key == "" {
		return l.keyFunc()
	}
	return key
}

// prune drops timestamps at or before now-window. Caller holds l.mu.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	requests := l.requests[key]
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(requests) && !requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		requests = requests[i:]
		l.requests[key] = requests
	}
	return requests
}

// IsAllowed reports whether a call is admitted under the current limit and,
// if so, records it. The prune/check/record sequence runs under one lock, so
// concurrent callers on the same key cannot over-admit.
func (l *Limiter) IsAllowed(key string) bool {
	key = l.key(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	requests := l.prune(key, now)

	if len(requests) < l.maxRequests {
		l.requests[key] = append(requests, now)
		return true
	}

	return false
}

// WaitTime returns how long until the next call would be admitted: zero when
// under the limit, otherwise the time left until the oldest admitted call
// leaves the window.
func (l *Limiter) WaitTime(key string) time.Duration {
	key = l.key(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	requests := l.prune(key, now)

	if len(requests) < l.maxRequests {
		return 0
	}

	wait := l.window - now.Sub(requests[0])
	if wait < 0 {
		wait = 0
	}
	return wait
}

// Check admits and records a call, or returns an *Error carrying the wait
// hint when the limit is exhausted.
func (l *Limiter) Check(key string) error {
	if l.IsAllowed(key) {
		return nil
	}
	return &Error{Key: l.key(key), RetryAfter: l.WaitTime(key)}
}
