package middleware

import (
	"net"
	"net/http"
	"sync"

	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// IPRateLimiter manages a token-bucket limiter per client IP for the admin
// HTTP surface. The core sliding-window limiter guards outbound API calls;
// this one only protects the diagnostics server itself.
type IPRateLimiter struct {
	ips   map[string]*rate.Limiter
	mu    sync.Mutex
	rps   rate.Limit
	burst int
}

// NewIPRateLimiter creates a per-IP rate limiter.
func NewIPRateLimiter(rps rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*rate.Limiter),
		rps:   rps,
		burst: burst,
	}
}

// GetLimiter returns the limiter for ip, creating it on first sight.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rps, i.burst)
		i.ips[ip] = limiter
	}
	return limiter
}

// RateLimitMiddleware rejects requests exceeding the per-IP limit with 429.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.GetLimiter(ip).Allow() {
				log.Warnf("%s Too many requests from %s for %s", logcolors.LogRateLimit, ip, r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Too many requests"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
