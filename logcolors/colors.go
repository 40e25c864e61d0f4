package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Cache-related log prefixes
const (
	LogCacheInit    = Blue + "[Cache:Init]" + Reset
	LogCache        = Blue + "[Cache]" + Reset
	LogCacheClear   = Blue + "[Cache:Clear]" + Reset
	LogCacheCleanup = Blue + "[Cache:Cleanup]" + Reset
)

// Resilience log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogRetry     = Purple + "[Retry]" + Reset
	LogGuard     = Purple + "[Guard]" + Reset
	LogBatch     = Cyan + "[Batch]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// Collaborator log prefixes
const (
	LogTextGen  = Green + "[TextGen]" + Reset
	LogImageGen = Green + "[ImageGen]" + Reset
)

// Server/Init log prefixes
const (
	LogServer      = Green + "[Server]" + Reset
	LogConfig      = Cyan + "[Config]" + Reset
	LogMetrics     = Blue + "[Metrics]" + Reset
	LogHealthCheck = Cyan + "[Health Check]" + Reset
	LogAPIKey      = Purple + "[APIKey]" + Reset
)
