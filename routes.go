package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the diagnostics surface
func (a *app) setupRoutes(router *mux.Router) {
	// Health and metrics endpoints
	router.HandleFunc("/health", a.getHealthStatus)
	router.HandleFunc("/metrics", a.getMetrics)
	router.HandleFunc("/metrics/reset", a.resetMetrics)

	// Cache management endpoints
	router.HandleFunc("/cache/stats", a.getCacheStats)
	router.HandleFunc("/cache/clear", a.clearCache)
	router.HandleFunc("/cache/cleanup", a.cleanupCache)

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", a.getCircuitBreakerStatus)
	router.HandleFunc("/circuit-breaker/reset", a.resetCircuitBreaker)

	// Help endpoint
	router.HandleFunc("/", a.helpHandler)
}
