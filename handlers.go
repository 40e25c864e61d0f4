package main

import (
	"net/http"

	"coursegen-go/circuitbreaker"
	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
)

func (a *app) getHealthStatus(w http.ResponseWriter, r *http.Request) {
	report := a.checker.CheckHealth()

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func (a *app) getMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.metrics.Snapshot())
}

func (a *app) resetMetrics(w http.ResponseWriter, r *http.Request) {
	a.metrics.Reset()
	log.Infof("%s Metrics reset", logcolors.LogMetrics)
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

func (a *app) getCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.store.Stats())
}

func (a *app) clearCache(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	cleared := a.store.Clear(pattern)
	writeJSON(w, http.StatusOK, map[string]any{
		"cleared": cleared,
		"pattern": pattern,
	})
}

func (a *app) cleanupCache(w http.ResponseWriter, r *http.Request) {
	cleaned := a.store.CleanupExpired()
	writeJSON(w, http.StatusOK, map[string]any{"cleaned": cleaned})
}

func breakerStatus(cb *circuitbreaker.CircuitBreaker) map[string]any {
	return map[string]any{
		"state":    cb.State().String(),
		"failures": cb.Failures(),
		"retry_in": cb.RetryIn().String(),
	}
}

func (a *app) getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		a.llmBreaker.Name():   breakerStatus(a.llmBreaker),
		a.imageBreaker.Name(): breakerStatus(a.imageBreaker),
	})
}

func (a *app) resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		a.llmBreaker.Reset()
		a.imageBreaker.Reset()
	} else if cb := a.breakerByName(name); cb != nil {
		cb.Reset()
	} else {
		writeError(w, http.StatusNotFound, "unknown circuit breaker: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reset", "name": name})
}

func (a *app) helpHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"endpoints": []string{
			"/health",
			"/metrics",
			"/metrics/reset",
			"/cache/stats",
			"/cache/clear?pattern=",
			"/cache/cleanup",
			"/circuit-breaker",
			"/circuit-breaker/reset?name=",
		},
	})
}
