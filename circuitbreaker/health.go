package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// CheckResult is the outcome of a single health probe.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Report aggregates all probe results. Status is "healthy" iff every probe
// passed.
type Report struct {
	Status    string                 `json:"status"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}

// HealthChecker is a named registry of dependency probes. A probe returns
// nil when its dependency is healthy.
type HealthChecker struct {
	mu     sync.Mutex
	checks map[string]func() error
}

// NewHealthChecker creates an empty probe registry.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{checks: make(map[string]func() error)}
}

// Register adds (or replaces) a named probe.
func (h *HealthChecker) Register(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// CheckHealth runs every registered probe. A probe that panics counts as
// unhealthy with the panic value recorded; one failing probe makes the
// overall status unhealthy.
func (h *HealthChecker) CheckHealth() Report {
	h.mu.Lock()
	checks := make(map[string]func() error, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.Unlock()

	report := Report{
		Status:    "healthy",
		Checks:    make(map[string]CheckResult, len(checks)),
		Timestamp: time.Now(),
	}

	for name, check := range checks {
		result := runCheck(name, check)
		report.Checks[name] = result
		if !result.Healthy {
			report.Status = "unhealthy"
		}
	}

	return report
}

func runCheck(name string, check func() error) (result CheckResult) {
	result = CheckResult{Name: name, Healthy: true}

	defer func() {
		if r := recover(); r != nil {
			log.Warnf("%s Probe %s panicked: %v", logcolors.LogHealthCheck, name, r)
			result.Healthy = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if err := check(); err != nil {
		result.Healthy = false
		result.Error = err.Error()
	}
	return result
}
