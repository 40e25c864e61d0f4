package circuitbreaker

import (
	"fmt"
	"sync"
	"time"

	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation, calls pass through
	StateOpen                  // Circuit tripped, calls fail fast
	StateHalfOpen              // Testing if the downstream recovered
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// OpenError is returned when a call is rejected because the circuit is open.
// The protected operation is never invoked. The call becomes possible again
// after RetryAfter.
type OpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("circuit breaker %q is open, service unavailable for %v", e.Name, e.RetryAfter)
}

// CircuitBreaker tracks consecutive failures of a protected call-site and
// fails fast once a threshold is exceeded. The OPEN to HALF-OPEN transition
// is evaluated lazily whenever state is read; there is no background timer.
type CircuitBreaker struct {
	name            string
	threshold       int           // consecutive failures before opening
	recoveryTimeout time.Duration // how long to stay open

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time

	now func() time.Time
}

// Config holds circuit breaker configuration
type Config struct {
	Name            string        // Name for logging and health probes
	Threshold       int           // Consecutive failures before opening
	RecoveryTimeout time.Duration // How long to stay open before a trial call
}

// New creates a new circuit breaker
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 5 * time.Minute
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &CircuitBreaker{
		name:            cfg.Name,
		threshold:       cfg.Threshold,
		recoveryTimeout: cfg.RecoveryTimeout,
		state:           StateClosed,
		now:             time.Now,
	}
}

// effectiveState computes the state visible at instant now, applying the
// lazy OPEN to HALF-OPEN transition. Caller holds cb.mu.
func (cb *CircuitBreaker) effectiveState(now time.Time) State {
	if cb.state == StateOpen && !cb.lastFailure.IsZero() && now.Sub(cb.lastFailure) >= cb.recoveryTimeout {
		cb.state = StateHalfOpen
		log.Infof("%s Recovery timeout passed, transitioning to HALF-OPEN", logcolors.CircuitBreakerPrefix(cb.name))
	}
	return cb.state
}

// State returns the current state, transitioning OPEN to HALF-OPEN if the
// recovery timeout has elapsed since the last failure.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.effectiveState(cb.now())
}

// Do executes op with circuit breaker protection. When the circuit is open
// it returns an *OpenError immediately without invoking op. A success resets
// the failure count and closes a half-open circuit; a failure increments the
// count, opens the circuit at the threshold, and is returned unchanged.
func (cb *CircuitBreaker) Do(op func() error) error {
	cb.mu.Lock()
	if cb.effectiveState(cb.now()) == StateOpen {
		cb.mu.Unlock()
		return &OpenError{Name: cb.name, RetryAfter: cb.RetryIn()}
	}
	cb.mu.Unlock()

	err := op()
	if err != nil {
		cb.onFailure()
		return err
	}

	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
		log.Infof("%s Trial call succeeded, transitioning to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		log.Warnf("%s Trial call failed, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		return
	}

	if cb.failures >= cb.threshold && cb.state == StateClosed {
		cb.state = StateOpen
		log.Warnf("%s Threshold reached (%d failures), transitioning to OPEN (recovery: %v)",
			logcolors.CircuitBreakerPrefix(cb.name), cb.failures, cb.recoveryTimeout)
	}
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// RetryIn returns how long until an open circuit admits a trial call.
// Returns 0 when the circuit is not open.
func (cb *CircuitBreaker) RetryIn() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.effectiveState(cb.now()) != StateOpen {
		return 0
	}

	remaining := cb.recoveryTimeout - cb.now().Sub(cb.lastFailure)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.lastFailure = time.Time{}
	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
}

// Healthy is a health probe: it fails while the circuit is open.
func (cb *CircuitBreaker) Healthy() error {
	if cb.State() == StateOpen {
		return fmt.Errorf("circuit breaker %q is open", cb.name)
	}
	return nil
}
