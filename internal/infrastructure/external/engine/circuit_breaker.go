package engine

import (
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CIRCUIT BREAKER
// ══════════════════════════════════════════════════════════════════════════════

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	// BreakerClosed - requests flow normally.
	BreakerClosed BreakerState = iota

	// BreakerOpen - requests are rejected immediately.
	BreakerOpen

	// BreakerHalfOpen - a limited number of probe requests are allowed.
	BreakerHalfOpen
)

// String returns the string representation of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig contains configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes in half-open
	// before closing
	SuccessThreshold int

	// OpenTimeout is how long the breaker stays open before probing
	OpenTimeout time.Duration

	// HalfOpenMaxCalls is the number of probe calls allowed in half-open
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig returns sensible defaults for the engine API.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// CircuitBreaker protects the engine API from being hammered while it
// is failing. When the engine is down, quiz generation and scoring fail
// fast instead of piling up on a dead upstream.
type CircuitBreaker struct {
	mu sync.Mutex

	config CircuitBreakerConfig

	state            BreakerState
	failures         int
	successes        int
	halfOpenCalls    int
	lastStateChange  time.Time
	lastFailureTime  time.Time
	totalTrips       int
	totalRejections  int
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config:          config,
		state:           BreakerClosed,
		lastStateChange: time.Now(),
	}
}

// Allow checks whether a request may proceed.
// Returns ErrCircuitOpen if the breaker is open.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return nil

	case BreakerOpen:
		if time.Since(cb.lastStateChange) >= cb.config.OpenTimeout {
			cb.transition(BreakerHalfOpen)
			cb.halfOpenCalls = 1
			return nil
		}
		cb.totalRejections++
		return ErrCircuitOpen

	case BreakerHalfOpen:
		if cb.halfOpenCalls < cb.config.HalfOpenMaxCalls {
			cb.halfOpenCalls++
			return nil
		}
		cb.totalRejections++
		return ErrCircuitOpen
	}

	return nil
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		cb.failures = 0

	case BreakerHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transition(BreakerClosed)
		}
	}
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = time.Now()

	switch cb.state {
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transition(BreakerOpen)
			cb.totalTrips++
		}

	case BreakerHalfOpen:
		// A failed probe reopens immediately.
		cb.transition(BreakerOpen)
		cb.totalTrips++
	}
}

// transition moves to a new state. Must be called with lock held.
func (cb *CircuitBreaker) transition(to BreakerState) {
	cb.state = to
	cb.lastStateChange = time.Now()
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenCalls = 0
}

// Reset returns the breaker to the closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(BreakerClosed)
}

// CircuitBreakerStatus contains the current status of the breaker.
type CircuitBreakerStatus struct {
	State           string
	Failures        int
	TotalTrips      int
	TotalRejections int
	LastFailure     time.Time
}

// Status returns the current status of the breaker.
func (cb *CircuitBreaker) Status() CircuitBreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStatus{
		State:           cb.state.String(),
		Failures:        cb.failures,
		TotalTrips:      cb.totalTrips,
		TotalRejections: cb.totalRejections,
		LastFailure:     cb.lastFailureTime,
	}
}
