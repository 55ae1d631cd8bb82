// Package circuitbreaker trips calls to a failing dependency open so
// the platform sheds load instead of queueing on a dead service.
//
// The breaker moves between three states: closed (calls pass),
// open (calls fail fast), and half-open (a probe window after the
// cool-off, where a bounded number of calls test recovery).
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker's position.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen rejects a call while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrTooManyRequests rejects a call when the half-open probe
	// window is already full.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Settings tunes one breaker. Zero fields take the documented
// defaults.
type Settings struct {
	// Name labels the breaker in state-change notifications.
	Name string

	// TripAfter is the run of consecutive failures that opens the
	// breaker. Default 5.
	TripAfter int

	// CloseAfter is the run of consecutive half-open successes that
	// closes it again. Default 2.
	CloseAfter int

	// CoolOff is how long the breaker stays open before probing.
	// Default 30s.
	CoolOff time.Duration

	// ProbeLimit bounds calls admitted during one half-open window.
	// Keep it at or above CloseAfter or the window cannot close.
	// Default 2.
	ProbeLimit int

	// OnStateChange, when set, observes every transition.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether an error counts against the breaker.
	// Nil counts every non-nil error.
	IsFailure func(error) bool
}

func (s Settings) withDefaults() Settings {
	if s.TripAfter <= 0 {
		s.TripAfter = 5
	}
	if s.CloseAfter <= 0 {
		s.CloseAfter = 2
	}
	if s.CoolOff <= 0 {
		s.CoolOff = 30 * time.Second
	}
	if s.ProbeLimit <= 0 {
		s.ProbeLimit = 2
	}
	return s
}

// CircuitBreaker guards calls to one dependency. Safe for concurrent
// use.
type CircuitBreaker struct {
	settings Settings

	mu          sync.Mutex
	state       State
	failRun     int
	successRun  int
	probesInUse int
	openedAt    time.Time
}

// New builds a breaker from settings.
func New(settings Settings) *CircuitBreaker {
	return &CircuitBreaker{settings: settings.withDefaults()}
}

// Execute runs op if the breaker admits the call and records the
// outcome. While open it returns ErrCircuitOpen without calling op.
func (b *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := op(ctx)
	b.record(err)
	return err
}

// admit decides whether a call may proceed, advancing open → half-open
// when the cool-off has elapsed.
func (b *CircuitBreaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(b.openedAt) < b.settings.CoolOff {
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.probesInUse = 1
		return nil

	case StateHalfOpen:
		if b.probesInUse >= b.settings.ProbeLimit {
			return ErrTooManyRequests
		}
		b.probesInUse++
		return nil
	}

	return ErrCircuitOpen
}

// record feeds a call outcome back into the state machine.
func (b *CircuitBreaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil
	if failed && b.settings.IsFailure != nil {
		failed = b.settings.IsFailure(err)
	}

	if failed {
		b.failRun++
		b.successRun = 0
		b.openedAt = time.Now()

		// A half-open failure re-opens immediately; a closed breaker
		// waits for the full run.
		if b.state == StateHalfOpen || (b.state == StateClosed && b.failRun >= b.settings.TripAfter) {
			b.transition(StateOpen)
		}
		return
	}

	b.successRun++
	b.failRun = 0
	if b.state == StateHalfOpen && b.successRun >= b.settings.CloseAfter {
		b.transition(StateClosed)
	}
}

// transition must be called with the mutex held.
func (b *CircuitBreaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.failRun = 0
	b.successRun = 0
	b.probesInUse = 0

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.settings.Name, from, to)
	}
}

// State returns the breaker's current position.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failRun = 0
	b.successRun = 0
	b.probesInUse = 0
}

// Presets tuned for the platform's dependencies.

// DriveBreaker guards the storage provider. Link resolution degrades
// gracefully, so it tolerates more failures and recovers fast.
func DriveBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:          "drive-api",
		TripAfter:     5,
		CloseAfter:    1,
		CoolOff:       30 * time.Second,
		ProbeLimit:    2,
		OnStateChange: onStateChange,
	})
}

// DatabaseBreaker guards direct database calls with a short cool-off.
func DatabaseBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:          "database",
		TripAfter:     3,
		CloseAfter:    1,
		CoolOff:       10 * time.Second,
		OnStateChange: onStateChange,
	})
}
