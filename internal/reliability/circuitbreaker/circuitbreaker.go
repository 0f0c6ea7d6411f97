package circuitbreaker

import (
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "half_open"
	}
}

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) { cb.now = now }
}

// WithStateChange registers a callback for state transitions. It runs
// outside the breaker's lock.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(cb *CircuitBreaker) { cb.onStateChange = fn }
}

// CircuitBreaker fails fast once a dependency has failed failureThreshold
// times in a row, and probes it again after the open timeout.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	now              func() time.Time
	onStateChange    func(name string, from, to State)

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
}

// New creates a closed circuit breaker.
func New(name string, failureThreshold, successThreshold int, timeout time.Duration, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Name identifies the guarded dependency.
func (cb *CircuitBreaker) Name() string { return cb.name }

// RecordSuccess resets the failure streak, and closes a half-open breaker
// after successThreshold probes.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	from := cb.state
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.transitionLocked(StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
	to := cb.state
	cb.mu.Unlock()
	cb.fire(from, to)
}

// RecordFailure extends the failure streak and may trip the breaker open.
// Any failure while half-open reopens it.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	from := cb.state
	cb.lastFailure = cb.now()
	switch cb.state {
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.failureThreshold {
			cb.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		cb.transitionLocked(StateOpen)
	}
	to := cb.state
	cb.mu.Unlock()
	cb.fire(from, to)
}

// AllowRequest reports whether a call may go through. An open breaker
// moves to half-open once the timeout has passed since the last failure.
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mu.Lock()
	from := cb.state
	allowed := true
	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailure) > cb.timeout {
			cb.transitionLocked(StateHalfOpen)
		} else {
			allowed = false
		}
	}
	to := cb.state
	cb.mu.Unlock()
	cb.fire(from, to)
	return allowed
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	cb.state = to
	cb.failures = 0
	cb.successes = 0
}

func (cb *CircuitBreaker) fire(from, to State) {
	if from != to && cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}
