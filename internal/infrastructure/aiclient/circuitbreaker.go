// Package aiclient is the concrete internal/aioracle.OracleClient
// implementation, wrapping github.com/sashabaranov/go-openai for both the
// direct chat-completion path (C4) and the batch file/batch API (C5).
package aiclient

import (
	"fmt"
	"sync"
	"time"
)

// circuitState mirrors the three-state machine of a standard circuit
// breaker: closed passes requests through, open fails them immediately,
// half-open lets a trickle through to probe recovery.
type circuitState int

const (
	stateClosed circuitState = iota
	stateOpen
	stateHalfOpen
)

// CircuitBreakerConfig tunes the breaker wrapping every oracle call. One
// breaker protects the whole client: every job goroutine shares the same
// upstream HTTP dependency, so a single shared breaker — not one per job —
// is what actually reflects that dependency's health.
type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultCircuitBreakerConfig trips after 5 consecutive failures and probes
// recovery after a minute, matching the teacher's own defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
	}
}

// circuitBreaker is a single-dependency breaker: no per-key registry, no
// node-executor coupling, since aiclient has exactly one upstream to
// protect. MaxConcurrentRequests and the executor-wrapper types of the
// node-level version are dropped with it.
type circuitBreaker struct {
	mu sync.Mutex

	config CircuitBreakerConfig
	state  circuitState

	consecutiveFailures  int
	consecutiveSuccesses int
	openedAt             time.Time
}

func newCircuitBreaker(config CircuitBreakerConfig) *circuitBreaker {
	return &circuitBreaker{config: config, state: stateClosed}
}

// CircuitBreakerOpenError is returned without attempting the call when the
// breaker is open and its timeout has not yet elapsed.
type CircuitBreakerOpenError struct {
	OpenedAt time.Time
	Timeout  time.Duration
}

func (e *CircuitBreakerOpenError) Error() string {
	return fmt.Sprintf("oracle circuit breaker is open, retry in %v", e.Timeout-time.Since(e.OpenedAt))
}

// execute runs fn if the breaker allows it, recording the outcome.
func (cb *circuitBreaker) execute(fn func() error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}
	err := fn()
	cb.afterRequest(err)
	return err
}

func (cb *circuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateOpen:
		if time.Since(cb.openedAt) < cb.config.Timeout {
			return &CircuitBreakerOpenError{OpenedAt: cb.openedAt, Timeout: cb.config.Timeout}
		}
		cb.state = stateHalfOpen
		cb.consecutiveSuccesses = 0
	}
	return nil
}

func (cb *circuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveFailures++
		cb.consecutiveSuccesses = 0
		if cb.state == stateHalfOpen || cb.consecutiveFailures >= cb.config.FailureThreshold {
			cb.state = stateOpen
			cb.openedAt = time.Now()
		}
		return
	}

	cb.consecutiveFailures = 0
	if cb.state == stateHalfOpen {
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.config.SuccessThreshold {
			cb.state = stateClosed
		}
	}
}
