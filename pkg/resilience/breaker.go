package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the circuit breaker state.
type State int32

const (
	// StateClosed allows all calls.
	StateClosed State = iota
	// StateOpen fails all calls fast without invoking the operation.
	StateOpen
	// StateHalfOpen permits exactly one trial call.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitOpenError is returned when a call is rejected because the circuit
// is open. It is reported distinctly from operation failures and is never
// retried against the retry budget.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit %q is open, retry after %s", e.Name, e.RetryAfter)
}

// IsCircuitOpen reports whether err is a circuit-open rejection.
func IsCircuitOpen(err error) bool {
	var coe *CircuitOpenError
	return errors.As(err, &coe)
}

// CircuitBreaker isolates one operation class. Closed until
// failureThreshold consecutive failures, then open for the cooldown period,
// then half-open for exactly one trial call; a failed trial reopens with an
// extended cooldown.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	cooldown         time.Duration
	logger           *zap.Logger

	mu              sync.Mutex
	state           State
	consecutiveFail int
	openedAt        time.Time
	currentCooldown time.Duration
	trialInFlight   bool
	now             func() time.Time
}

// NewCircuitBreaker creates a closed breaker for one operation class.
func NewCircuitBreaker(name string, failureThreshold int, cooldown time.Duration, logger *zap.Logger) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		currentCooldown:  cooldown,
		logger:           logger.With(zap.String("component", "circuit_breaker"), zap.String("circuit", name)),
		now:              time.Now,
	}
}

// Execute runs operation under the breaker. An open circuit rejects the call
// with *CircuitOpenError without invoking the operation.
func (cb *CircuitBreaker) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := operation(ctx)
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		elapsed := cb.now().Sub(cb.openedAt)
		if elapsed < cb.currentCooldown {
			return &CircuitOpenError{Name: cb.name, RetryAfter: cb.currentCooldown - elapsed}
		}
		cb.state = StateHalfOpen
		cb.trialInFlight = true
		cb.logger.Info("circuit half-open, permitting trial call")
		return nil
	case StateHalfOpen:
		if cb.trialInFlight {
			return &CircuitOpenError{Name: cb.name, RetryAfter: cb.currentCooldown}
		}
		cb.trialInFlight = true
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.trialInFlight = false
		if success {
			cb.state = StateClosed
			cb.consecutiveFail = 0
			cb.currentCooldown = cb.cooldown
			cb.logger.Info("trial call succeeded, circuit closed")
		} else {
			cb.state = StateOpen
			cb.openedAt = cb.now()
			cb.currentCooldown *= 2
			cb.logger.Warn("trial call failed, circuit reopened",
				zap.Duration("cooldown", cb.currentCooldown))
		}
	case StateClosed:
		if success {
			cb.consecutiveFail = 0
			return
		}
		cb.consecutiveFail++
		if cb.consecutiveFail >= cb.failureThreshold {
			cb.state = StateOpen
			cb.openedAt = cb.now()
			cb.logger.Warn("failure threshold reached, circuit opened",
				zap.Int("consecutive_failures", cb.consecutiveFail))
		}
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Name returns the operation class this breaker guards.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}
