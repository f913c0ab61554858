package server

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/LiorBanai/KUMO-AJA-Router/internal/kumo"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/logging"
	"github.com/LiorBanai/KUMO-AJA-Router/internal/metrics"
)

// BreakerSettings tunes the command circuit breaker.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// Timeout is how long the circuit stays open before a trial command.
	Timeout time.Duration
}

// DefaultBreakerSettings returns the settings the bridge runs with.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		ConsecutiveFailures: 5,
		Timeout:             30 * time.Second,
	}
}

// CommandBreaker guards router commands with a circuit breaker. Only
// network-class failures count against the circuit.
type CommandBreaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewCommandBreaker creates a closed breaker.
func NewCommandBreaker(settings BreakerSettings) *CommandBreaker {
	metrics.CircuitBreakerState.Set(stateToFloat(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kumo-commands",
		MaxRequests: 1,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		// Network errors and 5xx answers count; rejected parameters do not.
		IsSuccessful: func(err error) bool {
			return err == nil || !kumo.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info("Circuit breaker state transition",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CircuitBreakerState.Set(stateToFloat(to))
		},
	})
	return &CommandBreaker{cb: cb}
}

// Execute runs fn unless the circuit is open and records the outcome under
// the command name.
func (b *CommandBreaker) Execute(command string, fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	metrics.RecordCommand(command, err)
	if IsCircuitOpen(err) {
		logging.Warn("Command rejected by circuit breaker", zap.String("command", command))
	}
	return err
}

// State returns the breaker state name.
func (b *CommandBreaker) State() string {
	return b.cb.State().String()
}

// IsCircuitOpen reports whether err is a breaker rejection rather than a
// router failure.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
