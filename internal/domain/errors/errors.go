// Package errors defines the closed error-kind taxonomy used across the
// simulation core (§7 of the job error wire format).
package errors

import (
	"fmt"
	"time"
)

// Kind is a closed tagged variant for the reasons a job or batch can fail.
// Transient kinds are retried by the worker/poller; all others are terminal
// for the job, though the batch that contained it still completes.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindInvariant          Kind = "invariant"
	KindOracleTransient    Kind = "oracle_transient"
	KindOraclePermanent    Kind = "oracle_permanent"
	KindOracleContent      Kind = "oracle_content"
	KindCashAnchorMismatch Kind = "cash_anchor_mismatch"
	KindCancelled          Kind = "cancelled"
	KindInternal           Kind = "internal"
)

// Retryable reports whether a job in this error state should be re-enqueued.
func (k Kind) Retryable() bool {
	return k == KindOracleTransient
}

// SimulationError is the single error type returned by every component in
// the simulation core. It records enough context to persist the job/batch
// error wire format verbatim: {kind, message, occurredAt, attempt}.
type SimulationError struct {
	Kind       Kind
	Message    string
	OccurredAt time.Time
	Attempt    int
	Cause      error
}

func (e *SimulationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SimulationError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether this error's kind should trigger a retry.
func (e *SimulationError) Retryable() bool {
	return e.Kind.Retryable()
}

// New creates a SimulationError, stamping OccurredAt at construction time.
func New(kind Kind, message string, attempt int, cause error) *SimulationError {
	return &SimulationError{
		Kind:       kind,
		Message:    message,
		OccurredAt: time.Now(),
		Attempt:    attempt,
		Cause:      cause,
	}
}

func Validation(message string) *SimulationError {
	return New(KindValidation, message, 0, nil)
}

func Invariant(message string) *SimulationError {
	return New(KindInvariant, message, 0, nil)
}

func OracleTransient(attempt int, cause error) *SimulationError {
	return New(KindOracleTransient, "oracle request failed transiently", attempt, cause)
}

func OraclePermanent(attempt int, cause error) *SimulationError {
	return New(KindOraclePermanent, "oracle request failed permanently", attempt, cause)
}

func OracleContent(message string, cause error) *SimulationError {
	return New(KindOracleContent, message, 0, cause)
}

func CashAnchorMismatch(expected, got string) *SimulationError {
	return New(KindCashAnchorMismatch, fmt.Sprintf("oracle cashBefore %s disagreed with expected %s; auto-corrected", got, expected), 0, nil)
}

func Cancelled(message string) *SimulationError {
	return New(KindCancelled, message, 0, nil)
}

func Internal(message string, cause error) *SimulationError {
	return New(KindInternal, message, 0, cause)
}

// As returns err as a *SimulationError and true when err is itself one;
// wrapped errors are not unwrapped.
func As(err error) (*SimulationError, bool) {
	se, ok := err.(*SimulationError)
	return se, ok
}
