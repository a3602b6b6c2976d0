// Package apperrors classifies hypbound failures. Permanent input errors
// (preconditions, configuration, validation) are kept apart from retriable
// ones (non-convergence, deadlines), and each class maps to an exit code.
// Every type works with errors.Is and errors.As through wrapping.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess           = 0   // Indicates successful execution.
	ExitErrorGeneric      = 1   // Indicates a generic error.
	ExitErrorTimeout      = 2   // Indicates the operation timed out.
	ExitErrorNotConverged = 3   // Indicates the tail bound search did not converge.
	ExitErrorConfig       = 4   // Indicates a configuration error.
	ExitErrorPrecondition = 5   // Indicates malformed bound parameters.
	ExitErrorCanceled     = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

var (
	// ErrPrecondition matches every PreconditionError via errors.Is.
	ErrPrecondition = errors.New("precondition violated")
	// ErrNotConverged matches every ConvergenceError via errors.Is.
	ErrNotConverged = errors.New("tail bound did not converge")
)

// PreconditionError reports a malformed request such as a factorial of a
// negative argument, Γ(0), or a term index below the reference index.
// It is never retriable: the same input always fails.
type PreconditionError struct {
	// Op names the operation that rejected its input (e.g., "factorial.GammaLower").
	Op string
	// Message describes the violated precondition.
	Message string
}

func (e *PreconditionError) Error() string {
	if e.Op == "" {
		return "precondition violated: " + e.Message
	}
	return fmt.Sprintf("%s: precondition violated: %s", e.Op, e.Message)
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// NewPreconditionError formats a *PreconditionError for op.
func NewPreconditionError(op, format string, a ...any) error {
	return &PreconditionError{Op: op, Message: fmt.Sprintf(format, a...)}
}

// ConvergenceError reports that the geometric tail criterion was not met
// within the allowed budget. The caller may retry with a larger iteration
// ceiling, a looser tolerance or tighter inputs.
type ConvergenceError struct {
	// LastN is the last term index examined.
	LastN int64
	// Iterations is the number of refinement steps performed.
	Iterations int64
	// Reason is a short description of why the search stopped.
	Reason string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("tail bound did not converge: %s (n=%d, iterations=%d)", e.Reason, e.LastN, e.Iterations)
}

// Is reports whether target is ErrNotConverged.
func (e *ConvergenceError) Is(target error) bool { return target == ErrNotConverged }

// ConfigError is a flag, environment or batch-file problem detected before
// any computation starts.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError formats a ConfigError.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ServerError is a failure of the HTTP listener itself, not of a request.
type ServerError struct {
	Message string
	Cause   error
}

func (e ServerError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError wraps cause, which may be nil.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError rejects one input field, from a query parameter, a batch
// entry or a service limit. Value is the offending input and may be nil.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// WrapError prefixes err with a formatted context, keeping it matchable by
// errors.Is and errors.As. A nil err stays nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// IsContextError reports whether err comes from a canceled or expired
// context.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsRetriable reports whether retrying with a larger budget could succeed.
// Precondition failures are permanent; convergence failures and deadline
// expiry are not.
func IsRetriable(err error) bool {
	if err == nil || errors.Is(err, ErrPrecondition) {
		return false
	}
	return errors.Is(err, ErrNotConverged) || errors.Is(err, context.DeadlineExceeded)
}
