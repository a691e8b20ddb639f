package errors

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

// Common error types used across the flowops library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCanceled indicates that an operation was abandoned because its
	// cancellation context fired
	ErrCanceled = errors.New("the operation was aborted")

	// ErrMissingInitialValue is returned when folding an empty stream without a seed
	ErrMissingInitialValue = errors.New("reduce of an empty stream requires an initial value")
)

// ValidationError describes a configuration or argument value that was
// rejected before any work started.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so callers can match on the category.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps a failure of an I/O operation performed on behalf of a stream,
// such as pulling from a Redis list.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for module.operation.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches free-form context and returns the same error for chaining.
func (e *OperationError) WithContext(detail string) *OperationError {
	e.Context = detail
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// CancelError is raised when a stream observes its cancellation context.
// Cause carries the reason the context was canceled, when known.
type CancelError struct {
	Cause error
}

// NewCancelError builds a CancelError from ctx, attributing context.Cause(ctx).
func NewCancelError(ctx context.Context) *CancelError {
	return &CancelError{Cause: context.Cause(ctx)}
}

func (e *CancelError) Error() string {
	if e.Cause == nil {
		return ErrCanceled.Error()
	}
	return fmt.Sprintf("%s: %v", ErrCanceled.Error(), e.Cause)
}

// Unwrap exposes both ErrCanceled and the original cause to errors.Is and errors.As.
func (e *CancelError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCanceled}
	}
	return []error{ErrCanceled, e.Cause}
}

// PanicError wraps a value recovered from a panicking user function together
// with the stack trace captured at the point of the panic.
type PanicError struct {
	Value interface{}
	Stack string
}

// NewPanicError captures the current goroutine stack for the recovered value v.
func NewPanicError(v interface{}) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsCanceled reports whether err is a cancellation failure raised by a stream.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsPanic reports whether err is or wraps a recovered panic.
func IsPanic(err error) bool {
	var perr *PanicError
	return errors.As(err, &perr)
}
