package errors

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrClosed", ErrClosed, "resource is closed"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrCanceled", ErrCanceled, "the operation was aborted"},
		{"ErrMissingInitialValue", ErrMissingInitialValue, "reduce of an empty stream requires an initial value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("error should not be nil")
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "stream",
				Field:  "concurrency",
				Value:  0,
				Reason: "must be positive",
			},
			want: "stream: invalid concurrency=0 (must be positive)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "stream",
				Field:  "lookahead",
				Value:  -1,
				Reason: "cannot be negative",
				Hint:   "use 0 or a positive value",
			},
			want: "stream: invalid lookahead=-1 (cannot be negative) - use 0 or a positive value",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "schedule",
				Field:  "spec",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "schedule: invalid spec= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")

	if verr.Unwrap() != ErrInvalidConfiguration {
		t.Errorf("Unwrap() = %v, want ErrInvalidConfiguration", verr.Unwrap())
	}
	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("test", "field", 0, "invalid").
		WithHint("try using a positive value")

	if err.Hint != "try using a positive value" {
		t.Errorf("Hint = %q, want %q", err.Hint, "try using a positive value")
	}

	if result := err.WithHint("new hint"); result != err {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOperationError("redislist", "LPop", cause).WithContext("key=jobs")

	want := "redislist.LPop failed: connection refused (key=jobs)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("OperationError should wrap the cause error")
	}

	bare := NewOperationError("stream", "Close", cause)
	if got := bare.Error(); got != "stream.Close failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCancelError(t *testing.T) {
	t.Run("carries context cause", func(t *testing.T) {
		reason := errors.New("shutdown requested")
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(reason)

		err := NewCancelError(ctx)
		if !errors.Is(err, ErrCanceled) {
			t.Error("CancelError should match ErrCanceled")
		}
		if !errors.Is(err, reason) {
			t.Error("CancelError should match its cause")
		}
		if !strings.Contains(err.Error(), "shutdown requested") {
			t.Errorf("message should mention the cause, got %q", err.Error())
		}
		if !IsCanceled(err) {
			t.Error("IsCanceled should report true")
		}
	})

	t.Run("plain cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := NewCancelError(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Error("CancelError should match context.Canceled")
		}
	})

	t.Run("no cause", func(t *testing.T) {
		err := &CancelError{}
		if err.Error() != ErrCanceled.Error() {
			t.Errorf("Error() = %q", err.Error())
		}
		if !errors.Is(err, ErrCanceled) {
			t.Error("CancelError should match ErrCanceled")
		}
	})
}

func TestPanicError(t *testing.T) {
	err := NewPanicError("boom")

	if !strings.HasPrefix(err.Error(), "panic: boom") {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Stack == "" {
		t.Error("stack should be captured")
	}
	if !IsPanic(err) {
		t.Error("IsPanic should report true")
	}
	if IsPanic(errors.New("boom")) {
		t.Error("IsPanic should report false for plain errors")
	}
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			"validation error",
			&ValidationError{Module: "test", Field: "field", Value: 0, Reason: "test"},
			true,
		},
		{
			"wrapped validation error",
			&OperationError{Cause: &ValidationError{Module: "test", Field: "field", Value: 0, Reason: "test"}},
			true,
		},
		{"operation error", &OperationError{Cause: errors.New("test")}, false},
		{"standard error", errors.New("test"), false},
		{"cancel error", &CancelError{}, false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.want {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.want)
			}
		})
	}
}
