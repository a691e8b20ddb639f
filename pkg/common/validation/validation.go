// Package validation provides common validation utilities for the flowops library.
package validation

import (
	"math"

	gferrors "github.com/vnykmshr/flowops/pkg/common/errors"
)

// ValidatePositive rejects value <= 0, such as a concurrency of zero.
func ValidatePositive(module, field string, value int) error {
	if value > 0 {
		return nil
	}
	return gferrors.NewValidationError(module, field, value, "must be positive").
		WithHint("value must be greater than 0")
}

// ValidateNonNegative rejects value < 0, such as a negative lookahead or limit.
func ValidateNonNegative(module, field string, value int) error {
	if value >= 0 {
		return nil
	}
	return gferrors.NewValidationError(module, field, value, "cannot be negative").
		WithHint("use 0 or a positive value")
}

// ValidateNonNegativeRate rejects negative and NaN rates. +Inf is allowed.
func ValidateNonNegativeRate(module, field string, value float64) error {
	if value >= 0 {
		return nil
	}
	reason := "cannot be negative"
	if math.IsNaN(value) {
		reason = "must be a number"
	}
	return gferrors.NewValidationError(module, field, value, reason).
		WithHint("use 0 to disable refill or a positive rate")
}

// ValidateNotNil rejects a nil interface. A typed nil pointer passes; function
// values must be compared against nil by the caller.
func ValidateNotNil(module, field string, value interface{}) error {
	if value != nil {
		return nil
	}
	return gferrors.NewValidationError(module, field, nil, "cannot be nil").
		WithHint("provide a valid " + field)
}

// ValidateNotEmpty rejects an empty string, such as a Redis key or cron spec.
func ValidateNotEmpty(module, field string, value string) error {
	if value != "" {
		return nil
	}
	return gferrors.NewValidationError(module, field, value, "cannot be empty").
		WithHint("provide a non-empty " + field)
}

// FirstError returns the first non-nil error, so option validation can report
// the earliest offending field.
func FirstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
