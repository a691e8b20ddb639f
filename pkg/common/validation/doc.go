// Package validation checks operator options and source configuration.
//
// Operators validate eagerly, before any upstream item is pulled. Every helper
// returns nil or a *errors.ValidationError wrapping errors.ErrInvalidConfiguration,
// so callers can match the category with errors.Is.
package validation
