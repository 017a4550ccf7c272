package rules

import (
	"errors"
	"fmt"
)

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("rule library is frozen")

// RegistrationErrorCode categorizes registration failures.
type RegistrationErrorCode string

const (
	// ErrCodeEmptyID indicates a rule without an ID.
	ErrCodeEmptyID RegistrationErrorCode = "EMPTY_ID"

	// ErrCodeDuplicateID indicates a rule ID already in the library.
	ErrCodeDuplicateID RegistrationErrorCode = "DUPLICATE_ID"

	// ErrCodeUnknownArrow indicates an arrow type outside the closed set.
	ErrCodeUnknownArrow RegistrationErrorCode = "UNKNOWN_ARROW_TYPE"

	// ErrCodeBadPattern indicates a reactant or reagent pattern that does not compile.
	ErrCodeBadPattern RegistrationErrorCode = "BAD_PATTERN"

	// ErrCodeReactantTooSmall indicates a reactant pattern with fewer than
	// two atoms, which cannot produce an arrow.
	ErrCodeReactantTooSmall RegistrationErrorCode = "REACTANT_TOO_SMALL"
)

// RegistrationError reports a rule the library refused.
type RegistrationError struct {
	// Code identifies the failure category.
	Code RegistrationErrorCode

	// RuleID is the offending rule's ID (may be empty).
	RuleID string

	// Field names the rule field at fault, if any.
	Field string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RuleID != "" {
		msg = fmt.Sprintf("%s (rule=%s)", msg, e.RuleID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// IsRegistrationError returns true if err is or wraps a *RegistrationError.
func IsRegistrationError(err error) bool {
	var re *RegistrationError
	return errors.As(err, &re)
}
