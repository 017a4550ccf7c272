package engine

import (
	"errors"
	"fmt"
)

// Side identifies which input of a suggest request failed.
type Side string

const (
	// SideReactant is the molecule receiving the arrows.
	SideReactant Side = "reactant"

	// SideReagent is the molecule the reactant is exposed to.
	SideReagent Side = "reagent"
)

// ParseFailure reports an input structure that could not be parsed.
//
// Evaluate maps this to an empty result; Suggest returns it so callers can
// tell bad input apart from "no rule matched".
type ParseFailure struct {
	// Side is the input that failed.
	Side Side

	// Input is the text that failed to parse.
	Input string

	// Err is the parser's error.
	Err error
}

// Error implements the error interface.
func (e *ParseFailure) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Side, e.Err)
}

// Unwrap returns the parser's error.
func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// IsParseFailure returns true if err is or wraps a *ParseFailure.
func IsParseFailure(err error) bool {
	var pf *ParseFailure
	return errors.As(err, &pf)
}

// AnnotationErrorCode categorizes annotation failures.
type AnnotationErrorCode string

const (
	// ErrCodeOutOfBounds indicates a match index outside the reactant.
	ErrCodeOutOfBounds AnnotationErrorCode = "ANNOTATION_OUT_OF_BOUNDS"

	// ErrCodeShortMatch indicates a match with fewer than two atoms.
	ErrCodeShortMatch AnnotationErrorCode = "ANNOTATION_SHORT_MATCH"

	// ErrCodeSelfArrow indicates a match whose first two atoms coincide.
	ErrCodeSelfArrow AnnotationErrorCode = "ANNOTATION_SELF_ARROW"
)

// AnnotationError reports a match that cannot become a valid arrow.
type AnnotationError struct {
	// Code identifies the error category.
	Code AnnotationErrorCode

	// Message is a human-readable description.
	Message string

	// Match is the offending atom tuple.
	Match []int

	// AtomCount is the reactant size the match was checked against.
	AtomCount int
}

// Error implements the error interface.
func (e *AnnotationError) Error() string {
	return fmt.Sprintf("%s: %s (match=%v, atoms=%d)", e.Code, e.Message, e.Match, e.AtomCount)
}

// IsAnnotationError returns true if err is or wraps an *AnnotationError.
func IsAnnotationError(err error) bool {
	var ae *AnnotationError
	return errors.As(err, &ae)
}
