package molecule

import (
	"errors"
	"fmt"
)

// ParseError reports malformed structure or pattern text.
type ParseError struct {
	// Input is the full text being parsed.
	Input string

	// Pos is the byte offset where the problem was detected.
	Pos int

	// Msg is a human-readable description.
	Msg string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q at offset %d: %s", e.Input, e.Pos, e.Msg)
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
