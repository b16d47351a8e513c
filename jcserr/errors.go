// Package jcserr defines the failure taxonomy shared by the parser, the
// encoder, and the value model.
//
// Every failure reported by this module maps to exactly one FailureClass.
// Callers that need to distinguish "bad input" from "internal bug" can
// switch on Class (or use the ExitCode helper, used by the CLI) instead of
// string-matching error messages.
package jcserr

import "fmt"

// FailureClass names a category of canonicalization failure.
type FailureClass string

const (
	// InvalidGrammar indicates the input does not parse as strict JSON:
	// an unexpected token, trailing content, an unterminated string, a
	// depth or size bound exceeded, and so on.
	InvalidGrammar FailureClass = "INVALID_GRAMMAR"

	// UnrepresentableNumber indicates a NaN or ±Infinity value, or a
	// numeric source token whose magnitude overflows binary64.
	UnrepresentableNumber FailureClass = "UNREPRESENTABLE_NUMBER"

	// InvalidString indicates a string value under direct construction
	// (bypassing the parser) contains an unpaired UTF-16 surrogate.
	InvalidString FailureClass = "INVALID_STRING"

	// LoneSurrogate indicates source text contains an unpaired surrogate
	// code point, found during parsing.
	LoneSurrogate FailureClass = "LONE_SURROGATE"

	// DuplicateKey indicates an object has two members with the same key,
	// under a policy that rejects duplicates.
	DuplicateKey FailureClass = "DUPLICATE_KEY"

	// NotCanonical indicates a body parsed successfully but its bytes do
	// not match its own canonical re-serialization.
	NotCanonical FailureClass = "NOT_CANONICAL"

	// InternalError indicates a violated internal invariant. Reaching
	// this from a public entry point is always a bug in this module.
	InternalError FailureClass = "INTERNAL_ERROR"
)

// ExitCode maps a FailureClass to a process exit code, for CLI callers.
// Input-shaped failures exit 2; anything this module considers its own
// bug exits 10.
func (fc FailureClass) ExitCode() int {
	if fc == InternalError {
		return 10
	}
	return 2
}

// Error is the concrete error type returned by this module's packages.
type Error struct {
	Class   FailureClass
	Offset  int // byte offset in source text, or -1 if not applicable
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var base string
	if e.Offset >= 0 {
		base = fmt.Sprintf("jcs: %s at byte %d: %s", e.Class, e.Offset, e.Message)
	} else {
		base = fmt.Sprintf("jcs: %s: %s", e.Class, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

// Unwrap returns the wrapped cause, if any, so errors.Is/As can reach it.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error with no offset information.
func New(class FailureClass, message string) *Error {
	return &Error{Class: class, Offset: -1, Message: message}
}

// NewAt builds an Error carrying a byte offset into source text.
func NewAt(class FailureClass, offset int, message string) *Error {
	return &Error{Class: class, Offset: offset, Message: message}
}

// Wrap builds an Error with no offset that wraps an existing error.
func Wrap(class FailureClass, message string, cause error) *Error {
	return &Error{Class: class, Offset: -1, Message: message, Cause: cause}
}
