package verify

import (
	"errors"
	"fmt"
)

// Kind is a stable failure category.
type Kind string

const (
	// AssertionFailure means a result violated its tolerance or a property
	// did not hold.
	AssertionFailure Kind = "ASSERTION_FAILURE"
	// ShapeMismatch means a result cannot be compared with its golden value.
	ShapeMismatch Kind = "SHAPE_MISMATCH"
	// CandidateRaised means the candidate itself failed. Errors returned by
	// a candidate are passed through untouched; only panics are wrapped.
	CandidateRaised Kind = "CANDIDATE_RAISED"
)

// Error is the structured error for a failed check.
type Error struct {
	Kind  Kind
	Check string
	// Fixture is the index of the offending fixture, or -1 when the failure
	// is not tied to one.
	Fixture int
	// Deviation is the largest observed |actual - expected|; zero for
	// failures that are not numeric comparisons.
	Deviation float64
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("verify: %s in %s", e.Kind, e.Check)
	if e.Fixture >= 0 {
		msg += fmt.Sprintf(" fixture %d", e.Fixture)
	}
	if e.Kind == AssertionFailure && e.Deviation != 0 {
		msg += fmt.Sprintf(": max deviation %.6g", e.Deviation)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Failf creates an AssertionFailure not tied to a fixture.
func Failf(check, format string, args ...any) *Error {
	return &Error{Kind: AssertionFailure, Check: check, Fixture: -1, Message: fmt.Sprintf(format, args...)}
}

// Require returns an AssertionFailure with the formatted message when cond
// is false, and nil otherwise.
func Require(cond bool, check, format string, args ...any) error {
	if cond {
		return nil
	}
	return Failf(check, format, args...)
}

// KindOf returns the Kind of the first *Error found in err's tree.
func KindOf(err error) (Kind, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a verify error of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
