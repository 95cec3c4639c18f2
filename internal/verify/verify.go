// Package verify runs candidate implementations against golden fixtures.
//
// A run is a pure function of the candidate, the fixture set and its
// tolerance: every fixture is evaluated (collect-all), each failure is
// recorded with the fixture index and the worst deviation, and nothing is
// retried. Errors returned by the candidate stop the run and are returned to
// the caller unchanged.
package verify

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/m-kadula/ml2024-25/internal/fixture"
	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
)

// Func is the candidate contract: positional numeric inputs, one numeric
// result.
type Func func(inputs ...tensor.Array) (tensor.Array, error)

// Result is the outcome of verifying one check.
type Result struct {
	Check    string
	Fixtures int
	Failures []*Error
}

// Passed reports whether every fixture matched.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

// Err returns nil on success, the single failure, or all failures joined.
func (r Result) Err() error {
	switch len(r.Failures) {
	case 0:
		return nil
	case 1:
		return r.Failures[0]
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Message is a one line human readable summary.
func (r Result) Message() string {
	if r.Passed() {
		return fmt.Sprintf("%s: %d/%d fixtures passed", r.Check, r.Fixtures, r.Fixtures)
	}
	parts := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%s: %d/%d fixtures failed: %s", r.Check, len(r.Failures), r.Fixtures, strings.Join(parts, "; "))
}

// VerifySet is Verify over a registry set.
func VerifySet(c Func, s fixture.Set) (Result, error) {
	return Verify(s.Check, c, s.Fixtures, s.Tolerance)
}

// Verify invokes c on every fixture and compares its output against the
// expected value under tol.
//
// The returned error is non-nil only when the candidate failed; in that case
// the Result covers the fixtures evaluated so far.
func Verify(check string, c Func, fixtures []fixture.Fixture, tol tolerance.Tolerance) (Result, error) {
	res := Result{Check: check, Fixtures: len(fixtures)}
	for i, f := range fixtures {
		inputs := make([]tensor.Array, len(f.Inputs))
		for j, in := range f.Inputs {
			inputs[j] = in.Clone()
		}
		got, err := Call(check, i, func() (tensor.Array, error) { return c(inputs...) })
		if err != nil {
			return res, err
		}
		if fail := Compare(check, i, got, f.Expected, tol); fail != nil {
			res.Failures = append(res.Failures, fail)
		}
	}
	return res, nil
}

// Compare checks a single result against its golden value. It returns nil
// when the result is close, a ShapeMismatch when the arrays cannot be
// compared, and an AssertionFailure otherwise.
func Compare(check string, index int, actual, expected tensor.Array, tol tolerance.Tolerance) *Error {
	if !tensor.Compatible(actual, expected) {
		return &Error{
			Kind:    ShapeMismatch,
			Check:   check,
			Fixture: index,
			Message: fmt.Sprintf("got shape %s, want %s", tensor.ShapeString(actual.Shape), tensor.ShapeString(expected.Shape)),
		}
	}
	d := tolerance.Compare(actual.Data, expected.Data, tol)
	if d.OK() {
		return nil
	}
	at := tensor.ShapeString(tensor.Unravel(d.Index, expected.Shape))
	return &Error{
		Kind:      AssertionFailure,
		Check:     check,
		Fixture:   index,
		Deviation: d.MaxAbs,
		Message: fmt.Sprintf("%d/%d elements outside %s, worst at %s: got %.8g want %.8g",
			d.Violations, d.Compared, tol, at, actual.Data[d.Index], expected.Data[d.Index]),
	}
}

// CompareScalar is Compare for single values.
func CompareScalar(check string, index int, actual, expected float64, tol tolerance.Tolerance) *Error {
	return Compare(check, index, tensor.Scalar(actual), tensor.Scalar(expected), tol)
}

// Call runs fn, converting a panic into a CandidateRaised error attributed to
// the given fixture index (-1 for none). Errors returned by fn are passed
// through unchanged.
func Call[T any](check string, index int, fn func() (T, error)) (out T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &Error{
				Kind:    CandidateRaised,
				Check:   check,
				Fixture: index,
				Cause:   fmt.Errorf("panic: %v", rec),
			}
		}
	}()
	return fn()
}

// Invoke is Call for candidate operations without a result.
func Invoke(check string, fn func() error) error {
	_, err := Call(check, -1, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}

// Seeded returns the generator a stochastic check hands to its candidate.
// The seed is an explicit parameter of every check that needs one.
func Seeded(seed uint64) *rand.Rand {
	return tensor.NewRand(seed)
}
