// Package tolerance defines what "close enough" means when a computed value
// is compared against a golden reference.
//
// A value is close to its reference when
//
//	|actual - expected| <= ATol + RTol*|expected|
//
// NaN is never close to anything, and infinities are close only to an
// identical infinity.
package tolerance

import (
	"fmt"
	"math"
)

// Tolerance is a pair of relative and absolute bounds.
type Tolerance struct {
	RTol float64 `json:"rtol" yaml:"rtol"`
	ATol float64 `json:"atol" yaml:"atol"`
}

var (
	// Default suits most golden comparisons of iterative float computations.
	Default = Tolerance{RTol: 1e-3, ATol: 1e-6}
	// NumpyDefault matches the isclose/allclose defaults many goldens were
	// recorded against.
	NumpyDefault = Tolerance{RTol: 1e-5, ATol: 1e-8}
	// Exact requires bitwise equal values (modulo signed zero).
	Exact = Tolerance{}
)

// Bound returns the largest admissible absolute difference for expected.
func (t Tolerance) Bound(expected float64) float64 {
	return t.ATol + t.RTol*math.Abs(expected)
}

// Close reports whether actual is within tolerance of expected.
func (t Tolerance) Close(actual, expected float64) bool {
	if math.IsNaN(actual) || math.IsNaN(expected) {
		return false
	}
	if actual == expected {
		return true
	}
	if math.IsInf(actual, 0) || math.IsInf(expected, 0) {
		return false
	}
	return math.Abs(actual-expected) <= t.Bound(expected)
}

// Validate rejects negative or non-finite bounds.
func (t Tolerance) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"rtol", t.RTol}, {"atol", t.ATol}} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) || v.val < 0 {
			return fmt.Errorf("tolerance: invalid %s %g", v.name, v.val)
		}
	}
	return nil
}

// With returns a copy of t where non-nil overrides replace the bounds.
func (t Tolerance) With(rtol, atol *float64) Tolerance {
	if rtol != nil {
		t.RTol = *rtol
	}
	if atol != nil {
		t.ATol = *atol
	}
	return t
}

func (t Tolerance) String() string {
	return fmt.Sprintf("rtol=%g atol=%g", t.RTol, t.ATol)
}
