package tolerance

import (
	"fmt"
	"math"
	"strings"
)

// Deviation summarises an element-wise comparison.
type Deviation struct {
	// MaxAbs is the largest observed |actual - expected|. NaN differences
	// count as +Inf.
	MaxAbs float64
	// Index is the flat offset of the worst violation, or of MaxAbs when
	// every element is close. It is -1 for empty inputs.
	Index int
	// Violations counts elements outside the tolerance.
	Violations int
	// Compared is the number of element pairs examined.
	Compared int
}

// OK reports whether every compared element was close.
func (d Deviation) OK() bool { return d.Violations == 0 }

// Compare checks actual against expected element by element. Both slices
// must have equal length; the caller owns shape validation.
func Compare(actual, expected []float64, tol Tolerance) Deviation {
	if len(actual) != len(expected) {
		panic("tolerance: compare length mismatch")
	}
	d := Deviation{Index: -1, Compared: len(actual)}
	maxIdx, worstIdx := -1, -1
	worstExcess := math.Inf(-1)
	for i := range actual {
		diff := 0.0
		if actual[i] != expected[i] {
			diff = math.Abs(actual[i] - expected[i])
			if math.IsNaN(diff) {
				diff = math.Inf(1)
			}
		}
		if maxIdx < 0 || diff > d.MaxAbs {
			d.MaxAbs = diff
			maxIdx = i
		}
		if tol.Close(actual[i], expected[i]) {
			continue
		}
		d.Violations++
		excess := diff - tol.Bound(expected[i])
		if math.IsNaN(excess) {
			excess = math.Inf(1)
		}
		if worstIdx < 0 || excess > worstExcess {
			worstExcess = excess
			worstIdx = i
		}
	}
	d.Index = maxIdx
	if worstIdx >= 0 {
		d.Index = worstIdx
	}
	return d
}

// Table maps check names to tolerances. Lookups fall back to a caller
// supplied default so per-check values stay explicit.
type Table map[string]Tolerance

// Lookup returns the tolerance registered for name, trying successively
// shorter slash-separated prefixes before the fallback.
func (t Table) Lookup(name string, fallback Tolerance) Tolerance {
	if tol, ok := t.Find(name); ok {
		return tol
	}
	return fallback
}

// Find is Lookup without a fallback.
func (t Table) Find(name string) (Tolerance, bool) {
	for key := name; key != ""; {
		if tol, ok := t[key]; ok {
			return tol, true
		}
		i := strings.LastIndexByte(key, '/')
		if i < 0 {
			break
		}
		key = key[:i]
	}
	return Tolerance{}, false
}

// Validate checks every entry.
func (t Table) Validate() error {
	for name, tol := range t {
		if err := tol.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
