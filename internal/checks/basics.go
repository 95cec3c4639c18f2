package checks

import (
	"fmt"
	"math"

	"github.com/m-kadula/ml2024-25/internal/fixture"
	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// PointFunc evaluates something of a point x against a list of values:
// the element of xs closest to x, or the polynomial with coefficients xs at x.
type PointFunc func(x float64, xs tensor.Array) (float64, error)

// TableFunc builds an n by n table.
type TableFunc func(n int) (tensor.Array, error)

func (fn PointFunc) verify(inputs ...tensor.Array) (tensor.Array, error) {
	x, err := inputs[0].Item()
	if err != nil {
		return tensor.Array{}, err
	}
	v, err := fn(x, inputs[1])
	if err != nil {
		return tensor.Array{}, err
	}
	return tensor.Scalar(v), nil
}

func (fn TableFunc) verify(inputs ...tensor.Array) (tensor.Array, error) {
	x, err := inputs[0].Item()
	if err != nil {
		return tensor.Array{}, err
	}
	if x != math.Trunc(x) {
		return tensor.Array{}, fmt.Errorf("table size %g is not an integer", x)
	}
	return fn(int(x))
}

// Closest checks a function returning the element of xs nearest to x.
func (c *Checker) Closest(fn PointFunc) error {
	return c.check(fixture.Closest, fn.verify)
}

// Poly checks a polynomial evaluator: xs holds the coefficients, lowest
// degree first.
func (c *Checker) Poly(fn PointFunc) error {
	return c.check(fixture.Poly, fn.verify)
}

// MultiplicationTable checks a function returning the n by n table with
// entry (i, j) equal to (i+1)*(j+1).
func (c *Checker) MultiplicationTable(fn TableFunc) error {
	return c.check(fixture.MultiplicationTable, fn.verify)
}

func (c *Checker) check(name string, candidate verify.Func) error {
	s, err := c.set(name)
	if err != nil {
		return err
	}
	return c.run(candidate, s)
}
