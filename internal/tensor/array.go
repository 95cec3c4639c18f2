package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Array represents a dense row-major N-dimensional array of float64 values.
//
// Shape lists the extent of every dimension, outermost first.  A rank-0
// array (empty Shape) holds exactly one scalar value.  Data holds the
// flattened values and always has Size(Shape) elements.
//
// Array does not perform any memory safety beyond the checks performed by
// Go's slice types; out-of-range indices will panic.
type Array struct {
	Shape []int
	Data  []float64
}

// New allocates a zero initialised array with the given shape.
func New(shape ...int) Array {
	n := mustSize(shape)
	return Array{
		Shape: append([]int(nil), shape...),
		Data:  make([]float64, n),
	}
}

// FromValues creates an array from decoded input, checking that the data
// length matches the shape. The data slice is copied.
func FromValues(data []float64, shape []int) (Array, error) {
	n, err := Size(shape)
	if err != nil {
		return Array{}, err
	}
	if n != len(data) {
		return Array{}, fmt.Errorf("%w: shape %s wants %d values, got %d", errDataMismatch, ShapeString(shape), n, len(data))
	}
	return Array{
		Shape: append([]int(nil), shape...),
		Data:  append([]float64(nil), data...),
	}, nil
}

// Scalar returns a rank-0 array holding v.
func Scalar(v float64) Array {
	return Array{Shape: []int{}, Data: []float64{v}}
}

// Vector returns a rank-1 array holding a copy of vs.
func Vector(vs ...float64) Array {
	return Array{Shape: []int{len(vs)}, Data: append([]float64(nil), vs...)}
}

// Matrix builds a rank-2 array from rows. All rows must have equal length.
func Matrix(rows ...[]float64) Array {
	if len(rows) == 0 {
		return New(0, 0)
	}
	c := len(rows[0])
	out := New(len(rows), c)
	for i, row := range rows {
		if len(row) != c {
			panic("ragged matrix rows")
		}
		copy(out.Data[i*c:], row)
	}
	return out
}

// Arange returns the vector [0, 1, ..., n-1].
func Arange(n int) Array {
	out := New(n)
	for i := range out.Data {
		out.Data[i] = float64(i)
	}
	return out
}

// Linspace returns num evenly spaced values over [start, stop], endpoints included.
func Linspace(start, stop float64, num int) Array {
	out := New(num)
	switch num {
	case 0:
		return out
	case 1:
		out.Data[0] = start
		return out
	}
	step := (stop - start) / float64(num-1)
	for i := range out.Data {
		out.Data[i] = start + float64(i)*step
	}
	out.Data[num-1] = stop
	return out
}

// Rank returns the number of dimensions.
func (a Array) Rank() int { return len(a.Shape) }

// Len returns the number of elements.
func (a Array) Len() int { return len(a.Data) }

// Rows returns the extent of the first dimension of a rank-2 array.
func (a Array) Rows() int {
	if len(a.Shape) != 2 {
		panic("Rows requires a rank-2 array")
	}
	return a.Shape[0]
}

// Cols returns the extent of the second dimension of a rank-2 array.
func (a Array) Cols() int {
	if len(a.Shape) != 2 {
		panic("Cols requires a rank-2 array")
	}
	return a.Shape[1]
}

// Row returns a view of the i-th row of a rank-2 array.  Modifications to the
// returned slice update the underlying array values.
func (a Array) Row(i int) []float64 {
	r, c := a.Rows(), a.Cols()
	if i < 0 || i >= r {
		panic("row index out of range")
	}
	return a.Data[i*c : (i+1)*c]
}

// Item returns the single value of an array holding exactly one element.
func (a Array) Item() (float64, error) {
	if len(a.Data) != 1 {
		return 0, fmt.Errorf("%w: item of array with shape %s", errNotScalar, ShapeString(a.Shape))
	}
	return a.Data[0], nil
}

// Set stores v at the given multi-index.
func (a Array) Set(v float64, idx ...int) {
	a.Data[a.offset(idx)] = v
}

func (a Array) offset(idx []int) int {
	if len(idx) != len(a.Shape) {
		panic("index rank mismatch")
	}
	off := 0
	for d, i := range idx {
		if i < 0 || i >= a.Shape[d] {
			panic("index out of range")
		}
		off = off*a.Shape[d] + i
	}
	return off
}

// Clone returns a deep copy.
func (a Array) Clone() Array {
	return Array{
		Shape: append([]int{}, a.Shape...),
		Data:  append([]float64(nil), a.Data...),
	}
}

// Map returns a new array with fn applied to every element.
func (a Array) Map(fn func(float64) float64) Array {
	out := a.Clone()
	for i, v := range out.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// Scale returns a new array with every element multiplied by s.
func (a Array) Scale(s float64) Array {
	return a.Map(func(v float64) float64 { return v * s })
}

// SameShape reports whether a and b have identical shapes.
func (a Array) SameShape(b Array) bool {
	return shapesEqual(a.Shape, b.Shape)
}

// Compatible reports whether a and b can be compared element by element.
// Shapes match when they are identical after dropping unit dimensions, so a
// scalar compares against a one element vector and a column against a row.
func Compatible(a, b Array) bool {
	if len(a.Data) != len(b.Data) {
		return false
	}
	return shapesEqual(squeeze(a.Shape), squeeze(b.Shape))
}

// String renders the shape and up to eight leading values.
func (a Array) String() string {
	var sb strings.Builder
	sb.WriteString("Array")
	sb.WriteString(ShapeString(a.Shape))
	sb.WriteByte('{')
	for i, v := range a.Data {
		if i == 8 {
			sb.WriteString(", ...")
			break
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', 6, 64))
	}
	sb.WriteByte('}')
	return sb.String()
}

// ShapeString formats a shape as "(2, 3)".
func ShapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Unravel converts a flat offset into a multi-index for shape.
func Unravel(flat int, shape []int) []int {
	idx := make([]int, len(shape))
	for d := len(shape) - 1; d >= 0; d-- {
		if shape[d] == 0 {
			return idx
		}
		idx[d] = flat % shape[d]
		flat /= shape[d]
	}
	return idx
}

// Size returns the element count of shape. A rank-0 shape has one element.
func Size(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, errNegativeDim
		}
		if d != 0 && n > (int(^uint(0)>>1))/d {
			return 0, errTooLarge
		}
		n *= d
	}
	return n, nil
}

func mustSize(shape []int) int {
	n, err := Size(shape)
	if err != nil {
		panic(err.Error())
	}
	return n
}

func squeeze(shape []int) []int {
	out := make([]int, 0, len(shape))
	for _, d := range shape {
		if d != 1 {
			out = append(out, d)
		}
	}
	return out
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var (
	errNegativeDim  = fmtError("negative dimension for array")
	errTooLarge     = fmtError("array too large")
	errDataMismatch = fmtError("data length mismatch")
	errNotScalar    = fmtError("array is not a scalar")
)

type fmtError string

func (e fmtError) Error() string { return string(e) }
