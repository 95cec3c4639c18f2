package tensor

import "math"

// Mean returns the arithmetic mean of all elements. Empty arrays yield NaN.
func Mean(a Array) float64 {
	if len(a.Data) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range a.Data {
		sum += v
	}
	return sum / float64(len(a.Data))
}

// Variance returns the unbiased (n-1) sample variance of all elements.
func Variance(a Array) float64 {
	n := len(a.Data)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(a)
	var ss float64
	for _, v := range a.Data {
		d := v - mean
		ss += d * d
	}
	return ss / float64(n-1)
}

// ColumnMean returns the per-column mean of a rank-2 array.
func ColumnMean(a Array) Array {
	r, c := a.Rows(), a.Cols()
	out := New(c)
	if r == 0 {
		return out
	}
	for i := 0; i < r; i++ {
		Add(out.Data, a.Row(i))
	}
	inv := 1.0 / float64(r)
	for j := range out.Data {
		out.Data[j] *= inv
	}
	return out
}

// ColumnVariance returns the biased (n) per-column variance of a rank-2 array.
func ColumnVariance(a Array) Array {
	r, c := a.Rows(), a.Cols()
	mean := ColumnMean(a)
	out := New(c)
	if r == 0 {
		return out
	}
	for i := 0; i < r; i++ {
		row := a.Row(i)
		for j, v := range row {
			d := v - mean.Data[j]
			out.Data[j] += d * d
		}
	}
	inv := 1.0 / float64(r)
	for j := range out.Data {
		out.Data[j] *= inv
	}
	return out
}

// CountZeros returns the number of elements exactly equal to zero.
func CountZeros(xs []float64) int {
	n := 0
	for _, v := range xs {
		if v == 0 {
			n++
		}
	}
	return n
}

// Add adds src to dst element-wise.
func Add(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
