package tensor

import "math/rand/v2"

// NewRand returns a generator whose sequence is fully determined by seed.
// Every stochastic component receives one of these explicitly; nothing in
// this module draws from the process-wide generator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Rand returns an array of uniform values in [0, 1).
func Rand(rng *rand.Rand, shape ...int) Array {
	out := New(shape...)
	for i := range out.Data {
		out.Data[i] = rng.Float64()
	}
	return out
}

// RandN returns an array of standard normal values.
func RandN(rng *rand.Rand, shape ...int) Array {
	out := New(shape...)
	for i := range out.Data {
		out.Data[i] = rng.NormFloat64()
	}
	return out
}
