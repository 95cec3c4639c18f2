package optim

import (
	"errors"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

// Surface is a differentiable loss over a fixed list of parameters.
type Surface struct {
	Name string
	// Init returns freshly allocated parameters at their starting point.
	Init func() []*Param
	// Backward returns the loss and adds its gradient into every Param.Grad.
	Backward func(params []*Param) float64
}

var coef = []float64{0.2, 2}

// Quadratic is f(w) = sum(x * w^2) with x = [0.2, 2], starting at w = [-6, 2].
var Quadratic = Surface{
	Name: "quadratic",
	Init: func() []*Param {
		return []*Param{NewParam("w", tensor.Vector(-6, 2))}
	},
	Backward: func(params []*Param) float64 {
		w := params[0]
		var loss float64
		for i, x := range coef {
			v := w.Data.Data[i]
			loss += x * v * v
			w.Grad.Data[i] += 2 * x * v
		}
		return loss
	},
}

// Affine is g(w, b) = sum(x * w + b) with x = [0.2, 2], starting at
// w = [-6, 2] and b = [1, -1].
var Affine = Surface{
	Name: "affine",
	Init: func() []*Param {
		return []*Param{
			NewParam("w", tensor.Vector(-6, 2)),
			NewParam("b", tensor.Vector(1, -1)),
		}
	},
	Backward: func(params []*Param) float64 {
		w, b := params[0], params[1]
		var loss float64
		for i, x := range coef {
			loss += x*w.Data.Data[i] + b.Data.Data[i]
			w.Grad.Data[i] += x
			b.Grad.Data[i]++
		}
		return loss
	},
}

// Surfaces are the loss surfaces every optimizer family is checked on.
var Surfaces = []Surface{Quadratic, Affine}

// Run optimizes a fresh copy of the surface's parameters for the given
// number of steps, zeroing gradients before each backward pass, and returns
// the final parameters. Step errors are returned unchanged.
func Run(factory Factory, hp Hyper, s Surface, steps int) ([]*Param, error) {
	params := s.Init()
	opt := factory(params, hp)
	if opt == nil {
		return nil, errors.New("optim: factory returned nil optimizer")
	}
	for range steps {
		opt.ZeroGrad()
		s.Backward(params)
		if err := opt.Step(); err != nil {
			return nil, err
		}
	}
	return params, nil
}
