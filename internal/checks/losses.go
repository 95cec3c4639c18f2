package checks

import (
	"github.com/m-kadula/ml2024-25/internal/fixture"
	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// LossFunc evaluates a loss of param on a dataset.
type LossFunc func(data, param tensor.Array) (float64, error)

// MinimizeFunc returns the parameter minimizing a loss on a dataset.
type MinimizeFunc func(data tensor.Array) (float64, error)

// GradFunc returns the gradient of a loss with respect to param.
type GradFunc func(data, param tensor.Array) (tensor.Array, error)

// RegressionLossFunc evaluates a regression loss for features X, weights w
// and targets y.
type RegressionLossFunc func(X, w, y tensor.Array) (float64, error)

// LossSet groups the three losses of the first lab.
type LossSet[F any] struct {
	MeanError        F
	MeanSquaredError F
	MaxError         F
}

func (s LossSet[F]) each(yield func(name string, fn F) error) error {
	for _, e := range []struct {
		name string
		fn   F
	}{
		{fixture.MeanError, s.MeanError},
		{fixture.MeanSquaredError, s.MeanSquaredError},
		{fixture.MaxError, s.MaxError},
	} {
		if err := yield(e.name, e.fn); err != nil {
			return err
		}
	}
	return nil
}

func (fn LossFunc) verify(inputs ...tensor.Array) (tensor.Array, error) {
	v, err := fn(inputs[0], inputs[1])
	if err != nil {
		return tensor.Array{}, err
	}
	return tensor.Scalar(v), nil
}

func (fn MinimizeFunc) verify(inputs ...tensor.Array) (tensor.Array, error) {
	v, err := fn(inputs[0])
	if err != nil {
		return tensor.Array{}, err
	}
	return tensor.Scalar(v), nil
}

func (fn GradFunc) verify(inputs ...tensor.Array) (tensor.Array, error) {
	return fn(inputs[0], inputs[1])
}

func (fn RegressionLossFunc) verify(inputs ...tensor.Array) (tensor.Array, error) {
	v, err := fn(inputs[0], inputs[1], inputs[2])
	if err != nil {
		return tensor.Array{}, err
	}
	return tensor.Scalar(v), nil
}

// dataCheck runs a dataset-driven fixture set.
func (c *Checker) dataCheck(name string, arity int, candidate verify.Func) error {
	s, err := c.set(name)
	if err != nil {
		return err
	}
	s, err = c.withData(s, arity)
	if err != nil {
		return err
	}
	return c.run(candidate, s)
}

// LossValues checks the mean, mean squared and max error of a parameter on
// the 1, 2 and 10 dimensional training sets.
func (c *Checker) LossValues(fns LossSet[LossFunc]) error {
	return fns.each(func(name string, fn LossFunc) error {
		return c.dataCheck(fixture.LossValues+"/"+name, 2, fn.verify)
	})
}

// Minimizers checks the closed-form or searched minimizers of each loss on
// the 1 dimensional training set and a transformed copy of it.
func (c *Checker) Minimizers(fns LossSet[MinimizeFunc]) error {
	return fns.each(func(name string, fn MinimizeFunc) error {
		return c.dataCheck(fixture.Minimizers+"/"+name, 1, fn.verify)
	})
}

// LossGradients checks the gradient of each loss with respect to the
// parameter.
func (c *Checker) LossGradients(fns LossSet[GradFunc]) error {
	return fns.each(func(name string, fn GradFunc) error {
		return c.dataCheck(fixture.LossGradients+"/"+name, 2, fn.verify)
	})
}

// DatasetLosses checks each loss on the two lab datasets, whose parameter
// vector is part of the dataset.
func (c *Checker) DatasetLosses(fns LossSet[LossFunc]) error {
	return fns.each(func(name string, fn LossFunc) error {
		return c.dataCheck(fixture.DatasetLosses+"/"+name, 2, fn.verify)
	})
}

// LinRegLoss checks the linear regression loss fn(X, w, y).
func (c *Checker) LinRegLoss(fn RegressionLossFunc) error {
	return c.dataCheck(fixture.LinRegLoss, 3, fn.verify)
}

// RegularizedLoss checks the regularized linear regression loss fn(X, w, y).
func (c *Checker) RegularizedLoss(fn RegressionLossFunc) error {
	return c.dataCheck(fixture.RegularizedLoss, 3, fn.verify)
}
