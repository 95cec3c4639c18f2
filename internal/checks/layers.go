package checks

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/m-kadula/ml2024-25/internal/optim"
	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// Check names and settings of the layer checks.
const (
	Dropout   = "dropout"
	BatchNorm = "batch_norm"

	DropoutP    = 0.5
	DropoutSeed = 7

	BatchNormSeed     = 42
	BatchNormEvalSeed = 43
	BatchNormFeatures = 100
	BatchNormBatch    = 20
	BatchNormSteps    = 10
	BatchNormLR       = 0.1
	BatchNormEps      = 1e-5
)

// BatchNormEval is the tolerance between a normalizer's eval output and the
// normalization computed from its own running statistics.
var BatchNormEval = tolerance.Tolerance{RTol: 1e-3, ATol: 1e-4}

// Layer is a module with distinct training and evaluation behavior.
type Layer interface {
	Forward(x tensor.Array) (tensor.Array, error)
	Train()
	Eval()
}

// DropoutFactory builds a dropout layer with drop probability p.
type DropoutFactory func(p float64, rng *rand.Rand) Layer

// Normalizer is a batch normalization layer over the last dimension of a
// rank-2 input.
type Normalizer interface {
	Layer
	// Backward adds the gradients of the learnable parameters for gradOut,
	// the loss gradient with respect to the last Forward output.
	Backward(gradOut tensor.Array) error
	// Params returns the live learnable parameters, scale "gamma" and shift
	// "beta". The check updates them in place.
	Params() []*optim.Param
	// RunningStats returns the running mean and variance used in eval mode.
	RunningStats() (mean, variance tensor.Array)
}

// NormalizerFactory builds a normalizer for the given number of features.
type NormalizerFactory func(features int, rng *rand.Rand) Normalizer

// Dropout checks a dropout layer with p=0.5 on a 10x30 batch: in training
// mode every row loses some but not all values and survivors are scaled by
// exactly 1/(1-p); in eval mode nothing is dropped.
func (c *Checker) Dropout(newLayer DropoutFactory) error {
	return c.DropoutSeeded(DropoutSeed, newLayer)
}

// DropoutSeeded is Dropout with an explicit seed.
func (c *Checker) DropoutSeeded(seed uint64, newLayer DropoutFactory) error {
	const check = Dropout
	rng := verify.Seeded(seed)
	x := tensor.RandN(rng, 10, 30)

	train, err := c.forward(check, func() Layer { return newLayer(DropoutP, rng) }, true, x)
	if err != nil {
		return err
	}
	scale := 1 / (1 - DropoutP)
	for i := range x.Rows() {
		row, in := train.Row(i), x.Row(i)
		zeros := tensor.CountZeros(row)
		if err := verify.Require(zeros > 0 && zeros < len(row), check,
			"training row %d has %d of %d values dropped", i, zeros, len(row)); err != nil {
			return err
		}
		for j, v := range row {
			if v != 0 && v != scale*in[j] {
				return verify.Failf(check, "training row %d column %d: got %g, want %g or 0", i, j, v, scale*in[j])
			}
		}
	}

	x = tensor.RandN(rng, 10, 30)
	eval, err := c.forward(check, func() Layer { return newLayer(DropoutP, rng) }, false, x)
	if err != nil {
		return err
	}
	for i := range x.Rows() {
		if zeros := tensor.CountZeros(eval.Row(i)); zeros != 0 {
			return verify.Failf(check, "eval row %d has %d values dropped", i, zeros)
		}
	}
	c.log.Debug("dropout verified", "check", check, "seed", seed)
	return nil
}

// forward builds a fresh layer, switches its mode and runs one batch. The
// output must have the input's shape.
func (c *Checker) forward(check string, build func() Layer, training bool, x tensor.Array) (tensor.Array, error) {
	out, err := verify.Call(check, -1, func() (tensor.Array, error) {
		l := build()
		if l == nil {
			return tensor.Array{}, verify.Failf(check, "factory returned a nil layer")
		}
		if training {
			l.Train()
		} else {
			l.Eval()
		}
		return l.Forward(x.Clone())
	})
	if err != nil {
		return tensor.Array{}, err
	}
	if err := sameLayout(check, out, x); err != nil {
		return tensor.Array{}, err
	}
	return out, nil
}

// BatchNorm checks a normalizer:
//
//   - training output over a uniform batch has mean ~0 and variance ~1;
//   - the running statistics move away from their initial values;
//   - one SGD step on loss 1-mean(out) moves every shift parameter;
//   - after more steps, eval output on normal input equals the
//     normalization by the running statistics, not by the batch statistics.
func (c *Checker) BatchNorm(newNormalizer NormalizerFactory) error {
	const check = BatchNorm
	const n, f = BatchNormBatch, BatchNormFeatures
	rng := verify.Seeded(BatchNormSeed)

	bn, err := verify.Call(check, -1, func() (Normalizer, error) { return newNormalizer(f, rng), nil })
	if err != nil {
		return err
	}
	if bn == nil {
		return verify.Failf(check, "factory returned a nil normalizer")
	}
	gamma, beta, err := normParams(check, bn)
	if err != nil {
		return err
	}
	opt := optim.NewMomentum([]*optim.Param{gamma, beta}, optim.Hyper{LearningRate: BatchNormLR})

	if err := verify.Invoke(check, func() error { bn.Train(); return nil }); err != nil {
		return err
	}
	if err := c.normStep(check, bn, opt, tensor.Rand(rng, n, f), true); err != nil {
		return err
	}
	for i := range BatchNormSteps {
		if err := c.normStep(check, bn, opt, tensor.Rand(rng, n, f), false); err != nil {
			c.log.Debug("training step failed", "check", check, "step", i)
			return err
		}
	}

	test := tensor.RandN(verify.Seeded(BatchNormEvalSeed), n, f)
	got, err := verify.Call(check, -1, func() (tensor.Array, error) {
		bn.Eval()
		return bn.Forward(test.Clone())
	})
	if err != nil {
		return err
	}
	mean, variance, err := runningStats(check, bn, f)
	if err != nil {
		return err
	}
	if gamma, beta, err = normParams(check, bn); err != nil {
		return err
	}
	want := normalize(test, mean.Data, variance.Data, gamma.Data.Data, beta.Data.Data)
	if fail := verify.Compare(check, -1, got, want, c.tolerance(check, BatchNormEval)); fail != nil {
		fail.Message = "eval output does not use running statistics: " + fail.Message
		return fail
	}
	batch := normalize(test, tensor.ColumnMean(test).Data, tensor.ColumnVariance(test).Data, gamma.Data.Data, beta.Data.Data)
	if verify.Compare(check, -1, got, batch, BatchNormEval) == nil {
		return verify.Failf(check, "eval output is normalized by batch statistics")
	}
	c.log.Debug("batch norm verified", "check", check)
	return nil
}

// normStep runs forward, checks the training properties on the first step,
// and applies one SGD update for loss 1-mean(out).
func (c *Checker) normStep(check string, bn Normalizer, opt optim.Optimizer, x tensor.Array, first bool) error {
	out, err := verify.Call(check, -1, func() (tensor.Array, error) { return bn.Forward(x.Clone()) })
	if err != nil {
		return err
	}
	if err := sameLayout(check, out, x); err != nil {
		return err
	}
	if first {
		if m := tensor.Mean(out); !(math.Abs(m) < 1e-4) {
			return verify.Failf(check, "training output mean %g, want |mean| < 1e-4", m)
		}
		if v := tensor.Variance(out); !(math.Abs(v-1) < 1e-1) {
			return verify.Failf(check, "training output variance %g, want |var-1| < 0.1", v)
		}
		mean, variance, err := runningStats(check, bn, x.Cols())
		if err != nil {
			return err
		}
		for j := range mean.Data {
			if mean.Data[j] == 0 || variance.Data[j] == 1 {
				return verify.Failf(check, "running statistics of feature %d not updated: mean %g variance %g", j, mean.Data[j], variance.Data[j])
			}
		}
	}

	opt.ZeroGrad()
	grad := tensor.New(out.Shape...)
	for i := range grad.Data {
		grad.Data[i] = -1 / float64(len(grad.Data))
	}
	if err := verify.Invoke(check, func() error { return bn.Backward(grad) }); err != nil {
		return err
	}
	if err := opt.Step(); err != nil {
		return err
	}

	if first {
		_, beta, err := normParams(check, bn)
		if err != nil {
			return err
		}
		for j, v := range beta.Data.Data {
			if v == 0 {
				return verify.Failf(check, "shift parameter %d unchanged after one step", j)
			}
		}
	}
	return nil
}

func normParams(check string, bn Normalizer) (gamma, beta *optim.Param, err error) {
	params, err := verify.Call(check, -1, func() ([]*optim.Param, error) { return bn.Params(), nil })
	if err != nil {
		return nil, nil, err
	}
	for _, p := range params {
		switch p.Name {
		case "gamma":
			gamma = p
		case "beta":
			beta = p
		}
	}
	if gamma == nil || beta == nil {
		return nil, nil, verify.Failf(check, "normalizer must expose parameters named gamma and beta")
	}
	if gamma.Data.Len() != BatchNormFeatures || beta.Data.Len() != BatchNormFeatures ||
		gamma.Grad.Len() != gamma.Data.Len() || beta.Grad.Len() != beta.Data.Len() {
		return nil, nil, verify.Failf(check, "gamma and beta must hold %d values with matching gradients", BatchNormFeatures)
	}
	return gamma, beta, nil
}

func runningStats(check string, bn Normalizer, features int) (mean, variance tensor.Array, err error) {
	type stats struct{ mean, variance tensor.Array }
	s, err := verify.Call(check, -1, func() (stats, error) {
		m, v := bn.RunningStats()
		return stats{m, v}, nil
	})
	if err != nil {
		return tensor.Array{}, tensor.Array{}, err
	}
	if s.mean.Len() != features || s.variance.Len() != features {
		return tensor.Array{}, tensor.Array{}, verify.Failf(check, "running statistics must hold %d values, got %d and %d",
			features, s.mean.Len(), s.variance.Len())
	}
	return s.mean, s.variance, nil
}

// normalize computes (x-mean)/sqrt(var+eps)*gamma+beta per column.
func normalize(x tensor.Array, mean, variance, gamma, beta []float64) tensor.Array {
	out := tensor.New(x.Shape...)
	for i := range x.Rows() {
		in, row := x.Row(i), out.Row(i)
		for j, v := range in {
			row[j] = (v-mean[j])/math.Sqrt(variance[j]+BatchNormEps)*gamma[j] + beta[j]
		}
	}
	return out
}

// sameLayout requires out to have x's exact shape and a data slice of the
// matching length, so the rows of out can be indexed safely.
func sameLayout(check string, out, x tensor.Array) *verify.Error {
	switch {
	case !out.SameShape(x):
		return shapeError(check, "output shape "+tensor.ShapeString(out.Shape)+", want "+tensor.ShapeString(x.Shape))
	case out.Len() != x.Len():
		return shapeError(check, fmt.Sprintf("output shape %s holds %d values, want %d",
			tensor.ShapeString(out.Shape), out.Len(), x.Len()))
	}
	return nil
}

func shapeError(check, msg string) *verify.Error {
	return &verify.Error{
		Kind:    verify.ShapeMismatch,
		Check:   check,
		Fixture: -1,
		Message: msg,
	}
}
