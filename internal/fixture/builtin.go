package fixture

import (
	"sync"

	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
)

// Check names of the builtin course fixtures.
const (
	Closest             = "closest"
	Poly                = "poly"
	MultiplicationTable = "multiplication_table"

	MeanError        = "mean_error"
	MeanSquaredError = "mean_squared_error"
	MaxError         = "max_error"

	LossValues      = "loss_values"
	Minimizers      = "minimizers"
	LossGradients   = "loss_gradients"
	DatasetLosses   = "dataset_losses"
	LinRegLoss      = "linreg_loss"
	RegularizedLoss = "regularized_loss"

	LinearRegressionLoss            = "linear_regression/loss"
	RegularizedLinearRegressionLoss = "regularized_linear_regression/loss"
)

var (
	// torch.allclose(..., atol=1e-3) keeps the default rtol.
	atol1e3 = tolerance.Tolerance{RTol: 1e-5, ATol: 1e-3}
	// Trained-model goldens tolerate accumulation drift across iterations.
	trained = tolerance.Tolerance{RTol: 1e-3, ATol: 1e-6}
)

// Builtin returns the registry of course fixtures. The registry is built once
// and shared; it is immutable.
var Builtin = sync.OnceValue(func() *Registry {
	r, err := builtinBuilder().Build()
	if err != nil {
		panic("fixture: builtin table: " + err.Error())
	}
	return r
})

func builtinBuilder() *Builder {
	s := tensor.Scalar
	v := tensor.Vector
	b := NewBuilder()

	b.Add(Closest, tolerance.NumpyDefault,
		New(s(5), s(6), v(5, 3, 4)),
		New(s(9), s(10), v(12, 2, 8, 9, 13, 14)),
		New(s(0), s(-2), v(-5, 12, 6, 0, -14, 3)),
	)
	b.Add(Poly, tolerance.NumpyDefault,
		New(s(167.5), s(6), v(5.5, 3, 4)),
		New(s(1539832), s(10), v(12, 2, 8, 9, 13, 14)),
		New(s(-10809), s(-5), v(6, 3, -12, 9, -15)),
	)
	b.Add(MultiplicationTable, tolerance.Exact,
		New(tensor.Matrix(
			[]float64{1, 2, 3},
			[]float64{2, 4, 6},
			[]float64{3, 6, 9},
		), s(3)),
		New(tensor.Matrix(
			[]float64{1, 2, 3, 4, 5},
			[]float64{2, 4, 6, 8, 10},
			[]float64{3, 6, 9, 12, 15},
			[]float64{4, 8, 12, 16, 20},
			[]float64{5, 10, 15, 20, 25},
		), s(5)),
	)

	b.Add(LossValues+"/"+MeanError, tolerance.NumpyDefault,
		On("train_1d", s(8.897352), v(8)),
		On("train_2d", s(7.89366), v(2.5, 5.2)),
		On("train_10d", s(14.16922), tensor.Arange(10)),
	)
	b.Add(LossValues+"/"+MeanSquaredError, tolerance.NumpyDefault,
		On("train_1d", s(23.03568), v(3)),
		On("train_2d", s(124.9397), v(2.4, 8.9)),
		On("train_10d", s(519.1699), tensor.Arange(10).Scale(-1)),
	)
	b.Add(LossValues+"/"+MaxError, tolerance.NumpyDefault,
		On("train_1d", s(7.89418), v(3)),
		On("train_2d", s(14.8628), v(2.4, 8.9)),
		On("train_10d", s(23.1727), tensor.Linspace(0, 5, 10).Scale(-1)),
	)

	b.Add(Minimizers+"/"+MeanSquaredError, tolerance.NumpyDefault,
		On("train_1d", s(-0.89735)),
		On("train_1d*2", s(-1.79470584)),
	)
	b.Add(Minimizers+"/"+MeanError, tolerance.NumpyDefault,
		On("train_1d", s(-1.62603)),
		On("train_1d^2", s(3.965143)),
	)
	b.Add(Minimizers+"/"+MaxError, tolerance.NumpyDefault,
		On("train_1d", s(0.0152038)),
		On("train_1d/2", s(0.007601903895526174)),
	)

	b.Add(LossGradients+"/"+MeanError, tolerance.NumpyDefault,
		On("train_1d", v(0.46666667), v(0.99)),
		On("train_2d", v(0.21458924, 0.89772834), v(0.99, 8.44)),
		On("train_10d", v(
			-0.14131273, -0.031631, 0.04742431, 0.0353542, 0.16364242,
			0.23353252, 0.30958123, 0.35552034, 0.4747464, 0.55116738,
		), tensor.Linspace(0, 10, 10)),
	)
	b.Add(LossGradients+"/"+MeanSquaredError, tolerance.NumpyDefault,
		On("train_1d", v(4.27470585), v(1.24)),
		On("train_2d", v(-14.25378235, 21.80373175), v(-8.44, 10.24)),
	)
	b.Add(LossGradients+"/"+MaxError, tolerance.NumpyDefault,
		On("train_1d", v(1.0), v(5.25)),
		On("train_2d", v(-0.77818704, -0.62803259), v(-6.28, -4.45)),
	)

	b.Add(DatasetLosses+"/"+MeanSquaredError, atol1e3,
		On("lab04_0", s(13.8520)),
		On("lab04_1", s(31.6952)),
	)
	b.Add(DatasetLosses+"/"+MeanError, atol1e3,
		On("lab04_0", s(3.6090)),
		On("lab04_1", s(5.5731)),
	)
	b.Add(DatasetLosses+"/"+MaxError, atol1e3,
		On("lab04_0", s(7.1878)),
		On("lab04_1", s(7.5150)),
	)
	b.Add(LinRegLoss, atol1e3, On("lab04_linreg", s(29071.6699)))
	b.Add(RegularizedLoss, tolerance.NumpyDefault, On("lab04_linreg", s(29073.4551)))

	b.Add(LinearRegressionLoss, trained, On("diabetes", s(26004.287402)))
	b.Add(RegularizedLinearRegressionLoss, trained, On("diabetes", s(26111.08336411)))
	return b
}
