package checks

import (
	"context"

	"github.com/m-kadula/ml2024-25/internal/harness"
	"github.com/m-kadula/ml2024-25/internal/optim"
)

// Candidates holds a student's implementations. Nil entries are not checked.
type Candidates struct {
	Closest             PointFunc
	Poly                PointFunc
	MultiplicationTable TableFunc

	LossValues      *LossSet[LossFunc]
	Minimizers      *LossSet[MinimizeFunc]
	LossGradients   *LossSet[GradFunc]
	DatasetLosses   *LossSet[LossFunc]
	LinRegLoss      RegressionLossFunc
	RegularizedLoss RegressionLossFunc

	LinearRegression            RegressorFactory
	RegularizedLinearRegression RegularizedRegressorFactory
	LogisticRegression          ClassifierFactory

	// Optimizers maps a family name to its candidate constructor.
	Optimizers map[string]optim.Factory

	Dropout   DropoutFactory
	BatchNorm NormalizerFactory
}

// Suite returns a harness check for every non-nil candidate, in course
// order.
func (c *Checker) Suite(cands Candidates) []harness.Check {
	var out []harness.Check
	add := func(name string, present bool, run func() error) {
		if present {
			out = append(out, harness.Check{Name: name, Run: func(context.Context) error { return run() }})
		}
	}
	add("closest", cands.Closest != nil, func() error { return c.Closest(cands.Closest) })
	add("poly", cands.Poly != nil, func() error { return c.Poly(cands.Poly) })
	add("multiplication_table", cands.MultiplicationTable != nil, func() error { return c.MultiplicationTable(cands.MultiplicationTable) })
	add("loss_values", cands.LossValues != nil, func() error { return c.LossValues(*cands.LossValues) })
	add("minimizers", cands.Minimizers != nil, func() error { return c.Minimizers(*cands.Minimizers) })
	add("loss_gradients", cands.LossGradients != nil, func() error { return c.LossGradients(*cands.LossGradients) })
	add("dataset_losses", cands.DatasetLosses != nil, func() error { return c.DatasetLosses(*cands.DatasetLosses) })
	add("linreg_loss", cands.LinRegLoss != nil, func() error { return c.LinRegLoss(cands.LinRegLoss) })
	add("regularized_loss", cands.RegularizedLoss != nil, func() error { return c.RegularizedLoss(cands.RegularizedLoss) })
	add(LinearRegression, cands.LinearRegression != nil, func() error { return c.LinearRegression(cands.LinearRegression) })
	add(RegularizedLinearRegression, cands.RegularizedLinearRegression != nil, func() error {
		return c.RegularizedLinearRegression(cands.RegularizedLinearRegression)
	})
	add(LogisticRegression, cands.LogisticRegression != nil, func() error { return c.LogisticRegression(cands.LogisticRegression) })
	for _, family := range optim.Families() {
		f, ok := cands.Optimizers[family]
		add("optimizer/"+family, ok && f != nil, func() error { return c.Optimizer(family, f) })
	}
	add(Dropout, cands.Dropout != nil, func() error { return c.Dropout(cands.Dropout) })
	add(BatchNorm, cands.BatchNorm != nil, func() error { return c.BatchNorm(cands.BatchNorm) })
	return out
}
