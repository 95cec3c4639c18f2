package checks

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/dataset"
	"github.com/m-kadula/ml2024-25/internal/fixture"
	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// Trained is the tolerance of trained-model goldens: iterative optimization
// accumulates rounding differences across implementations.
var Trained = tolerance.Tolerance{RTol: 1e-3, ATol: 1e-6}

// Seeds and settings of the trained-model checks.
const (
	LinearRegressionSeed   = 54
	LogisticRegressionSeed = 10
	LogisticSteps          = 10_000

	Diabetes = "diabetes"
)

// Check names of the trained-model checks.
const (
	LinearRegression            = "linear_regression"
	RegularizedLinearRegression = "regularized_linear_regression"
	LogisticRegression          = "logistic_regression"
)

// Regressor is a trainable regression model.
type Regressor interface {
	Fit(X, y tensor.Array) error
	Predict(X tensor.Array) (tensor.Array, error)
	Loss(X, y tensor.Array) (float64, error)
}

// RegressorFactory builds a regressor with default hyperparameters.
type RegressorFactory func(rng *rand.Rand) Regressor

// RegularizedRegressorFactory builds a regressor with a learning rate and an
// L2 penalty weight.
type RegularizedRegressorFactory func(lr, alpha float64, rng *rand.Rand) Regressor

// Classifier is a trainable binary classifier.
type Classifier interface {
	Fit(X, y tensor.Array, lr float64, steps int) error
	Predict(X tensor.Array) (tensor.Array, error)
	PredictProba(X tensor.Array) (tensor.Array, error)
}

// ClassifierFactory builds a classifier for the given number of features.
type ClassifierFactory func(features int, rng *rand.Rand) Classifier

// LinearRegression fits a default regressor on the diabetes data and checks
// its predictions and loss.
func (c *Checker) LinearRegression(newRegressor RegressorFactory) error {
	rng := verify.Seeded(LinearRegressionSeed)
	return c.regression(LinearRegression, fixture.LinearRegressionLoss, func() (Regressor, error) {
		return verify.Call(LinearRegression, -1, func() (Regressor, error) { return newRegressor(rng), nil })
	})
}

// RegularizedLinearRegression is LinearRegression with lr=1e-2 and
// alpha=1e-4.
func (c *Checker) RegularizedLinearRegression(newRegressor RegularizedRegressorFactory) error {
	rng := verify.Seeded(LinearRegressionSeed)
	return c.regression(RegularizedLinearRegression, fixture.RegularizedLinearRegressionLoss, func() (Regressor, error) {
		return verify.Call(RegularizedLinearRegression, -1, func() (Regressor, error) { return newRegressor(1e-2, 1e-4, rng), nil })
	})
}

func (c *Checker) regression(check, lossCheck string, build func() (Regressor, error)) error {
	d, err := c.dataset(Diabetes)
	if err != nil {
		return err
	}
	if !d.HasTarget() {
		return fmt.Errorf("%s: dataset %s has no target", check, Diabetes)
	}
	reg, err := build()
	if err != nil {
		return err
	}
	if reg == nil {
		return verify.Failf(check, "factory returned a nil regressor")
	}
	if err := verify.Invoke(check, func() error { return reg.Fit(d.Data.Clone(), d.Target.Clone()) }); err != nil {
		return err
	}
	pred, err := verify.Call(check, -1, func() (tensor.Array, error) { return reg.Predict(d.Data.Clone()) })
	if err != nil {
		return err
	}
	key := artifact.Key{Check: check, Variant: Diabetes, Name: "predictions"}.String()
	if err := c.golden(key, pred, Trained); err != nil {
		return err
	}

	lossKey := artifact.Key{Check: check, Variant: Diabetes, Name: "loss"}.String()
	if c.record != nil {
		v, err := verify.Call(check, -1, func() (float64, error) { return reg.Loss(d.Data.Clone(), d.Target.Clone()) })
		if err != nil {
			return err
		}
		return c.golden(lossKey, tensor.Scalar(v), Trained)
	}
	if c.store != nil {
		want, err := c.store.Load(lossKey)
		switch {
		case err == nil:
			return c.storedLoss(check, lossKey, reg, d, want)
		case !errors.Is(err, artifact.ErrNotFound):
			return fmt.Errorf("golden %s: %w", lossKey, err)
		}
	}
	// No recorded loss: fall back to the registry fixture.
	if !c.fixtures.Has(lossCheck) {
		return fmt.Errorf("%w: need %s or a %s fixture", ErrNoStore, lossKey, lossCheck)
	}
	s, err := c.set(lossCheck)
	if err != nil {
		return err
	}
	loss := func(...tensor.Array) (tensor.Array, error) {
		v, err := reg.Loss(d.Data.Clone(), d.Target.Clone())
		return tensor.Scalar(v), err
	}
	return c.run(loss, s)
}

// storedLoss compares the fitted regressor's loss with the recorded golden.
func (c *Checker) storedLoss(check, key string, reg Regressor, d dataset.Dataset, want tensor.Array) error {
	if want.Len() != 1 {
		return fmt.Errorf("golden %s: want a scalar, got shape %s", key, tensor.ShapeString(want.Shape))
	}
	got, err := verify.Call(check, -1, func() (float64, error) { return reg.Loss(d.Data.Clone(), d.Target.Clone()) })
	if err != nil {
		return err
	}
	if fail := verify.CompareScalar(check, -1, got, want.Data[0], c.tolerance(key, Trained)); fail != nil {
		fail.Message = Diabetes + "/loss: " + fail.Message
		return fail
	}
	return nil
}

// LogisticRegression fits a classifier on the 1 and 2 dimensional
// classification sets (lr 1e-3 and 1e-2, 10 000 steps each) and checks its
// class predictions and probabilities. One generator seeds both fits.
func (c *Checker) LogisticRegression(newClassifier ClassifierFactory) error {
	rng := verify.Seeded(LogisticRegressionSeed)
	for _, run := range []struct {
		name     string
		features int
		lr       float64
	}{
		{dataset.Classification1D, 1, 1e-3},
		{dataset.Classification2D, 2, 1e-2},
	} {
		if err := c.classification(rng, newClassifier, run.name, run.features, run.lr); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) classification(rng *rand.Rand, newClassifier ClassifierFactory, name string, features int, lr float64) error {
	const check = LogisticRegression
	d, err := c.dataset(name)
	if err != nil {
		return err
	}
	clf, err := verify.Call(check, -1, func() (Classifier, error) { return newClassifier(features, rng), nil })
	if err != nil {
		return err
	}
	if clf == nil {
		return verify.Failf(check, "factory returned a nil classifier")
	}
	if err := verify.Invoke(check, func() error {
		return clf.Fit(d.Data.Clone(), d.Target.Clone(), lr, LogisticSteps)
	}); err != nil {
		return err
	}
	outputs := []struct {
		name string
		fn   func(tensor.Array) (tensor.Array, error)
	}{
		{"out", clf.Predict},
		{"proba", clf.PredictProba},
		{"preds", clf.Predict},
	}
	for _, o := range outputs {
		got, err := verify.Call(check, -1, func() (tensor.Array, error) { return o.fn(d.Data.Clone()) })
		if err != nil {
			return err
		}
		key := artifact.Key{Check: check, Variant: name, Name: o.name}.String()
		if err := c.golden(key, got, Trained); err != nil {
			return err
		}
	}
	c.log.Debug("classifier verified", "check", check, "dataset", name)
	return nil
}
