package checks

import (
	"math"
	"math/rand/v2"

	"github.com/m-kadula/ml2024-25/internal/optim"
	"github.com/m-kadula/ml2024-25/internal/tensor"
)

// Reference candidates: straightforward solutions of the course exercises
// used to exercise the checks.

func closest(x float64, xs tensor.Array) (float64, error) {
	best := xs.Data[0]
	for _, v := range xs.Data[1:] {
		if math.Abs(v-x) < math.Abs(best-x) {
			best = v
		}
	}
	return best, nil
}

func poly(x float64, coef tensor.Array) (float64, error) {
	var sum float64
	for i := len(coef.Data) - 1; i >= 0; i-- {
		sum = sum*x + coef.Data[i]
	}
	return sum, nil
}

func multiplicationTable(n int) (tensor.Array, error) {
	out := tensor.New(n, n)
	for i := range n {
		for j := range n {
			out.Set(float64((i+1)*(j+1)), i, j)
		}
	}
	return out, nil
}

// Datasets of the loss tests hold (x, y) rows; the model is y = a*x.
func residuals(data, param tensor.Array) []float64 {
	a := param.Data[0]
	out := make([]float64, data.Rows())
	for i := range out {
		row := data.Row(i)
		out[i] = row[1] - a*row[0]
	}
	return out
}

func meanError(data, param tensor.Array) (float64, error) {
	var sum float64
	for _, r := range residuals(data, param) {
		sum += math.Abs(r)
	}
	return sum / float64(data.Rows()), nil
}

func meanSquaredError(data, param tensor.Array) (float64, error) {
	var sum float64
	for _, r := range residuals(data, param) {
		sum += r * r
	}
	return sum / float64(data.Rows()), nil
}

func maxError(data, param tensor.Array) (float64, error) {
	var m float64
	for _, r := range residuals(data, param) {
		m = math.Max(m, math.Abs(r))
	}
	return m, nil
}

func minimizeMSE(data tensor.Array) (float64, error) {
	var xy, xx float64
	for i := range data.Rows() {
		row := data.Row(i)
		xy += row[0] * row[1]
		xx += row[0] * row[0]
	}
	return xy / xx, nil
}

func mseGrad(data, param tensor.Array) (tensor.Array, error) {
	var g float64
	for i, r := range residuals(data, param) {
		g += -2 * r * data.Row(i)[0]
	}
	return tensor.Vector(g / float64(data.Rows())), nil
}

func linRegLoss(X, w, y tensor.Array) (float64, error) {
	var sum float64
	for i := range X.Rows() {
		r := tensor.Dot(X.Row(i), w.Data) - y.Data[i]
		sum += r * r
	}
	return sum / float64(X.Rows()), nil
}

// linearRegression is full-batch gradient descent on the mean squared error
// with an optional L2 penalty.
type linearRegression struct {
	lr, alpha float64
	steps     int
	rng       *rand.Rand
	w         []float64
	b         float64
}

func newLinearRegression(rng *rand.Rand) Regressor {
	return &linearRegression{lr: 1e-1, steps: 500, rng: rng}
}

func newRegularizedLinearRegression(lr, alpha float64, rng *rand.Rand) Regressor {
	return &linearRegression{lr: lr * 10, alpha: alpha, steps: 500, rng: rng}
}

func (m *linearRegression) Fit(X, y tensor.Array) error {
	n, f := X.Rows(), X.Cols()
	m.w = make([]float64, f)
	for j := range m.w {
		m.w[j] = 0.01 * m.rng.NormFloat64()
	}
	gw := make([]float64, f)
	for range m.steps {
		clear(gw)
		var gb float64
		for i := range n {
			r := tensor.Dot(X.Row(i), m.w) + m.b - y.Data[i]
			for j, x := range X.Row(i) {
				gw[j] += 2 * r * x / float64(n)
			}
			gb += 2 * r / float64(n)
		}
		for j := range m.w {
			m.w[j] -= m.lr * (gw[j] + 2*m.alpha*m.w[j])
		}
		m.b -= m.lr * gb
	}
	return nil
}

func (m *linearRegression) Predict(X tensor.Array) (tensor.Array, error) {
	out := tensor.New(X.Rows())
	for i := range X.Rows() {
		out.Data[i] = tensor.Dot(X.Row(i), m.w) + m.b
	}
	return out, nil
}

func (m *linearRegression) Loss(X, y tensor.Array) (float64, error) {
	pred, _ := m.Predict(X)
	var sum float64
	for i, p := range pred.Data {
		sum += (p - y.Data[i]) * (p - y.Data[i])
	}
	return sum / float64(len(pred.Data)), nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// logisticRegression is gradient descent on the binary cross-entropy.
type logisticRegression struct {
	w []float64
	b float64
}

func newLogisticRegression(features int, rng *rand.Rand) Classifier {
	w := make([]float64, features)
	for j := range w {
		w[j] = 0.01 * rng.NormFloat64()
	}
	return &logisticRegression{w: w}
}

func (m *logisticRegression) Fit(X, y tensor.Array, lr float64, steps int) error {
	n := X.Rows()
	gw := make([]float64, len(m.w))
	for range steps {
		clear(gw)
		var gb float64
		for i := range n {
			d := sigmoid(tensor.Dot(X.Row(i), m.w)+m.b) - y.Data[i]
			for j, x := range X.Row(i) {
				gw[j] += d * x / float64(n)
			}
			gb += d / float64(n)
		}
		for j := range m.w {
			m.w[j] -= lr * gw[j]
		}
		m.b -= lr * gb
	}
	return nil
}

func (m *logisticRegression) PredictProba(X tensor.Array) (tensor.Array, error) {
	out := tensor.New(X.Rows())
	for i := range X.Rows() {
		out.Data[i] = sigmoid(tensor.Dot(X.Row(i), m.w) + m.b)
	}
	return out, nil
}

func (m *logisticRegression) Predict(X tensor.Array) (tensor.Array, error) {
	p, _ := m.PredictProba(X)
	return p.Map(func(v float64) float64 {
		if v > 0.5 {
			return 1
		}
		return 0
	}), nil
}

type dropout struct {
	p        float64
	rng      *rand.Rand
	training bool
}

func newDropout(p float64, rng *rand.Rand) Layer {
	return &dropout{p: p, rng: rng, training: true}
}

func (d *dropout) Train() { d.training = true }
func (d *dropout) Eval()  { d.training = false }

func (d *dropout) Forward(x tensor.Array) (tensor.Array, error) {
	if !d.training {
		return x.Clone(), nil
	}
	scale := 1 / (1 - d.p)
	return x.Map(func(v float64) float64 {
		if d.rng.Float64() < d.p {
			return 0
		}
		return v * scale
	}), nil
}

type batchNorm struct {
	gamma, beta *optim.Param
	runMean     []float64
	runVar      []float64
	xhat        tensor.Array
	training    bool
	// evalBatchStats makes eval mode normalize by batch statistics.
	evalBatchStats bool
	// frozen keeps the running statistics at their initial values.
	frozen bool
}

func newBatchNorm(features int, _ *rand.Rand) Normalizer {
	ones := tensor.New(features).Map(func(float64) float64 { return 1 })
	bn := &batchNorm{
		gamma:    optim.NewParam("gamma", ones),
		beta:     optim.NewParam("beta", tensor.New(features)),
		runMean:  make([]float64, features),
		runVar:   ones.Clone().Data,
		training: true,
	}
	return bn
}

func (bn *batchNorm) Train() { bn.training = true }
func (bn *batchNorm) Eval()  { bn.training = false }

func (bn *batchNorm) Params() []*optim.Param { return []*optim.Param{bn.gamma, bn.beta} }

func (bn *batchNorm) RunningStats() (tensor.Array, tensor.Array) {
	return tensor.Vector(bn.runMean...), tensor.Vector(bn.runVar...)
}

func (bn *batchNorm) Forward(x tensor.Array) (tensor.Array, error) {
	mean, variance := bn.runMean, bn.runVar
	if bn.training || bn.evalBatchStats {
		mean = tensor.ColumnMean(x).Data
		variance = tensor.ColumnVariance(x).Data
	}
	n := float64(x.Rows())
	xhat := tensor.New(x.Shape...)
	out := tensor.New(x.Shape...)
	for i := range x.Rows() {
		for j, v := range x.Row(i) {
			h := (v - mean[j]) / math.Sqrt(variance[j]+BatchNormEps)
			xhat.Row(i)[j] = h
			out.Row(i)[j] = h*bn.gamma.Data.Data[j] + bn.beta.Data.Data[j]
		}
	}
	if bn.training {
		bn.xhat = xhat
		if !bn.frozen {
			for j := range bn.runMean {
				bn.runMean[j] = 0.9*bn.runMean[j] + 0.1*mean[j]
				bn.runVar[j] = 0.9*bn.runVar[j] + 0.1*variance[j]*n/(n-1)
			}
		}
	}
	return out, nil
}

func (bn *batchNorm) Backward(gradOut tensor.Array) error {
	for i := range gradOut.Rows() {
		for j, g := range gradOut.Row(i) {
			bn.gamma.Grad.Data[j] += g * bn.xhat.Row(i)[j]
			bn.beta.Grad.Data[j] += g
		}
	}
	return nil
}
