// Package optim holds the reference gradient-descent optimizers and the loss
// surfaces candidate optimizers are compared on.
//
// The update rules follow the defaults of the common deep-learning reference
// library: no weight decay, no dampening, no Nesterov step, no AMSGrad.
package optim

import (
	"fmt"
	"math"
	"sort"

	"github.com/m-kadula/ml2024-25/internal/tensor"
)

// Param is a trainable array with its accumulated gradient.
type Param struct {
	Name string
	Data tensor.Array
	Grad tensor.Array
}

// NewParam returns a parameter holding a copy of init and a zero gradient.
func NewParam(name string, init tensor.Array) *Param {
	return &Param{Name: name, Data: init.Clone(), Grad: tensor.New(init.Shape...)}
}

// Optimizer updates its parameters in place from their gradients.
type Optimizer interface {
	Step() error
	ZeroGrad()
}

// Hyper carries every hyperparameter a family may read. Unused fields are
// ignored by a family.
type Hyper struct {
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
	Gamma        float64 `json:"gamma" yaml:"gamma"`
	Epsilon      float64 `json:"epsilon" yaml:"epsilon"`
	Beta1        float64 `json:"beta1" yaml:"beta1"`
	Beta2        float64 `json:"beta2" yaml:"beta2"`
}

// Factory constructs an optimizer over params.
type Factory func(params []*Param, hp Hyper) Optimizer

// Family names.
const (
	Momentum = "Momentum"
	Adagrad  = "Adagrad"
	RMSProp  = "RMSProp"
	Adadelta = "Adadelta"
	Adam     = "Adam"
)

// DefaultHyper is the per-family hyperparameter table candidates are
// checked with.
var DefaultHyper = map[string]Hyper{
	Momentum: {LearningRate: 0.1, Gamma: 0.9},
	Adagrad:  {LearningRate: 0.5, Epsilon: 1e-8},
	RMSProp:  {LearningRate: 0.5, Gamma: 0.9, Epsilon: 1e-8},
	Adadelta: {LearningRate: 1.0, Gamma: 0.9, Epsilon: 1e-1},
	Adam:     {LearningRate: 0.5, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8},
}

// Reference returns the reference factory of a family.
func Reference(family string) (Factory, error) {
	switch family {
	case Momentum:
		return NewMomentum, nil
	case Adagrad:
		return NewAdagrad, nil
	case RMSProp:
		return NewRMSProp, nil
	case Adadelta:
		return NewAdadelta, nil
	case Adam:
		return NewAdam, nil
	}
	return nil, fmt.Errorf("optim: unknown family %q", family)
}

// Families lists the known families in sorted order.
func Families() []string {
	out := make([]string, 0, len(DefaultHyper))
	for f := range DefaultHyper {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

type base struct {
	params []*Param
	state  [][]float64
}

func newBase(params []*Param, slots int) base {
	b := base{params: params, state: make([][]float64, len(params)*slots)}
	for i, p := range params {
		for s := range slots {
			b.state[i*slots+s] = make([]float64, p.Data.Len())
		}
	}
	return b
}

func (b *base) ZeroGrad() {
	for _, p := range b.params {
		clear(p.Grad.Data)
	}
}

type momentum struct {
	base
	hp    Hyper
	steps int
}

// NewMomentum is SGD with heavy-ball momentum. The first step seeds the
// velocity with the raw gradient.
func NewMomentum(params []*Param, hp Hyper) Optimizer {
	return &momentum{base: newBase(params, 1), hp: hp}
}

func (o *momentum) Step() error {
	o.steps++
	for i, p := range o.params {
		buf := o.state[i]
		for j, g := range p.Grad.Data {
			if o.steps == 1 {
				buf[j] = g
			} else {
				buf[j] = o.hp.Gamma*buf[j] + g
			}
			p.Data.Data[j] -= o.hp.LearningRate * buf[j]
		}
	}
	return nil
}

type adagrad struct {
	base
	hp Hyper
}

func NewAdagrad(params []*Param, hp Hyper) Optimizer {
	return &adagrad{base: newBase(params, 1), hp: hp}
}

func (o *adagrad) Step() error {
	for i, p := range o.params {
		sum := o.state[i]
		for j, g := range p.Grad.Data {
			sum[j] += g * g
			p.Data.Data[j] -= o.hp.LearningRate * g / (math.Sqrt(sum[j]) + o.hp.Epsilon)
		}
	}
	return nil
}

type rmsprop struct {
	base
	hp Hyper
}

// NewRMSProp uses Gamma as the smoothing constant of the squared average.
func NewRMSProp(params []*Param, hp Hyper) Optimizer {
	return &rmsprop{base: newBase(params, 1), hp: hp}
}

func (o *rmsprop) Step() error {
	a := o.hp.Gamma
	for i, p := range o.params {
		sq := o.state[i]
		for j, g := range p.Grad.Data {
			sq[j] = a*sq[j] + (1-a)*g*g
			p.Data.Data[j] -= o.hp.LearningRate * g / (math.Sqrt(sq[j]) + o.hp.Epsilon)
		}
	}
	return nil
}

type adadelta struct {
	base
	hp Hyper
}

// NewAdadelta uses Gamma as rho. A zero learning rate means 1.
func NewAdadelta(params []*Param, hp Hyper) Optimizer {
	if hp.LearningRate == 0 {
		hp.LearningRate = 1
	}
	return &adadelta{base: newBase(params, 2), hp: hp}
}

func (o *adadelta) Step() error {
	rho, eps := o.hp.Gamma, o.hp.Epsilon
	for i, p := range o.params {
		sq, acc := o.state[2*i], o.state[2*i+1]
		for j, g := range p.Grad.Data {
			sq[j] = rho*sq[j] + (1-rho)*g*g
			delta := math.Sqrt(acc[j]+eps) / math.Sqrt(sq[j]+eps) * g
			acc[j] = rho*acc[j] + (1-rho)*delta*delta
			p.Data.Data[j] -= o.hp.LearningRate * delta
		}
	}
	return nil
}

type adam struct {
	base
	hp    Hyper
	steps int
}

func NewAdam(params []*Param, hp Hyper) Optimizer {
	return &adam{base: newBase(params, 2), hp: hp}
}

func (o *adam) Step() error {
	o.steps++
	t := float64(o.steps)
	b1, b2 := o.hp.Beta1, o.hp.Beta2
	bc1 := 1 - math.Pow(b1, t)
	bc2 := 1 - math.Pow(b2, t)
	stepSize := o.hp.LearningRate / bc1
	for i, p := range o.params {
		m, v := o.state[2*i], o.state[2*i+1]
		for j, g := range p.Grad.Data {
			m[j] = b1*m[j] + (1-b1)*g
			v[j] = b2*v[j] + (1-b2)*g*g
			denom := math.Sqrt(v[j])/math.Sqrt(bc2) + o.hp.Epsilon
			p.Data.Data[j] -= stepSize * m[j] / denom
		}
	}
	return nil
}
