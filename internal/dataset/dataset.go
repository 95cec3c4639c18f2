// Package dataset supplies the fixed, reproducible inputs the course checks
// run candidates on.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/tensor"
)

// ErrUnknownDataset is returned when no provider knows a dataset name.
var ErrUnknownDataset = errors.New("dataset: unknown dataset")

// Dataset is a named input set. Target and Params are optional and have a
// nil Shape when absent.
type Dataset struct {
	Name   string
	Data   tensor.Array
	Target tensor.Array
	Params tensor.Array
}

// HasTarget reports whether a target array is present.
func (d Dataset) HasTarget() bool { return d.Target.Shape != nil }

// HasParams reports whether a parameter array is present.
func (d Dataset) HasParams() bool { return d.Params.Shape != nil }

// Clone returns a deep copy.
func (d Dataset) Clone() Dataset {
	out := Dataset{Name: d.Name, Data: d.Data.Clone()}
	if d.HasTarget() {
		out.Target = d.Target.Clone()
	}
	if d.HasParams() {
		out.Params = d.Params.Clone()
	}
	return out
}

// Provider resolves dataset names. Implementations must return the same
// values for the same name on every call.
type Provider interface {
	Dataset(name string) (Dataset, error)
}

// Static serves datasets from a map.
type Static map[string]Dataset

func (s Static) Dataset(name string) (Dataset, error) {
	d, ok := s[name]
	if !ok {
		return Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	d = d.Clone()
	d.Name = name
	return d, nil
}

// Chain asks each provider in turn, moving on only when a provider does not
// know the name.
type Chain []Provider

func (c Chain) Dataset(name string) (Dataset, error) {
	for _, p := range c {
		d, err := p.Dataset(name)
		if errors.Is(err, ErrUnknownDataset) {
			continue
		}
		return d, err
	}
	return Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
}

// StoreProvider reads datasets recorded in an artifact store under
// datasets/<name>/{data,target,params}.
type StoreProvider struct {
	Store artifact.Store
}

// DatasetKey returns the store key of one part of a dataset.
func DatasetKey(name, part string) string {
	return artifact.Key{Check: "datasets", Variant: name, Name: part}.String()
}

func (p StoreProvider) Dataset(name string) (Dataset, error) {
	data, err := p.Store.Load(DatasetKey(name, "data"))
	if errors.Is(err, artifact.ErrNotFound) {
		return Dataset{}, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	if err != nil {
		return Dataset{}, err
	}
	d := Dataset{Name: name, Data: data}
	if d.Target, err = p.optional(name, "target"); err != nil {
		return Dataset{}, err
	}
	if d.Params, err = p.optional(name, "params"); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

func (p StoreProvider) optional(name, part string) (tensor.Array, error) {
	a, err := p.Store.Load(DatasetKey(name, part))
	if errors.Is(err, artifact.ErrNotFound) {
		return tensor.Array{}, nil
	}
	return a, err
}

// Record writes d into w using the StoreProvider layout.
func Record(w artifact.Writer, d Dataset) error {
	if err := w.Put(DatasetKey(d.Name, "data"), d.Data); err != nil {
		return err
	}
	if d.HasTarget() {
		if err := w.Put(DatasetKey(d.Name, "target"), d.Target); err != nil {
			return err
		}
	}
	if d.HasParams() {
		if err := w.Put(DatasetKey(d.Name, "params"), d.Params); err != nil {
			return err
		}
	}
	return nil
}

// Derived serves elementwise transforms of another provider's datasets. A
// name such as "train_1d*2", "train_1d^2" or "train_1d/2" resolves the base
// name and applies the operator to every value of Data.
type Derived struct {
	Base Provider
}

func (p Derived) Dataset(name string) (Dataset, error) {
	i := strings.LastIndexAny(name, "*^/")
	if i <= 0 || i == len(name)-1 {
		return p.Base.Dataset(name)
	}
	var operand float64
	if _, err := fmt.Sscanf(name[i+1:], "%g", &operand); err != nil {
		return p.Base.Dataset(name)
	}
	base, err := p.Base.Dataset(name[:i])
	if err != nil {
		return Dataset{}, err
	}
	var op func(float64) float64
	switch name[i] {
	case '*':
		op = func(v float64) float64 { return v * operand }
	case '^':
		op = func(v float64) float64 { return math.Pow(v, operand) }
	case '/':
		op = func(v float64) float64 { return v / operand }
	}
	base.Name = name
	base.Data = base.Data.Map(op)
	return base, nil
}
