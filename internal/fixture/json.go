package fixture

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
)

// File layout:
//
//	{"checks": [{"check": "closest", "rtol": 1e-5, "atol": 1e-8,
//	  "fixtures": [{"variant": "", "inputs": [{"shape": [], "data": [6]}],
//	                "expected": {"shape": [], "data": [5]}}]}]}
type fileJSON struct {
	Checks []setJSON `json:"checks"`
}

type setJSON struct {
	Check    string        `json:"check"`
	RTol     float64       `json:"rtol"`
	ATol     float64       `json:"atol"`
	Fixtures []fixtureJSON `json:"fixtures"`
}

type fixtureJSON struct {
	Variant  string      `json:"variant,omitempty"`
	Inputs   []arrayJSON `json:"inputs,omitempty"`
	Expected arrayJSON   `json:"expected"`
}

type arrayJSON struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// ReadJSON decodes fixture sets from r into b.
func ReadJSON(r io.Reader, b *Builder) error {
	var doc fileJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("fixture: decode: %w", err)
	}
	for _, sj := range doc.Checks {
		fixtures := make([]Fixture, len(sj.Fixtures))
		for i, fj := range sj.Fixtures {
			f, err := fj.fixture()
			if err != nil {
				return fmt.Errorf("fixture: check %q fixture %d: %w", sj.Check, i, err)
			}
			fixtures[i] = f
		}
		b.Add(sj.Check, tolerance.Tolerance{RTol: sj.RTol, ATol: sj.ATol}, fixtures...)
	}
	return b.err
}

// LoadFile reads a JSON fixture file into b.
func LoadFile(path string, b *Builder) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := ReadJSON(f, b); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteJSON encodes every set of r in check name order.
func WriteJSON(w io.Writer, r *Registry) error {
	var doc fileJSON
	for _, name := range r.Checks() {
		s := r.sets[name]
		sj := setJSON{Check: name, RTol: s.Tolerance.RTol, ATol: s.Tolerance.ATol}
		for _, f := range s.Fixtures {
			fj := fixtureJSON{Variant: f.Variant, Expected: toArrayJSON(f.Expected)}
			for _, in := range f.Inputs {
				fj.Inputs = append(fj.Inputs, toArrayJSON(in))
			}
			sj.Fixtures = append(sj.Fixtures, fj)
		}
		doc.Checks = append(doc.Checks, sj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (fj fixtureJSON) fixture() (Fixture, error) {
	expected, err := fj.Expected.array()
	if err != nil {
		return Fixture{}, fmt.Errorf("expected: %w", err)
	}
	f := Fixture{Variant: fj.Variant, Expected: expected}
	for i, in := range fj.Inputs {
		a, err := in.array()
		if err != nil {
			return Fixture{}, fmt.Errorf("input %d: %w", i, err)
		}
		f.Inputs = append(f.Inputs, a)
	}
	return f, nil
}

func (aj arrayJSON) array() (tensor.Array, error) {
	return tensor.FromValues(aj.Data, aj.Shape)
}

func toArrayJSON(a tensor.Array) arrayJSON {
	shape := a.Shape
	if shape == nil {
		shape = []int{}
	}
	return arrayJSON{Shape: shape, Data: a.Data}
}
