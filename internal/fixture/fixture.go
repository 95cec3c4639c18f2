// Package fixture holds the golden (input, expected output) pairs that checks
// are verified against.
//
// Fixtures are gathered with a Builder and frozen into a Registry once at
// start-up. A Registry never changes after Build and every accessor returns
// deep copies, so checks can share one Registry without coordinating.
package fixture

import (
	"errors"
	"fmt"
	"sort"

	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
)

// ErrUnknownCheck is returned when a registry has no set for a check name.
var ErrUnknownCheck = errors.New("fixture: unknown check")

// Fixture is one (inputs, expected) pair.
//
// Variant names the dataset the inputs are applied to when part of the
// candidate's input comes from a dataset provider rather than the fixture
// itself. It is empty for self-contained fixtures.
type Fixture struct {
	Variant  string
	Inputs   []tensor.Array
	Expected tensor.Array
}

// New returns a self-contained fixture.
func New(expected tensor.Array, inputs ...tensor.Array) Fixture {
	return Fixture{Inputs: inputs, Expected: expected}
}

// On returns a fixture whose inputs are appended to the named dataset.
func On(variant string, expected tensor.Array, inputs ...tensor.Array) Fixture {
	return Fixture{Variant: variant, Inputs: inputs, Expected: expected}
}

// Clone returns a deep copy.
func (f Fixture) Clone() Fixture {
	out := Fixture{
		Variant:  f.Variant,
		Expected: f.Expected.Clone(),
	}
	if f.Inputs != nil {
		out.Inputs = make([]tensor.Array, len(f.Inputs))
		for i, in := range f.Inputs {
			out.Inputs[i] = in.Clone()
		}
	}
	return out
}

// Set is every fixture of one check together with its tolerance.
type Set struct {
	Check     string
	Tolerance tolerance.Tolerance
	Fixtures  []Fixture
}

// Len returns the number of fixtures.
func (s Set) Len() int { return len(s.Fixtures) }

// Clone returns a deep copy.
func (s Set) Clone() Set {
	out := Set{Check: s.Check, Tolerance: s.Tolerance}
	out.Fixtures = make([]Fixture, len(s.Fixtures))
	for i, f := range s.Fixtures {
		out.Fixtures[i] = f.Clone()
	}
	return out
}

// Registry is an immutable collection of fixture sets keyed by check name.
type Registry struct {
	sets map[string]Set
}

// Set returns a copy of the fixtures registered for check.
func (r *Registry) Set(check string) (Set, error) {
	if r == nil {
		return Set{}, fmt.Errorf("%w: %s", ErrUnknownCheck, check)
	}
	s, ok := r.sets[check]
	if !ok {
		return Set{}, fmt.Errorf("%w: %s", ErrUnknownCheck, check)
	}
	return s.Clone(), nil
}

// Has reports whether check is registered.
func (r *Registry) Has(check string) bool {
	if r == nil {
		return false
	}
	_, ok := r.sets[check]
	return ok
}

// Tolerance returns the tolerance registered for check.
func (r *Registry) Tolerance(check string) (tolerance.Tolerance, bool) {
	if r == nil {
		return tolerance.Tolerance{}, false
	}
	s, ok := r.sets[check]
	return s.Tolerance, ok
}

// Checks returns the registered check names in sorted order.
func (r *Registry) Checks() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder accumulates fixture sets. The first error is sticky and reported
// by Build, so calls can be chained.
type Builder struct {
	sets map[string]Set
	err  error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{sets: make(map[string]Set)}
}

// Add registers fixtures for a new check. Registering a check twice is an error.
func (b *Builder) Add(check string, tol tolerance.Tolerance, fixtures ...Fixture) *Builder {
	if b.err != nil {
		return b
	}
	if check == "" {
		b.err = errors.New("fixture: empty check name")
		return b
	}
	if _, dup := b.sets[check]; dup {
		b.err = fmt.Errorf("fixture: duplicate check %q", check)
		return b
	}
	if err := tol.Validate(); err != nil {
		b.err = fmt.Errorf("fixture: check %q: %w", check, err)
		return b
	}
	if len(fixtures) == 0 {
		b.err = fmt.Errorf("fixture: check %q has no fixtures", check)
		return b
	}
	s := Set{Check: check, Tolerance: tol, Fixtures: make([]Fixture, len(fixtures))}
	for i, f := range fixtures {
		if err := validate(f); err != nil {
			b.err = fmt.Errorf("fixture: check %q fixture %d: %w", check, i, err)
			return b
		}
		s.Fixtures[i] = f.Clone()
	}
	b.sets[check] = s
	return b
}

// Override replaces the tolerance of an already added check.
func (b *Builder) Override(check string, tol tolerance.Tolerance) *Builder {
	if b.err != nil {
		return b
	}
	s, ok := b.sets[check]
	if !ok {
		b.err = fmt.Errorf("%w: %s", ErrUnknownCheck, check)
		return b
	}
	if err := tol.Validate(); err != nil {
		b.err = fmt.Errorf("fixture: check %q: %w", check, err)
		return b
	}
	s.Tolerance = tol
	b.sets[check] = s
	return b
}

// Merge adds every set of r. Names already present are an error.
func (b *Builder) Merge(r *Registry) *Builder {
	for _, name := range r.Checks() {
		s := r.sets[name]
		b.Add(name, s.Tolerance, s.Fixtures...)
	}
	return b
}

// Build freezes the accumulated sets into a Registry.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	sets := make(map[string]Set, len(b.sets))
	for name, s := range b.sets {
		sets[name] = s.Clone()
	}
	return &Registry{sets: sets}, nil
}

func validate(f Fixture) error {
	if n, err := tensor.Size(f.Expected.Shape); err != nil || n != len(f.Expected.Data) {
		return fmt.Errorf("expected value has shape %s but %d elements", tensor.ShapeString(f.Expected.Shape), len(f.Expected.Data))
	}
	for i, in := range f.Inputs {
		if n, err := tensor.Size(in.Shape); err != nil || n != len(in.Data) {
			return fmt.Errorf("input %d has shape %s but %d elements", i, tensor.ShapeString(in.Shape), len(in.Data))
		}
	}
	return nil
}
