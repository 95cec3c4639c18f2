// Package checks contains the course checks: each one runs a student
// candidate on fixed inputs and verifies its outputs against golden values
// from the fixture registry or the reference-artifact store.
//
// Candidates are plain functions or small capability interfaces. Stochastic
// candidates receive an explicitly seeded *rand.Rand from the check.
package checks

import (
	"errors"
	"fmt"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/dataset"
	"github.com/m-kadula/ml2024-25/internal/fixture"
	"github.com/m-kadula/ml2024-25/internal/logger"
	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// ErrNoStore is returned by checks that need reference artifacts when the
// checker was built without a store.
var ErrNoStore = errors.New("checks: no artifact store configured")

// Options configures a Checker. Every field is optional.
type Options struct {
	// Fixtures defaults to fixture.Builtin().
	Fixtures *fixture.Registry
	// Store supplies golden arrays for trained-model checks.
	Store artifact.Store
	// Datasets supplies the inputs of dataset-driven checks. When nil and
	// Store is set, datasets are read from Store.
	Datasets dataset.Provider
	// Tolerances overrides the tolerance of golden arrays and property
	// checks by key (check or check/variant/name).
	Tolerances tolerance.Table
	// Record, when set, makes trained-model checks write their outputs as
	// new goldens instead of comparing them.
	Record artifact.Writer
	Logger logger.Logger
}

// Checker runs course checks. It holds only read-only collaborators and can
// be shared between goroutines.
type Checker struct {
	fixtures *fixture.Registry
	store    artifact.Store
	datasets dataset.Provider
	tols     tolerance.Table
	record   artifact.Writer
	log      logger.Logger
}

// New returns a Checker with the given options.
func New(opts Options) *Checker {
	c := &Checker{
		fixtures: opts.Fixtures,
		store:    opts.Store,
		datasets: opts.Datasets,
		tols:     opts.Tolerances,
		record:   opts.Record,
		log:      opts.Logger,
	}
	if c.fixtures == nil {
		c.fixtures = fixture.Builtin()
	}
	if c.datasets == nil && c.store != nil {
		c.datasets = dataset.StoreProvider{Store: c.store}
	}
	if c.datasets != nil {
		c.datasets = dataset.Derived{Base: c.datasets}
	}
	if c.log == nil {
		c.log = logger.Discard()
	}
	return c
}

// Fixtures returns the registry the checker verifies against.
func (c *Checker) Fixtures() *fixture.Registry { return c.fixtures }

func (c *Checker) tolerance(key string, fallback tolerance.Tolerance) tolerance.Tolerance {
	return c.tols.Lookup(key, fallback)
}

// set returns a fixture set with its tolerance override applied.
func (c *Checker) set(check string) (fixture.Set, error) {
	s, err := c.fixtures.Set(check)
	if err != nil {
		return fixture.Set{}, err
	}
	s.Tolerance = c.tolerance(check, s.Tolerance)
	return s, nil
}

func (c *Checker) dataset(name string) (dataset.Dataset, error) {
	if c.datasets == nil {
		return dataset.Dataset{}, fmt.Errorf("%w: no dataset provider for %s", dataset.ErrUnknownDataset, name)
	}
	return c.datasets.Dataset(name)
}

// withData resolves the dataset named by each fixture's variant and returns
// fixtures whose inputs are: Data, the fixture's own inputs, Params, Target.
// Absent parts are skipped; the result must hold exactly arity inputs.
func (c *Checker) withData(s fixture.Set, arity int) (fixture.Set, error) {
	out := s.Clone()
	for i, f := range out.Fixtures {
		d, err := c.dataset(f.Variant)
		if err != nil {
			return fixture.Set{}, fmt.Errorf("%s fixture %d: %w", s.Check, i, err)
		}
		inputs := make([]tensor.Array, 0, len(f.Inputs)+3)
		inputs = append(inputs, d.Data)
		inputs = append(inputs, f.Inputs...)
		if d.HasParams() {
			inputs = append(inputs, d.Params)
		}
		if d.HasTarget() {
			inputs = append(inputs, d.Target)
		}
		if len(inputs) != arity {
			return fixture.Set{}, fmt.Errorf("%s fixture %d: dataset %s yields %d inputs, want %d", s.Check, i, f.Variant, len(inputs), arity)
		}
		out.Fixtures[i].Inputs = inputs
	}
	return out, nil
}

// run verifies c against s and logs the outcome. A candidate error is
// returned as is; otherwise the joined comparison failures, if any.
func (c *Checker) run(candidate verify.Func, s fixture.Set) error {
	res, err := verify.VerifySet(candidate, s)
	if err != nil {
		c.log.Debug("candidate failed", "check", s.Check, "err", err)
		return err
	}
	c.logResult(res)
	return res.Err()
}

func (c *Checker) logResult(res verify.Result) {
	if res.Passed() {
		c.log.Debug("fixtures passed", "check", res.Check, "fixtures", res.Fixtures)
		return
	}
	for _, f := range res.Failures {
		c.log.Debug("fixture failed", "check", f.Check, "fixture", f.Fixture, "kind", string(f.Kind), "deviation", f.Deviation)
	}
}

// golden compares actual with the stored array under key, or records it when
// the checker is in record mode.
func (c *Checker) golden(key string, actual tensor.Array, fallback tolerance.Tolerance) error {
	k, err := artifact.ParseKey(key)
	if err != nil {
		return err
	}
	if c.record != nil {
		c.log.Debug("recording golden", "key", key, "shape", tensor.ShapeString(actual.Shape))
		return c.record.Put(key, actual)
	}
	if c.store == nil {
		return fmt.Errorf("%w: need %s", ErrNoStore, key)
	}
	expected, err := c.store.Load(key)
	if err != nil {
		return fmt.Errorf("golden %s: %w", key, err)
	}
	tol := c.tolerance(key, fallback)
	if fail := verify.Compare(k.Check, -1, actual, expected, tol); fail != nil {
		fail.Message = k.Variant + "/" + k.Name + ": " + fail.Message
		return fail
	}
	return nil
}
