package checks

import (
	"github.com/m-kadula/ml2024-25/internal/optim"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// OptimizerSteps is the number of updates compared per surface.
const OptimizerSteps = 10

// Optimizer checks that a candidate optimizer of the given family ends at
// the same parameters as the reference implementation on every loss surface,
// using the family's hyperparameters from optim.DefaultHyper.
func (c *Checker) Optimizer(family string, newOptimizer optim.Factory) error {
	check := "optimizer/" + family
	reference, err := optim.Reference(family)
	if err != nil {
		return err
	}
	hp := optim.DefaultHyper[family]
	tol := c.tolerance(check, tolerance.NumpyDefault)

	res := verify.Result{Check: check}
	for _, s := range optim.Surfaces {
		want, err := optim.Run(reference, hp, s, OptimizerSteps)
		if err != nil {
			return err
		}
		got, err := verify.Call(check, -1, func() ([]*optim.Param, error) {
			return optim.Run(newOptimizer, hp, s, OptimizerSteps)
		})
		if err != nil {
			return err
		}
		for i, w := range want {
			idx := res.Fixtures
			res.Fixtures++
			if fail := verify.Compare(check, idx, got[i].Data, w.Data, tol); fail != nil {
				fail.Message = s.Name + " " + w.Name + ": " + fail.Message
				res.Failures = append(res.Failures, fail)
			}
		}
	}
	c.logResult(res)
	return res.Err()
}
