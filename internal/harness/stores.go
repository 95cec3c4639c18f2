package harness

import (
	"context"
	"fmt"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// StoreChecks returns one check per golden key, comparing the array stored
// under the same key in actual. Tolerances are looked up per key in tols,
// falling back to def. A golden store with no keys is artifact.ErrEmpty.
func StoreChecks(golden, actual artifact.Store, tols tolerance.Table, def tolerance.Tolerance) ([]Check, error) {
	keys, err := golden.Keys()
	if err != nil {
		return nil, fmt.Errorf("golden: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("golden: %w", artifact.ErrEmpty)
	}
	checks := make([]Check, 0, len(keys))
	for _, key := range keys {
		checks = append(checks, Check{
			Name: key,
			Run: func(context.Context) error {
				return compareKey(golden, actual, key, tols.Lookup(key, def))
			},
		})
	}
	return checks, nil
}

func compareKey(golden, actual artifact.Store, key string, tol tolerance.Tolerance) error {
	want, err := golden.Load(key)
	if err != nil {
		return fmt.Errorf("golden: %w", err)
	}
	got, err := actual.Load(key)
	if err != nil {
		return fmt.Errorf("candidate output: %w", err)
	}
	if fail := verify.Compare(key, -1, got, want, tol); fail != nil {
		return fail
	}
	return nil
}
