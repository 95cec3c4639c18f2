// Package published carries the golden outputs printed in the graph neural
// network and attention labs. Those labs have no Go candidate interface:
// notebooks export their outputs to a store, and goldcheck compare checks it
// against a store seeded from these tables.
package published

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/tensor"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
)

//go:embed tables.json
var tablesJSON []byte

type fileJSON struct {
	Arrays []tableJSON `json:"arrays"`
}

type tableJSON struct {
	Key   string    `json:"key"`
	RTol  float64   `json:"rtol"`
	ATol  float64   `json:"atol"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Table is one published golden array. The tolerance reflects the number of
// decimals the lab printed.
type Table struct {
	Key       string
	Tolerance tolerance.Tolerance
	Array     tensor.Array
}

var load = sync.OnceValues(func() ([]Table, error) {
	return decode(tablesJSON)
})

func decode(data []byte) ([]Table, error) {
	var doc fileJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("published: decode: %w", err)
	}
	tables := make([]Table, 0, len(doc.Arrays))
	seen := make(map[string]bool, len(doc.Arrays))
	for _, tj := range doc.Arrays {
		if _, err := artifact.ParseKey(tj.Key); err != nil {
			return nil, fmt.Errorf("published: %w", err)
		}
		if seen[tj.Key] {
			return nil, fmt.Errorf("published: duplicate key %s", tj.Key)
		}
		seen[tj.Key] = true
		tol := tolerance.Tolerance{RTol: tj.RTol, ATol: tj.ATol}
		if err := tol.Validate(); err != nil {
			return nil, fmt.Errorf("published: %s: %w", tj.Key, err)
		}
		a, err := tensor.FromValues(tj.Data, tj.Shape)
		if err != nil {
			return nil, fmt.Errorf("published: %s: %w", tj.Key, err)
		}
		tables = append(tables, Table{Key: tj.Key, Tolerance: tol, Array: a})
	}
	return tables, nil
}

// Tables returns copies of the published goldens in key order.
func Tables() ([]Table, error) {
	tables, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]Table, len(tables))
	for i, t := range tables {
		out[i] = Table{Key: t.Key, Tolerance: t.Tolerance, Array: t.Array.Clone()}
	}
	return out, nil
}

// Tolerances returns the tolerance of every published key.
func Tolerances() (tolerance.Table, error) {
	tables, err := load()
	if err != nil {
		return nil, err
	}
	tols := make(tolerance.Table, len(tables))
	for _, t := range tables {
		tols[t.Key] = t.Tolerance
	}
	return tols, nil
}

// Seed writes every table whose key starts with prefix into w and returns
// how many were written.
func Seed(w artifact.Writer, prefix string) (int, error) {
	tables, err := load()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range tables {
		if !strings.HasPrefix(t.Key, prefix) {
			continue
		}
		if err := w.Put(t.Key, t.Array); err != nil {
			return n, fmt.Errorf("%s: %w", t.Key, err)
		}
		n++
	}
	return n, nil
}
