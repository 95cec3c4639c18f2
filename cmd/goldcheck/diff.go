package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/tensor"
)

// diffStats summarizes how far a candidate array drifted from its golden.
type diffStats struct {
	MaxAbs  float64
	MeanAbs float64
	RMSE    float64
	Cosine  float64
	// Argmax positions; useful for predictions and probabilities.
	ArgmaxA, ArgmaxB int
	Length           int
}

func diffArrays(a, b []float64) diffStats {
	n := min(len(a), len(b))
	if n == 0 {
		return diffStats{}
	}
	var sumAbs, sumSq, maxAbs float64
	argA, argB := 0, 0
	for i := range n {
		d := math.Abs(a[i] - b[i])
		sumAbs += d
		sumSq += d * d
		maxAbs = max(maxAbs, d)
		if a[i] > a[argA] {
			argA = i
		}
		if b[i] > b[argB] {
			argB = i
		}
	}
	a, b = a[:n], b[:n]
	dot, normA, normB := tensor.Dot(a, b), tensor.Dot(a, a), tensor.Dot(b, b)
	cos := 0.0
	if normA > 0 && normB > 0 {
		cos = dot / (math.Sqrt(normA) * math.Sqrt(normB))
	}
	return diffStats{
		MaxAbs:  maxAbs,
		MeanAbs: sumAbs / float64(n),
		RMSE:    math.Sqrt(sumSq / float64(n)),
		Cosine:  cos,
		ArgmaxA: argA,
		ArgmaxB: argB,
		Length:  n,
	}
}

func diffCmd(st *state) *cli.Command {
	var goldenPath, actualPath, prefix string

	return &cli.Command{
		Name:  "diff",
		Usage: "Print drift statistics between golden and candidate arrays, without a pass/fail verdict",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "golden", Aliases: []string{"g"}, Usage: "golden store; defaults to the configured store", Destination: &goldenPath},
			&cli.StringFlag{Name: "actual", Aliases: []string{"a"}, Usage: "candidate output store", Destination: &actualPath, Required: true},
			&cli.StringFlag{Name: "prefix", Usage: "only keys with this prefix", Destination: &prefix},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if goldenPath == "" {
				goldenPath = st.cfg.Store
			}
			if goldenPath == "" {
				return errors.New("--golden is required unless the config sets store")
			}
			golden, err := artifact.Open(goldenPath)
			if err != nil {
				return err
			}
			defer func() { _ = golden.Close() }()
			actual, err := artifact.Open(actualPath)
			if err != nil {
				return err
			}
			defer func() { _ = actual.Close() }()

			tw := tabwriter.NewWriter(outWriter(cmd), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "KEY\tLEN\tMAX_ABS\tMEAN_ABS\tRMSE\tCOSINE\tARGMAX")
			keys, err := golden.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				if !strings.HasPrefix(key, prefix) {
					continue
				}
				want, err := golden.Load(key)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				got, err := actual.Load(key)
				if errors.Is(err, artifact.ErrNotFound) {
					_, _ = fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\tmissing\n", key)
					continue
				}
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				s := diffArrays(want.Data, got.Data)
				argmax := "match"
				if s.ArgmaxA != s.ArgmaxB {
					argmax = fmt.Sprintf("%d!=%d", s.ArgmaxA, s.ArgmaxB)
				}
				if want.Len() != got.Len() {
					argmax += fmt.Sprintf(" (len %d vs %d)", want.Len(), got.Len())
				}
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%.3e\t%.3e\t%.3e\t%.6f\t%s\n", key, s.Length, s.MaxAbs, s.MeanAbs, s.RMSE, s.Cosine, argmax)
			}
			return tw.Flush()
		},
	}
}
