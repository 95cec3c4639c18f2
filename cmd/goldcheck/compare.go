package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/harness"
	"github.com/m-kadula/ml2024-25/internal/logger"
	"github.com/m-kadula/ml2024-25/internal/published"
	"github.com/m-kadula/ml2024-25/internal/tolerance"
	"github.com/m-kadula/ml2024-25/internal/version"
)

func compareCmd(st *state) *cli.Command {
	var (
		goldenPath string
		actualPath string
		reportPath string
		format     string
		rtol, atol float64
	)

	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare recorded candidate outputs against a golden store",
		UsageText: "goldcheck compare --actual outputs.safetensors [--golden goldens.db] [--report report.json]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "golden",
				Aliases:     []string{"g"},
				Usage:       "golden store (.safetensors or .db); defaults to the configured store",
				Destination: &goldenPath,
			},
			&cli.StringFlag{
				Name:        "actual",
				Aliases:     []string{"a"},
				Usage:       "store holding the candidate outputs under the golden keys",
				Destination: &actualPath,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "report",
				Usage:       "write the canonical JSON report to this path",
				Destination: &reportPath,
			},
			&cli.StringFlag{
				Name:        "format",
				Usage:       "summary format on stdout (text, json)",
				Value:       "text",
				Destination: &format,
			},
		}, toleranceFlags(&rtol, &atol)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg := st.cfg
			if goldenPath == "" {
				goldenPath = cfg.Store
			}
			if goldenPath == "" {
				return errors.New("--golden is required unless the config sets store")
			}
			if reportPath == "" {
				reportPath = cfg.Report
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q", format)
			}

			def := cfg.Default()
			if cmd.IsSet("rtol") {
				def.RTol = rtol
			}
			if cmd.IsSet("atol") {
				def.ATol = atol
			}
			if err := def.Validate(); err != nil {
				return err
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
			tols, err := withPublished(cfg.Tolerances)
			if err != nil {
				return err
			}
			checks, err := harness.StoreChecks(golden, actual, tols, def)
			if err != nil {
				return fmt.Errorf("%s: %w", goldenPath, err)
			}
			log.Debug("stores opened", "golden", goldenPath, "actual", actualPath, "keys", len(checks), "tolerance", def.String())

			runner := &harness.Runner{Logger: log, Version: version.String()}
			rep := runner.Run(ctx, checks)

			out := outWriter(cmd)
			if format == "json" {
				err = rep.WriteJSON(out)
			} else {
				err = rep.WriteText(out)
			}
			if err != nil {
				return err
			}
			if reportPath != "" {
				if err := writeReport(reportPath, rep); err != nil {
					return err
				}
				log.Info("report written", "path", reportPath, "run_id", rep.RunID)
			}
			if !rep.OK() {
				return fmt.Errorf("%w: %d of %d", errChecksFailed, len(rep.Outcomes)-rep.Passed(), len(rep.Outcomes))
			}
			return nil
		},
	}
}

// withPublished adds the tolerances of the published lab goldens for keys
// that no configured entry covers.
func withPublished(configured tolerance.Table) (tolerance.Table, error) {
	pub, err := published.Tolerances()
	if err != nil {
		return nil, err
	}
	tols := make(tolerance.Table, len(configured)+len(pub))
	maps.Copy(tols, configured)
	for key, tol := range pub {
		if _, ok := configured.Find(key); !ok {
			tols[key] = tol
		}
	}
	return tols, nil
}

// writeReport writes the canonical report through a temporary file so a
// reader never sees a partial report.
func writeReport(path string, rep *harness.Report) error {
	data, err := rep.MarshalCanonical()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
