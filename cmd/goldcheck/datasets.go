package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/dataset"
	"github.com/m-kadula/ml2024-25/internal/logger"
)

func datasetsCmd() *cli.Command {
	var (
		out      string
		seed     uint64
		perClass int
	)

	return &cli.Command{
		Name:  "datasets",
		Usage: "Write the synthetic classification datasets into a store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "destination store", Destination: &out, Required: true},
			&cli.Uint64Flag{Name: "seed", Usage: "generator seed", Value: 10, Destination: &seed},
			&cli.IntFlag{Name: "per-class", Usage: "samples per class", Value: 50, Destination: &perClass},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			gen := dataset.Synthetic{Seed: seed, PerClass: perClass}
			w, err := artifact.Create(out)
			if err != nil {
				return err
			}
			for _, name := range []string{dataset.Classification1D, dataset.Classification2D} {
				d, err := gen.Dataset(name)
				if err != nil {
					_ = w.Close()
					return err
				}
				if err := dataset.Record(w, d); err != nil {
					_ = w.Close()
					return err
				}
				log.Debug("dataset recorded", "dataset", name, "rows", d.Data.Rows())
			}
			if err := w.Close(); err != nil {
				return err
			}
			log.Info("datasets written", "path", out, "seed", seed)
			return nil
		},
	}
}
