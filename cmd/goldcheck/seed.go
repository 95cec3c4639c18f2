package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/logger"
	"github.com/m-kadula/ml2024-25/internal/published"
)

func seedCmd() *cli.Command {
	var out, prefix string

	return &cli.Command{
		Name:      "seed",
		Usage:     "Write the goldens published with the graph and attention labs into a store",
		UsageText: "goldcheck seed --out goldens.db [--prefix gnn/]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "destination store", Destination: &out, Required: true},
			&cli.StringFlag{Name: "prefix", Usage: "only keys with this prefix", Destination: &prefix},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			dst, err := artifact.Create(out)
			if err != nil {
				return err
			}
			n, err := published.Seed(dst, prefix)
			if err != nil {
				_ = dst.Close()
				return err
			}
			if err := dst.Close(); err != nil {
				return err
			}
			if n == 0 {
				log.Warn("no published goldens matched", "prefix", prefix)
			}
			log.Info("goldens seeded", "out", out, "arrays", n)
			return nil
		},
	}
}
