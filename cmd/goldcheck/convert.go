package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/logger"
)

func convertCmd() *cli.Command {
	var from, to string

	return &cli.Command{
		Name:      "convert",
		Usage:     "Copy every array of one store into another, changing backend by extension",
		UsageText: "goldcheck convert --from goldens.safetensors --to goldens.db",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "source store", Destination: &from, Required: true},
			&cli.StringFlag{Name: "to", Usage: "destination store", Destination: &to, Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			src, err := artifact.Open(from)
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()
			dst, err := artifact.Create(to)
			if err != nil {
				return err
			}
			n, err := artifact.Copy(dst, src)
			if err != nil {
				_ = dst.Close()
				return err
			}
			if err := dst.Close(); err != nil {
				return err
			}
			log.Info("store converted", "from", from, "to", to, "arrays", n)
			return nil
		},
	}
}
