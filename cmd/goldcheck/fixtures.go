package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/fixture"
)

func fixturesCmd() *cli.Command {
	var extra []string

	load := func() (*fixture.Registry, error) {
		b := fixture.NewBuilder().Merge(fixture.Builtin())
		for _, path := range extra {
			if err := fixture.LoadFile(path, b); err != nil {
				return nil, err
			}
		}
		return b.Build()
	}
	extraFlag := func() cli.Flag {
		return &cli.StringSliceFlag{
			Name:        "extra",
			Usage:       "JSON fixture file merged into the builtin registry (repeatable)",
			Destination: &extra,
		}
	}

	var out string
	return &cli.Command{
		Name:  "fixtures",
		Usage: "List or export the fixture registry",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every check with its fixture count and tolerance",
				Flags: []cli.Flag{extraFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					reg, err := load()
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(outWriter(cmd), 0, 4, 2, ' ', 0)
					_, _ = fmt.Fprintln(tw, "CHECK\tFIXTURES\tTOLERANCE")
					for _, name := range reg.Checks() {
						s, err := reg.Set(name)
						if err != nil {
							return err
						}
						_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", name, s.Len(), s.Tolerance)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "export",
				Usage: "Write the registry as JSON",
				Flags: []cli.Flag{
					extraFlag(),
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default stdout)", Destination: &out},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					reg, err := load()
					if err != nil {
						return err
					}
					var w io.Writer = outWriter(cmd)
					if out != "" {
						f, err := os.Create(out)
						if err != nil {
							return err
						}
						defer func() { _ = f.Close() }()
						w = f
					}
					return fixture.WriteJSON(w, reg)
				},
			},
		},
	}
}
