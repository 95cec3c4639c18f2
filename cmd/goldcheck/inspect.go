package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/artifact"
	"github.com/m-kadula/ml2024-25/internal/tensor"
)

func inspectCmd(st *state) *cli.Command {
	var (
		storePath string
		prefix    string
		showData  bool
		limit     int
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "List the arrays of an artifact store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "store",
				Aliases:     []string{"s"},
				Usage:       "store to inspect; defaults to the configured store",
				Destination: &storePath,
			},
			&cli.StringFlag{Name: "prefix", Usage: "only keys with this prefix", Destination: &prefix},
			&cli.BoolFlag{Name: "data", Usage: "print array values", Destination: &showData},
			&cli.IntFlag{Name: "limit", Usage: "max values printed per array with --data", Value: 8, Destination: &limit},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if storePath == "" {
				storePath = st.cfg.Store
			}
			if storePath == "" {
				return errors.New("--store is required unless the config sets store")
			}
			store, err := artifact.Open(storePath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := outWriter(cmd)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "KEY\tSHAPE\tELEMENTS")
			var arrays, elements int
			keys, err := store.Keys()
			if err != nil {
				return err
			}
			for _, key := range keys {
				if !strings.HasPrefix(key, prefix) {
					continue
				}
				a, err := store.Load(key)
				if err != nil {
					return fmt.Errorf("%s: %w", key, err)
				}
				arrays++
				elements += a.Len()
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", key, tensor.ShapeString(a.Shape), humanize.Comma(int64(a.Len())))
				if showData {
					_, _ = fmt.Fprintf(tw, "\t%s\t\n", preview(a, limit))
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			size := "?"
			if fi, err := os.Stat(storePath); err == nil {
				size = humanize.Bytes(uint64(fi.Size()))
			}
			_, err = fmt.Fprintf(out, "%d arrays, %s elements, %s on disk\n", arrays, humanize.Comma(int64(elements)), size)
			return err
		},
	}
}

func preview(a tensor.Array, limit int) string {
	if limit <= 0 || a.Len() <= limit {
		return fmt.Sprint(a.Data)
	}
	return strings.TrimSuffix(fmt.Sprint(a.Data[:limit]), "]") + " ...]"
}
