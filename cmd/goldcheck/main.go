// Command goldcheck compares recorded candidate outputs against golden
// reference arrays and manages the artifact stores both live in.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// errChecksFailed is returned when a run finished with failing checks.
var errChecksFailed = errors.New("checks failed")

func newApp() *cli.Command {
	st := &state{}
	return &cli.Command{
		Name:   "goldcheck",
		Usage:  "Golden-output verification for the ML course exercises",
		Flags:  globalFlags(st),
		Before: st.before,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			compareCmd(st),
			diffCmd(st),
			inspectCmd(st),
			convertCmd(),
			seedCmd(),
			fixturesCmd(),
			datasetsCmd(),
			versionCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
