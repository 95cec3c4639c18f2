package main

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/m-kadula/ml2024-25/internal/logger"
)

// state carries the global flags and the loaded config to subcommands.
type state struct {
	configPath string
	logLevel   string
	logFormat  string
	debug      bool
	cfg        Config
}

func globalFlags(st *state) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default $XDG_CONFIG_HOME/goldcheck/config.yaml)",
			Destination: &st.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &st.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       logger.FormatPretty,
			Destination: &st.logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &st.debug,
		},
	}
}

// before loads the config, applies it under the flags and installs the
// logger in the context.
func (st *state) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path, explicit := st.configPath, st.configPath != ""
	if !explicit {
		path = defaultConfigPath()
	}
	cfg, err := LoadConfig(path, explicit)
	if err != nil {
		return ctx, err
	}
	st.cfg = cfg
	if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
		st.logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !cmd.IsSet("log-format") {
		st.logFormat = cfg.LogFormat
	}
	if st.debug {
		st.logLevel = "debug"
	}

	level, err := logger.ParseLevel(st.logLevel)
	if err != nil {
		return ctx, err
	}
	log, err := logger.Open(errWriter(cmd), st.logFormat, level)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}

// tolerance flags shared by commands that compare arrays.
func toleranceFlags(rtol, atol *float64) []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:        "rtol",
			Usage:       "relative tolerance for keys without an override",
			Destination: rtol,
		},
		&cli.Float64Flag{
			Name:        "atol",
			Usage:       "absolute tolerance for keys without an override",
			Destination: atol,
		},
	}
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
