package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "qubo:", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "qubo",
		Usage: "Solve QUBO and k-SAT problems on a CUDA device or the simulated device",
		Flags: globalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			solveCmd(),
			satCmd(),
			packCmd(),
			devicesCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

type actionFunc func(ctx context.Context, cmd *cli.Command, cfg Config) error

// withConfig loads the config file, applies its logging defaults and puts
// the configured logger into the context before running fn.
func withConfig(fn actionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := LoadConfig(configPath())
		if err != nil {
			return err
		}
		applyLoggingConfig(cmd, cfg)
		level := logger.ParseLevel(logLevel)
		if debug {
			level = logger.ParseLevel("debug")
		}
		log, err := logger.Open(logFormat, cmd.Root().ErrWriter, level)
		if err != nil {
			return err
		}
		return fn(logger.WithContext(ctx, log), cmd, cfg)
	}
}
