package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/backend"
	"github.com/dthelegend/diss/internal/version"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			info := version.Resolve()
			fmt.Fprintf(w, "version:    %s\n", info)
			if info.BuildTime != "" {
				fmt.Fprintf(w, "build time: %s\n", info.BuildTime)
			}
			if info.GoVersion != "" {
				fmt.Fprintf(w, "go:         %s\n", info.GoVersion)
			}
			fmt.Fprintf(w, "backends:   %s\n", backend.Available())
			return nil
		},
	}
}
