package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/problemio"
	"github.com/dthelegend/diss/internal/reduce"
)

func packCmd() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Convert a problem between formats (CNF input is reduced to a QUBO)",
		ArgsUsage: "IN OUT",
		Flags:     []cli.Flag{reductionFlag()},
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg Config) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("pack: expected an input and an output path")
			}
			applyReductionConfig(cmd, cfg)
			red, err := reduce.New(reductionName)
			if err != nil {
				return err
			}
			in, out := cmd.Args().Get(0), cmd.Args().Get(1)
			src, err := problemio.LoadWith(in, red)
			if err != nil {
				return err
			}
			if err := problemio.Save(out, src.Problem); err != nil {
				if errors.Is(err, problemio.ErrNoProblem) && src.SAT != nil {
					return fmt.Errorf("pack: %s is decided without a reduction: %w", in, err)
				}
				return err
			}
			logger.FromContext(ctx).Info("packed problem", "from", in, "to", out, "variables", src.Problem.Size(), "terms", len(src.Problem.Terms()))
			return nil
		}),
	}
}
