package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/reduce"
	"github.com/dthelegend/diss/pkg/sat"
)

func satCmd() *cli.Command {
	return &cli.Command{
		Name:      "sat",
		Usage:     "Solve a DIMACS CNF formula and print the verdict in DIMACS result form",
		ArgsUsage: "FILE|-",
		Flags:     append(deviceFlags(), solverFlags()...),
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg Config) (err error) {
			if cmd.NArg() != 1 {
				return fmt.Errorf("sat: expected exactly one CNF file (or - for stdin)")
			}
			applyDeviceConfig(cmd, cfg)
			applySolverConfig(cmd, cfg)

			red, err := reduce.New(reductionName)
			if err != nil {
				return err
			}
			p, err := readCNF(cmd.Args().First())
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Debug("parsed formula", "variables", p.NumVars, "clauses", len(p.Clauses))

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer closeRuntime(rt, &err)

			slv, err := newSolver(rt, nil)
			if err != nil {
				return err
			}
			verdict, res, err := reduce.SolveSAT(ctx, slv, red, p)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			fmt.Fprintf(w, "c solver %s on %s\n", slv.Name(), rt.Name())
			fmt.Fprintf(w, "c reduction %s\n", red.Name())
			fmt.Fprintf(w, "c qubo variables %d energy %d\n", len(res.Solution), res.Energy)
			fmt.Fprintf(w, "c elapsed %s\n", res.Elapsed)
			fmt.Fprintln(w, verdict)
			return nil
		}),
	}
}

func readCNF(path string) (*sat.Problem, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	p, err := sat.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
