package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/backend"
	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/problemio"
	"github.com/dthelegend/diss/internal/reduce"
	"github.com/dthelegend/diss/internal/solver"
	"github.com/dthelegend/diss/pkg/sat"
)

func solveCmd() *cli.Command {
	var (
		tracePath string
		outPath   string
		plot      bool
	)

	flags := append(deviceFlags(), solverFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "trace",
			Usage:       "write the energy trace as CSV to this file",
			Destination: &tracePath,
		},
		&cli.BoolFlag{
			Name:        "plot",
			Usage:       "plot the energy trace after solving",
			Destination: &plot,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "write the best assignment to this file",
			Destination: &outPath,
		},
	)

	return &cli.Command{
		Name:      "solve",
		Usage:     "Solve a QUBO (.json, .yaml, .qbin) or CNF (.cnf) problem",
		ArgsUsage: "FILE",
		Flags:     flags,
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg Config) (err error) {
			if cmd.NArg() != 1 {
				return fmt.Errorf("solve: expected exactly one problem file")
			}
			applyDeviceConfig(cmd, cfg)
			applySolverConfig(cmd, cfg)
			log := logger.FromContext(ctx)

			red, err := reduce.New(reductionName)
			if err != nil {
				return err
			}
			src, err := problemio.LoadWith(cmd.Args().First(), red)
			if err != nil {
				return err
			}
			size := 0
			if src.Problem != nil {
				size = src.Problem.Size()
			}
			log.Debug("loaded problem", "path", src.Path, "format", src.Format, "variables", size)

			rec, closeTrace, err := openRecorder(tracePath, plot)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := closeTrace(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer closeRuntime(rt, &err)

			slv, err := newSolver(rt, rec)
			if err != nil {
				return err
			}

			u := newUI(cmd.Root().Writer)
			var (
				res     solver.Result
				verdict *sat.Solution
			)
			if src.SAT != nil {
				v, r, err := reduce.SolveReduced(ctx, slv, src.SAT, src.Problem, src.Model)
				if err != nil {
					return err
				}
				res, verdict = r, &v
			} else if res, err = slv.Solve(ctx, src.Problem); err != nil {
				return err
			}

			u.title(src.Path)
			u.field("solver", slv.Name())
			u.field("backend", rt.Name())
			if src.SAT != nil {
				u.field("reduction", red.Name())
			}
			u.field("variables", size)
			u.field("energy", res.Energy)
			u.field("evaluated", res.Evaluated)
			u.field("elapsed", res.Elapsed)
			u.field("solution", res.Solution)
			if verdict != nil {
				u.status("sat", verdict.Status == sat.Satisfiable, verdict.Status.String())
			}
			if plot {
				series := make([][]float64, max(restarts, 1))
				for c := range series {
					series[c] = rec.Series(c)
				}
				u.plot(series, fmt.Sprintf("energy per step (%s)", slv.Name()))
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(res.Solution.String()+"\n"), 0o644); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func openRuntime(ctx context.Context) (device.Runtime, error) {
	rt, err := backend.Open(ctx, backendName, backendOptions())
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug("opened device runtime", "backend", rt.Name())
	return rt, nil
}

func closeRuntime(rt device.Runtime, err *error) {
	if cerr := rt.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func newSolver(rt device.Runtime, rec *solver.Recorder) (solver.Solver, error) {
	if batchSize < 0 || iterations < 0 || restarts < 0 {
		return nil, fmt.Errorf("solver settings must not be negative")
	}
	return solver.New(solverName, solver.Options{
		Runtime:    rt,
		BatchSize:  int(batchSize),
		Iterations: int(iterations),
		Restarts:   int(restarts),
		Seed:       seed,
		Recorder:   rec,
	})
}

// openRecorder returns nil when neither a trace file nor a plot is wanted.
func openRecorder(path string, retain bool) (*solver.Recorder, func() error, error) {
	if path == "" && !retain {
		return nil, func() error { return nil }, nil
	}
	if path == "" {
		return solver.NewRecorder(nil).Retain(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	rec := solver.NewRecorder(f)
	if retain {
		rec.Retain()
	}
	return rec, func() error {
		ferr := rec.Flush()
		if cerr := f.Close(); ferr == nil {
			ferr = cerr
		}
		return ferr
	}, nil
}
