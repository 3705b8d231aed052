// Package solver finds low-energy assignments of QUBO problems using the
// device kernels. Any device failure aborts the solve; the returned error
// wraps the exact device.Status, which callers recover with
// device.StatusOf. Nothing is retried.
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/kernels"
	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/metrics"
	"github.com/dthelegend/diss/pkg/qubo"
)

var (
	ErrProblemTooLarge = errors.New("solver: problem too large")
	ErrEnergyMismatch  = errors.New("solver: device energy disagrees with host")
)

// Result is the best assignment a solver found.
type Result struct {
	Solution  qubo.Solution
	Energy    qubo.Value
	Evaluated int64
	Elapsed   time.Duration
}

type Solver interface {
	Name() string
	Solve(ctx context.Context, p *qubo.Problem) (Result, error)
}

// New returns the solver called name, configured from opts.
func New(name string, opts Options) (Solver, error) {
	switch name {
	case "", NameAnneal:
		return &Annealer{
			Runtime:    opts.Runtime,
			Iterations: opts.Iterations,
			Restarts:   opts.Restarts,
			Seed:       opts.Seed,
			Recorder:   opts.Recorder,
			Metrics:    opts.Metrics,
		}, nil
	case NameExhaustive:
		return &Exhaustive{
			Runtime:   opts.Runtime,
			BatchSize: opts.BatchSize,
			Recorder:  opts.Recorder,
			Metrics:   opts.Metrics,
		}, nil
	default:
		return nil, fmt.Errorf("unknown solver %q (expected %s or %s)", name, NameAnneal, NameExhaustive)
	}
}

// Options is the union of every solver's settings.
type Options struct {
	Runtime    device.Runtime
	BatchSize  int
	Iterations int
	Restarts   int
	Seed       uint64
	Recorder   *Recorder
	Metrics    *metrics.Metrics
}

// better orders candidates by energy, then by the larger number of ones.
func better(e qubo.Value, x qubo.Solution, bestE qubo.Value, best qubo.Solution) bool {
	if best == nil || e < bestE {
		return true
	}
	return e == bestE && x.Ones() > best.Ones()
}

// finish wraps err with the solver name, logs the outcome and records it.
func finish(ctx context.Context, name string, m *metrics.Metrics, start time.Time, res *Result, err error) error {
	res.Elapsed = time.Since(start)
	log := logger.FromContext(ctx).With("solver", name)
	m.ObserveSolve(name, res.Elapsed, err)
	if err == nil {
		log.Debug("solve finished", "energy", res.Energy, "evaluated", res.Evaluated, "elapsed", res.Elapsed)
		return nil
	}
	if code, ok := device.StatusOf(err); ok {
		log.Error("device failure aborted solve", "status", code.Code(), "reason", code.String())
	}
	return fmt.Errorf("%s: %w", name, err)
}

func closeSession(s *kernels.Session, err *error) {
	if cerr := s.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
