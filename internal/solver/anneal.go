package solver

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/kernels"
	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/metrics"
	"github.com/dthelegend/diss/pkg/qubo"
)

const (
	NameAnneal = "anneal"

	DefaultIterations = 1000

	// coolingRate sets T(k) = exp(-coolingRate * k / K).
	coolingRate = 5.0
	// ctxCheckInterval is how many steps run between cancellation checks.
	ctxCheckInterval = 64
)

// Annealer runs independent annealing chains from random starts. Each step
// draws p uniformly from [0, T), accepts any flip whose delta is at most
// ceil((1-p)*min + p*max) over the current deltas, and picks one of them at
// random. The deltas start from the device FlipDeltas kernel and are updated
// on the host in O(n) per step. The winning energy is re-evaluated on the
// device.
type Annealer struct {
	Runtime    device.Runtime
	Iterations int
	Restarts   int
	// Seed makes runs reproducible. Zero draws a random seed.
	Seed     uint64
	Recorder *Recorder
	Metrics  *metrics.Metrics
}

func (a *Annealer) Name() string {
	return NameAnneal
}

type chainResult struct {
	best  qubo.Solution
	bestE qubo.Value
	err   error
}

func (a *Annealer) Solve(ctx context.Context, p *qubo.Problem) (res Result, err error) {
	start := time.Now()
	defer func() {
		err = finish(ctx, NameAnneal, a.Metrics, start, &res, err)
	}()

	iterations := a.Iterations
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	restarts := max(a.Restarts, 1)
	seed := a.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	logger.FromContext(ctx).Debug("starting annealer", "variables", p.Size(), "iterations", iterations, "restarts", restarts, "seed", seed)

	s, err := kernels.Upload(a.Runtime, p)
	if err != nil {
		return res, err
	}
	defer closeSession(s, &err)

	// The first failing chain stops the others.
	chainCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		once     sync.Once
		firstErr error
	)

	results := make([]chainResult, restarts)
	var wg sync.WaitGroup
	for c := range restarts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, uint64(c)))
			results[c] = a.chain(chainCtx, s, p, rng, c, iterations)
			if err := results[c].err; err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return res, firstErr
	}

	var best qubo.Solution
	var bestE qubo.Value
	for _, r := range results {
		if better(r.bestE, r.best, bestE, best) {
			best, bestE = r.best, r.bestE
		}
	}

	energies, err := s.Energies([]qubo.Solution{best})
	if err != nil {
		return res, err
	}
	if energies[0] != bestE {
		return res, fmt.Errorf("%w: device %d, host %d", ErrEnergyMismatch, energies[0], bestE)
	}

	res.Solution = best
	res.Energy = energies[0]
	res.Evaluated = int64(restarts) * int64(iterations)
	return res, nil
}

func (a *Annealer) chain(ctx context.Context, s *kernels.Session, p *qubo.Problem, rng *rand.Rand, c, iterations int) chainResult {
	n := p.Size()
	x := qubo.NewSolution(n)
	for i := range x {
		x[i] = qubo.Value(rng.IntN(2))
	}

	deltas, err := s.FlipDeltas(x)
	if err != nil {
		return chainResult{err: err}
	}
	energies, err := s.Energies([]qubo.Solution{x})
	if err != nil {
		return chainResult{err: err}
	}
	cur := energies[0]
	best, bestE := x.Clone(), cur

	candidates := make([]int, 0, n)
	for k := range iterations {
		if k%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return chainResult{err: err}
			}
		}
		a.Recorder.Record(c, int64(k), cur)

		t := math.Exp(-coolingRate * float64(k+1) / float64(iterations))
		minI, maxI := extremes(deltas)
		if e, err := qubo.Add(cur, deltas[minI]); err == nil && e < bestE {
			best, bestE = x.Flip(minI), e
		}

		prob := rng.Float64() * t
		limit := math.Ceil((1-prob)*float64(deltas[minI]) + prob*float64(deltas[maxI]))
		candidates = candidates[:0]
		for i, d := range deltas {
			if float64(d) <= limit {
				candidates = append(candidates, i)
			}
		}
		i := candidates[rng.IntN(len(candidates))]

		next, err := qubo.Add(cur, deltas[i])
		if err != nil {
			return chainResult{err: fmt.Errorf("step %d: %w", k, err)}
		}
		for j := range deltas {
			if deltas[j], err = p.UpdateDelta(x, deltas[j], i, j); err != nil {
				return chainResult{err: fmt.Errorf("step %d: %w", k, err)}
			}
		}
		x[i] = 1 - x[i]
		cur = next
	}
	a.Recorder.Record(c, int64(iterations), cur)

	if better(cur, x, bestE, best) {
		best, bestE = x.Clone(), cur
	}
	return chainResult{best: best, bestE: bestE}
}

// extremes returns the indices of the smallest and largest delta.
func extremes(deltas []qubo.Value) (minI, maxI int) {
	for i, d := range deltas {
		if d < deltas[minI] {
			minI = i
		}
		if d > deltas[maxI] {
			maxI = i
		}
	}
	return minI, maxI
}
