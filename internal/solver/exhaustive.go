package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/kernels"
	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/metrics"
	"github.com/dthelegend/diss/pkg/qubo"
)

const (
	NameExhaustive = "exhaustive"

	// MaxExhaustiveSize is the largest problem Exhaustive accepts.
	MaxExhaustiveSize = 30
	// exhaustiveWarnSize is where enumeration starts to take noticeable time.
	exhaustiveWarnSize = 24

	DefaultBatchSize = 4096
)

// Exhaustive evaluates all 2^n assignments on the device in batches. The
// result is optimal; ties go to the assignment with more ones.
type Exhaustive struct {
	Runtime   device.Runtime
	BatchSize int
	Recorder  *Recorder
	Metrics   *metrics.Metrics
}

func (e *Exhaustive) Name() string {
	return NameExhaustive
}

func (e *Exhaustive) Solve(ctx context.Context, p *qubo.Problem) (res Result, err error) {
	start := time.Now()
	defer func() {
		err = finish(ctx, NameExhaustive, e.Metrics, start, &res, err)
	}()

	n := p.Size()
	if n > MaxExhaustiveSize {
		return res, fmt.Errorf("%w: %d variables exceeds exhaustive limit %d", ErrProblemTooLarge, n, MaxExhaustiveSize)
	}
	log := logger.FromContext(ctx)
	if n > exhaustiveWarnSize {
		log.Warn("exhaustive search over many variables takes a long time", "variables", n, "assignments", uint64(1)<<n)
	}

	s, err := kernels.Upload(e.Runtime, p)
	if err != nil {
		return res, err
	}
	defer closeSession(s, &err)

	total := uint64(1) << n
	size := uint64(e.BatchSize)
	if size == 0 {
		size = DefaultBatchSize
	}
	size = min(size, total)
	log.Debug("starting exhaustive search", "variables", n, "batch", size)

	batch := make([]qubo.Solution, 0, size)
	var best qubo.Solution
	var bestE qubo.Value
	for lo := uint64(0); lo < total; lo += size {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch = batch[:0]
		for bits := lo; bits < min(lo+size, total); bits++ {
			batch = append(batch, qubo.SolutionFromBits(bits, n))
		}
		energies, err := s.Energies(batch)
		if err != nil {
			return res, err
		}
		for i, en := range energies {
			if better(en, batch[i], bestE, best) {
				best, bestE = batch[i], en
			}
		}
		res.Evaluated += int64(len(batch))
		e.Recorder.Record(0, res.Evaluated, bestE)
	}

	res.Solution = best
	res.Energy = bestE
	return res, nil
}
