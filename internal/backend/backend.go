// Package backend selects the device runtime kernels execute on.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/dthelegend/diss/internal/backend/sim"
	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/internal/logger"
)

const (
	Sim  = "sim"
	CUDA = "cuda"
	Auto = "auto"
)

// Options configure the runtime Open returns. Fields that do not apply to the
// selected backend are ignored.
type Options struct {
	// Ordinal selects the CUDA device.
	Ordinal int
	// MemoryValues bounds simulated device memory.
	MemoryValues int
	// Workers bounds simulated kernel parallelism.
	Workers int
}

func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case Sim, CUDA, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, sim, or cuda)", backend)
	}
}

// Available returns a comma-separated list of available backends.
func Available() string {
	entries := []string{Sim}
	if Has(CUDA) {
		entries = append(entries, CUDA)
	}
	return strings.Join(entries, ",")
}

// Open returns a runtime for name. Auto picks CUDA when this build supports
// it and a device answers, otherwise the simulator.
func Open(ctx context.Context, name string, opts Options) (device.Runtime, error) {
	backend, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	switch backend {
	case Sim:
		return newSim(opts), nil
	case CUDA:
		return newCUDA(opts)
	}

	if !cudaEnabled {
		return newSim(opts), nil
	}
	rt, err := newCUDA(opts)
	if err != nil {
		logger.FromContext(ctx).Warn("cuda unavailable, using simulated device", "error", err)
		return newSim(opts), nil
	}
	return rt, nil
}

func newSim(opts Options) device.Runtime {
	return sim.New(sim.Options{MemoryValues: opts.MemoryValues, Workers: opts.Workers})
}
