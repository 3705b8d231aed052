//go:build cuda

package backend

import (
	"github.com/dthelegend/diss/internal/backend/cuda"
	"github.com/dthelegend/diss/internal/device"
)

const cudaEnabled = true

func newCUDA(opts Options) (device.Runtime, error) {
	return cuda.New(opts.Ordinal)
}

func Has(name string) bool {
	switch name {
	case CUDA:
		return true
	default:
		return name == Sim
	}
}
