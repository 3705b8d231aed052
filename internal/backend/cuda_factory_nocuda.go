//go:build !cuda

package backend

import (
	"fmt"

	"github.com/dthelegend/diss/internal/device"
)

const cudaEnabled = false

func newCUDA(Options) (device.Runtime, error) {
	return nil, fmt.Errorf("cuda backend is not available in this build: %w", device.ErrNotSupported)
}

func Has(name string) bool {
	return name == Sim
}
