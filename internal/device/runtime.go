package device

import "github.com/dthelegend/diss/pkg/qubo"

// Ptr is an opaque device address. The zero Ptr is never a valid allocation.
type Ptr uintptr

// Kernel identifies a device kernel.
type Kernel int

const (
	// KernelEnergy writes E(x_b) for every solution b of the batch into Out
	// and sets Flags[b] to 1 when the energy leaves the Value range.
	KernelEnergy Kernel = iota
	// KernelFlipDeltas writes E(flip(x_b, k)) - E(x_b) into Out[b*N+k] and sets
	// Flags[b] to 1 when any delta of solution b leaves the Value range.
	KernelFlipDeltas
)

func (k Kernel) String() string {
	switch k {
	case KernelEnergy:
		return "energy"
	case KernelFlipDeltas:
		return "flip_deltas"
	default:
		return "unknown"
	}
}

// LaunchArgs are the parameters shared by every QUBO kernel. Problem holds the
// N*N upper-triangular matrix, Solutions holds Batch assignments of N values.
type LaunchArgs struct {
	Problem   Ptr
	Solutions Ptr
	Out       Ptr
	Flags     Ptr
	N         int
	Batch     int
}

// Properties describes the active device.
type Properties struct {
	Name        string
	Ordinal     int
	MemoryBytes int64
	ComputeCap  string
}

// Runtime is the raw device surface. Every method except Close reports its
// outcome as a Status and never panics on device failures. Counts and lengths
// are in Values.
//
// Implementations serialise calls internally; a single Runtime may be shared
// between goroutines.
type Runtime interface {
	Name() string
	DeviceCount(count *int) Status
	SetDevice(ordinal int) Status
	Properties(props *Properties) Status

	Malloc(ptr *Ptr, count int) Status
	Free(ptr Ptr) Status
	MemcpyHtoD(dst Ptr, src []qubo.Value) Status
	MemcpyDtoH(dst []qubo.Value, src Ptr) Status
	Memset(dst Ptr, value qubo.Value, count int) Status

	Launch(kernel Kernel, args LaunchArgs) Status
	Synchronize() Status

	Close() error
}
