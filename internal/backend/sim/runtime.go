// Package sim is a CPU-backed device runtime. It honours the same Status
// contract as the CUDA backend, bounds its memory, validates pointers and can
// inject failures into any operation, which makes it the reference target for
// tests and the fallback on hosts without a GPU.
package sim

import (
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"

	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/pkg/qubo"
)

// Op names a runtime operation for call counting and fault injection.
type Op int

const (
	OpDeviceCount Op = iota
	OpSetDevice
	OpProperties
	OpMalloc
	OpFree
	OpMemcpyHtoD
	OpMemcpyDtoH
	OpMemset
	OpLaunch
	OpSynchronize
	numOps
)

var opNames = [numOps]string{
	"device_count", "set_device", "properties", "malloc", "free",
	"memcpy_htod", "memcpy_dtoh", "memset", "launch", "synchronize",
}

func (o Op) String() string {
	if o < 0 || o >= numOps {
		return "unknown"
	}
	return opNames[o]
}

const (
	// DefaultMemoryValues is the simulated device memory: 256 MiB of Values.
	DefaultMemoryValues = 64 << 20

	baseAddress = device.Ptr(0x7f0000000000)
	allocAlign  = 256
)

// Options configures a simulated device.
type Options struct {
	// MemoryValues bounds the total live allocation, in Values.
	MemoryValues int
	// Workers is the number of host goroutines a kernel launch fans out to.
	Workers int
}

// Runtime implements device.Runtime on the host.
type Runtime struct {
	mu sync.Mutex

	memLimit int
	used     int
	workers  int
	next     device.Ptr
	allocs   map[device.Ptr][]qubo.Value
	closed   bool

	calls  [numOps]int
	faults [numOps]map[int]device.Status
}

var _ device.Runtime = (*Runtime)(nil)

// New returns a simulated device with the given options; zero fields take
// defaults.
func New(opts Options) *Runtime {
	if opts.MemoryValues <= 0 {
		opts.MemoryValues = DefaultMemoryValues
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Runtime{
		memLimit: opts.MemoryValues,
		workers:  opts.Workers,
		next:     baseAddress,
		allocs:   make(map[device.Ptr][]qubo.Value),
	}
}

func (r *Runtime) Name() string {
	return "sim"
}

// FailOn makes the nth call (1-based, counted since creation) of op return s
// without any side effect.
func (r *Runtime) FailOn(op Op, nth int, s device.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.faults[op] == nil {
		r.faults[op] = make(map[int]device.Status)
	}
	r.faults[op][nth] = s
}

// Calls reports how many times op has been invoked, faulted calls included.
func (r *Runtime) Calls(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// Live reports the number of outstanding allocations and their total size.
func (r *Runtime) Live() (allocs, values int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.allocs), r.used
}

// enter counts the call and returns an injected or lifecycle failure. Callers
// hold r.mu.
func (r *Runtime) enter(op Op) device.Status {
	r.calls[op]++
	if s, ok := r.faults[op][r.calls[op]]; ok {
		return s
	}
	if r.closed {
		return device.ErrInitialization
	}
	return device.Success
}

func (r *Runtime) DeviceCount(count *int) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpDeviceCount); s != device.Success {
		return s
	}
	if count == nil {
		return device.ErrInvalidValue
	}
	*count = 1
	return device.Success
}

func (r *Runtime) SetDevice(ordinal int) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpSetDevice); s != device.Success {
		return s
	}
	if ordinal != 0 {
		return device.ErrInvalidDevice
	}
	return device.Success
}

func (r *Runtime) Properties(props *device.Properties) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpProperties); s != device.Success {
		return s
	}
	if props == nil {
		return device.ErrInvalidValue
	}
	*props = device.Properties{
		Name:        "simulated device",
		Ordinal:     0,
		MemoryBytes: int64(r.memLimit) * int64(qubo.ValueSize),
		ComputeCap:  hostFeatures(),
	}
	return device.Success
}

func hostFeatures() string {
	switch {
	case cpu.X86.HasAVX512F:
		return "host-avx512"
	case cpu.X86.HasAVX2:
		return "host-avx2"
	case cpu.ARM64.HasASIMD:
		return "host-neon"
	default:
		return "host-generic"
	}
}

func (r *Runtime) Malloc(ptr *device.Ptr, count int) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpMalloc); s != device.Success {
		return s
	}
	if ptr == nil || count <= 0 {
		return device.ErrInvalidValue
	}
	if count > r.memLimit-r.used {
		return device.ErrMemoryAllocation
	}
	p := r.next
	bytes := device.Ptr(count * qubo.ValueSize)
	r.next += (bytes + allocAlign - 1) &^ (allocAlign - 1)
	r.allocs[p] = make([]qubo.Value, count)
	r.used += count
	*ptr = p
	return device.Success
}

func (r *Runtime) Free(ptr device.Ptr) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpFree); s != device.Success {
		return s
	}
	if ptr == 0 {
		return device.Success
	}
	buf, ok := r.allocs[ptr]
	if !ok {
		return device.ErrInvalidDevicePointer
	}
	r.used -= len(buf)
	delete(r.allocs, ptr)
	return device.Success
}

func (r *Runtime) MemcpyHtoD(dst device.Ptr, src []qubo.Value) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpMemcpyHtoD); s != device.Success {
		return s
	}
	buf, ok := r.allocs[dst]
	if !ok {
		return device.ErrInvalidDevicePointer
	}
	if len(src) > len(buf) {
		return device.ErrInvalidValue
	}
	copy(buf, src)
	return device.Success
}

func (r *Runtime) MemcpyDtoH(dst []qubo.Value, src device.Ptr) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpMemcpyDtoH); s != device.Success {
		return s
	}
	buf, ok := r.allocs[src]
	if !ok {
		return device.ErrInvalidDevicePointer
	}
	if len(dst) > len(buf) {
		return device.ErrInvalidValue
	}
	copy(dst, buf)
	return device.Success
}

func (r *Runtime) Memset(dst device.Ptr, value qubo.Value, count int) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpMemset); s != device.Success {
		return s
	}
	buf, ok := r.allocs[dst]
	if !ok {
		return device.ErrInvalidDevicePointer
	}
	if count < 0 || count > len(buf) {
		return device.ErrInvalidValue
	}
	for i := range buf[:count] {
		buf[i] = value
	}
	return device.Success
}

// Launch runs the kernel to completion before returning.
func (r *Runtime) Launch(kernel device.Kernel, args device.LaunchArgs) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.enter(OpLaunch); s != device.Success {
		return s
	}
	if args.N <= 0 || args.Batch <= 0 {
		return device.ErrInvalidValue
	}

	outLen := args.Batch
	switch kernel {
	case device.KernelEnergy:
	case device.KernelFlipDeltas:
		outLen = args.Batch * args.N
	default:
		return device.ErrInvalidKernelImage
	}

	q, s := r.view(args.Problem, args.N*args.N)
	if s != device.Success {
		return s
	}
	x, s := r.view(args.Solutions, args.Batch*args.N)
	if s != device.Success {
		return s
	}
	out, s := r.view(args.Out, outLen)
	if s != device.Success {
		return s
	}
	flags, s := r.view(args.Flags, args.Batch)
	if s != device.Success {
		return s
	}

	k := kernelArgs{q: q, x: x, out: out, flags: flags, n: args.N}
	switch kernel {
	case device.KernelEnergy:
		r.parallel(args.Batch, k.energy)
	case device.KernelFlipDeltas:
		r.parallel(args.Batch, k.flipDeltas)
	}
	return device.Success
}

// view resolves ptr to a slice of at least count values.
func (r *Runtime) view(ptr device.Ptr, count int) ([]qubo.Value, device.Status) {
	buf, ok := r.allocs[ptr]
	if !ok {
		return nil, device.ErrInvalidDevicePointer
	}
	if len(buf) < count {
		return nil, device.ErrIllegalAddress
	}
	return buf[:count], device.Success
}

func (r *Runtime) Synchronize() device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enter(OpSynchronize)
}

// Close releases all simulated memory. Later calls fail with
// ErrInitialization.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allocs = make(map[device.Ptr][]qubo.Value)
	r.used = 0
	r.closed = true
	return nil
}
