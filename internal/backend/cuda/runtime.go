//go:build cuda

// Package cuda implements device.Runtime on an NVIDIA GPU. Every method hands
// the raw cudaError_t back as a device.Status without translation.
package cuda

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/dthelegend/diss/internal/backend/cuda/native"
	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/pkg/qubo"
)

type Runtime struct {
	mu      sync.Mutex
	ordinal int
	stream  native.Stream
}

var _ device.Runtime = (*Runtime)(nil)

// New selects the given device and creates the stream kernels run on.
func New(ordinal int) (*Runtime, error) {
	count, code := native.DeviceCount()
	if err := device.Check(device.Status(code)); err != nil {
		return nil, fmt.Errorf("cuda device query failed: %w", err)
	}
	if count < 1 {
		return nil, fmt.Errorf("no cuda devices detected: %w", device.ErrNoDevice)
	}
	if err := device.Check(device.Status(native.SetDevice(ordinal))); err != nil {
		return nil, fmt.Errorf("cuda select device %d: %w", ordinal, err)
	}
	stream, code := native.NewStream()
	if err := device.Check(device.Status(code)); err != nil {
		return nil, fmt.Errorf("cuda stream create failed: %w", err)
	}
	return &Runtime{ordinal: ordinal, stream: stream}, nil
}

func (r *Runtime) Name() string {
	return "cuda"
}

func (r *Runtime) DeviceCount(count *int) device.Status {
	if count == nil {
		return device.ErrInvalidValue
	}
	n, code := native.DeviceCount()
	*count = n
	return device.Status(code)
}

func (r *Runtime) SetDevice(ordinal int) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := device.Status(native.SetDevice(ordinal)); s != device.Success {
		return s
	}
	r.ordinal = ordinal
	return device.Success
}

func (r *Runtime) Properties(props *device.Properties) device.Status {
	if props == nil {
		return device.ErrInvalidValue
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cc, code := native.ComputeCapability(r.ordinal)
	if code != 0 {
		return device.Status(code)
	}
	total, code := native.MemoryTotal()
	if code != 0 {
		return device.Status(code)
	}
	*props = device.Properties{
		Name:        fmt.Sprintf("cuda:%d", r.ordinal),
		Ordinal:     r.ordinal,
		MemoryBytes: total,
		ComputeCap:  cc,
	}
	return device.Success
}

func (r *Runtime) Malloc(ptr *device.Ptr, count int) device.Status {
	if ptr == nil || count <= 0 {
		return device.ErrInvalidValue
	}
	p, code := native.Malloc(count)
	if code != 0 {
		return device.Status(code)
	}
	*ptr = device.Ptr(p)
	return device.Success
}

func (r *Runtime) Free(ptr device.Ptr) device.Status {
	return device.Status(native.Free(uintptr(ptr)))
}

func (r *Runtime) MemcpyHtoD(dst device.Ptr, src []qubo.Value) device.Status {
	return device.Status(native.MemcpyHtoD(uintptr(dst), values(src)))
}

func (r *Runtime) MemcpyDtoH(dst []qubo.Value, src device.Ptr) device.Status {
	return device.Status(native.MemcpyDtoH(values(dst), uintptr(src)))
}

func (r *Runtime) Memset(dst device.Ptr, value qubo.Value, count int) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return device.Status(native.Fill(uintptr(dst), int32(value), count, r.stream))
}

func (r *Runtime) Launch(kernel device.Kernel, args device.LaunchArgs) device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, x := uintptr(args.Problem), uintptr(args.Solutions)
	out, flags := uintptr(args.Out), uintptr(args.Flags)
	switch kernel {
	case device.KernelEnergy:
		return device.Status(native.LaunchEnergy(q, x, out, flags, args.N, args.Batch, r.stream))
	case device.KernelFlipDeltas:
		return device.Status(native.LaunchFlipDeltas(q, x, out, flags, args.N, args.Batch, r.stream))
	default:
		return device.ErrInvalidKernelImage
	}
}

func (r *Runtime) Synchronize() device.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return device.Status(r.stream.Synchronize())
}

func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := device.Check(device.Status(r.stream.Destroy())); err != nil {
		return fmt.Errorf("cuda stream destroy: %w", err)
	}
	r.stream = native.Stream{}
	return nil
}

// values reinterprets a Value slice as the int32 slice native expects.
func values(v []qubo.Value) []int32 {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&v[0])), len(v))
}
