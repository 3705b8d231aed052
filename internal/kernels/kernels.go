// Package kernels wraps the device QUBO kernels. Each wrapper checks every
// runtime call and returns the first failing device.Status as its error,
// releasing whatever it allocated on the way out.
package kernels

import (
	"fmt"

	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/pkg/qubo"
)

// OverflowError reports a kernel result that left the Value range.
type OverflowError struct {
	Kernel device.Kernel
	Index  int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("kernels: %s result for solution %d outside value range", e.Kernel, e.Index)
}

func (e *OverflowError) Unwrap() error {
	return qubo.ErrOverflow
}

// Session keeps one problem matrix resident on a device.
type Session struct {
	rt      device.Runtime
	n       int
	problem device.Ptr
}

// Upload copies p to the device.
func Upload(rt device.Runtime, p *qubo.Problem) (*Session, error) {
	n := p.Size()
	var ptr device.Ptr
	if err := device.Check(rt.Malloc(&ptr, n*n)); err != nil {
		return nil, err
	}
	if err := device.Check(rt.MemcpyHtoD(ptr, p.Dense())); err != nil {
		_ = rt.Free(ptr)
		return nil, err
	}
	return &Session{rt: rt, n: n, problem: ptr}, nil
}

// Size is the number of variables of the resident problem.
func (s *Session) Size() int {
	return s.n
}

// Close frees the resident matrix. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.problem == 0 {
		return nil
	}
	p := s.problem
	s.problem = 0
	return device.Check(s.rt.Free(p))
}

func (s *Session) checkBatch(batch []qubo.Solution) error {
	if s.problem == 0 {
		return fmt.Errorf("kernels: session closed: %w", device.ErrInvalidResourceHandle)
	}
	if len(batch) == 0 {
		return fmt.Errorf("kernels: empty batch: %w", qubo.ErrDimension)
	}
	for i, x := range batch {
		if len(x) != s.n {
			return fmt.Errorf("kernels: solution %d has %d values for %d variables: %w", i, len(x), s.n, qubo.ErrDimension)
		}
	}
	return nil
}

// Energies evaluates every solution of batch on the device.
func (s *Session) Energies(batch []qubo.Solution) ([]qubo.Value, error) {
	if err := s.checkBatch(batch); err != nil {
		return nil, err
	}
	out, flags, err := s.run(device.KernelEnergy, batch, len(batch))
	if err != nil {
		return nil, err
	}
	if i := firstFlag(flags); i >= 0 {
		return nil, &OverflowError{Kernel: device.KernelEnergy, Index: i}
	}
	return out, nil
}

// FlipDeltas returns E(flip(x, k)) - E(x) for every k.
func (s *Session) FlipDeltas(x qubo.Solution) ([]qubo.Value, error) {
	batch := []qubo.Solution{x}
	if err := s.checkBatch(batch); err != nil {
		return nil, err
	}
	out, flags, err := s.run(device.KernelFlipDeltas, batch, s.n)
	if err != nil {
		return nil, err
	}
	if i := firstFlag(flags); i >= 0 {
		return nil, &OverflowError{Kernel: device.KernelFlipDeltas, Index: i}
	}
	return out, nil
}

// run stages batch, launches kernel and reads back outLen results plus one
// overflow flag per solution.
func (s *Session) run(kernel device.Kernel, batch []qubo.Solution, outLen int) (out, flags []qubo.Value, err error) {
	rt := s.rt
	b := len(batch)

	arena := device.NewArena(rt)
	defer func() {
		if rerr := device.Check(arena.Release()); err == nil {
			err = rerr
		}
	}()

	args := device.LaunchArgs{Problem: s.problem, N: s.n, Batch: b}
	if err := device.Check(arena.Alloc(&args.Solutions, b*s.n)); err != nil {
		return nil, nil, err
	}
	if err := device.Check(arena.Alloc(&args.Out, outLen)); err != nil {
		return nil, nil, err
	}
	if err := device.Check(arena.Alloc(&args.Flags, b)); err != nil {
		return nil, nil, err
	}

	flat := make([]qubo.Value, 0, b*s.n)
	for _, x := range batch {
		flat = append(flat, x...)
	}
	if err := device.Check(rt.MemcpyHtoD(args.Solutions, flat)); err != nil {
		return nil, nil, err
	}
	if err := device.Check(rt.Memset(args.Flags, 0, b)); err != nil {
		return nil, nil, err
	}
	if err := device.Check(rt.Launch(kernel, args)); err != nil {
		return nil, nil, err
	}
	if err := device.Check(rt.Synchronize()); err != nil {
		return nil, nil, err
	}

	out = make([]qubo.Value, outLen)
	flags = make([]qubo.Value, b)
	if err := device.Check(rt.MemcpyDtoH(out, args.Out)); err != nil {
		return nil, nil, err
	}
	if err := device.Check(rt.MemcpyDtoH(flags, args.Flags)); err != nil {
		return nil, nil, err
	}
	return out, flags, nil
}

func firstFlag(flags []qubo.Value) int {
	for i, f := range flags {
		if f != 0 {
			return i
		}
	}
	return -1
}

// Energies uploads p, evaluates batch and frees the device copy.
func Energies(rt device.Runtime, p *qubo.Problem, batch []qubo.Solution) (energies []qubo.Value, err error) {
	s, err := Upload(rt, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			energies, err = nil, cerr
		}
	}()
	return s.Energies(batch)
}

// FlipDeltas uploads p, computes the flip deltas of x and frees the device
// copy.
func FlipDeltas(rt device.Runtime, p *qubo.Problem, x qubo.Solution) (deltas []qubo.Value, err error) {
	s, err := Upload(rt, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			deltas, err = nil, cerr
		}
	}()
	return s.FlipDeltas(x)
}
