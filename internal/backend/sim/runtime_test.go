package sim

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dthelegend/diss/internal/device"
	"github.com/dthelegend/diss/pkg/qubo"
)

func mustMalloc(t *testing.T, rt *Runtime, count int) device.Ptr {
	t.Helper()
	var p device.Ptr
	if err := device.Check(rt.Malloc(&p, count)); err != nil {
		t.Fatalf("Malloc(%d): %v", count, err)
	}
	return p
}

func TestMaxValueRoundTrip(t *testing.T) {
	t.Parallel()

	rt := New(Options{})
	p := mustMalloc(t, rt, 4)
	in := []qubo.Value{qubo.MaxValue, qubo.MinValue, -1, 0}
	if err := device.Check(rt.MemcpyHtoD(p, in)); err != nil {
		t.Fatalf("MemcpyHtoD: %v", err)
	}
	out := make([]qubo.Value, 4)
	if err := device.Check(rt.MemcpyDtoH(out, p)); err != nil {
		t.Fatalf("MemcpyDtoH: %v", err)
	}
	if out[0] != 2147483647 {
		t.Fatalf("max value round trip: got %d", out[0])
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryLimit(t *testing.T) {
	t.Parallel()

	rt := New(Options{MemoryValues: 100})
	a := mustMalloc(t, rt, 60)
	var b device.Ptr
	if s := rt.Malloc(&b, 41); s != device.ErrMemoryAllocation {
		t.Fatalf("over-limit Malloc: got %v", s)
	}
	if b != 0 {
		t.Fatalf("failed Malloc wrote pointer %v", b)
	}
	if s := rt.Free(a); s != device.Success {
		t.Fatalf("Free: %v", s)
	}
	_ = mustMalloc(t, rt, 100)
	if n, used := rt.Live(); n != 1 || used != 100 {
		t.Fatalf("Live: got %d allocs / %d values", n, used)
	}
}

func TestPointerValidation(t *testing.T) {
	t.Parallel()

	rt := New(Options{})
	p := mustMalloc(t, rt, 2)

	tests := []struct {
		name string
		got  device.Status
		want device.Status
	}{
		{"free unknown", rt.Free(p + 4), device.ErrInvalidDevicePointer},
		{"copy in too long", rt.MemcpyHtoD(p, make([]qubo.Value, 3)), device.ErrInvalidValue},
		{"copy out unknown", rt.MemcpyDtoH(make([]qubo.Value, 1), 42), device.ErrInvalidDevicePointer},
		{"memset past end", rt.Memset(p, 1, 3), device.ErrInvalidValue},
		{"malloc zero", rt.Malloc(new(device.Ptr), 0), device.ErrInvalidValue},
		{"bad ordinal", rt.SetDevice(1), device.ErrInvalidDevice},
		{"free nil", rt.Free(0), device.Success},
	}
	for _, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, tc.got, tc.want)
		}
	}
	if s := rt.Free(p); s != device.Success {
		t.Fatalf("Free: %v", s)
	}
	if s := rt.Free(p); s != device.ErrInvalidDevicePointer {
		t.Fatalf("double Free: got %v", s)
	}
}

func TestFailOnInjectsWithoutSideEffects(t *testing.T) {
	t.Parallel()

	rt := New(Options{})
	rt.FailOn(OpMalloc, 2, device.ErrMemoryAllocation)
	rt.FailOn(OpMemcpyHtoD, 1, device.Status(4242))

	_ = mustMalloc(t, rt, 8)
	var p device.Ptr
	if s := rt.Malloc(&p, 8); s != device.ErrMemoryAllocation {
		t.Fatalf("second Malloc: got %v", s)
	}
	if n, _ := rt.Live(); n != 1 {
		t.Fatalf("faulted Malloc allocated: %d live", n)
	}
	p = mustMalloc(t, rt, 8)

	err := device.Check(rt.MemcpyHtoD(p, []qubo.Value{7}))
	if code, ok := device.StatusOf(err); !ok || code != 4242 {
		t.Fatalf("injected code: got %v (ok=%v)", code, ok)
	}
	out := make([]qubo.Value, 1)
	if s := rt.MemcpyDtoH(out, p); s != device.Success || out[0] != 0 {
		t.Fatalf("faulted copy changed memory: %v %v", s, out)
	}
	if got := rt.Calls(OpMalloc); got != 3 {
		t.Fatalf("Calls(malloc): got %d", got)
	}
}

func TestClosedRuntimeFails(t *testing.T) {
	t.Parallel()

	rt := New(Options{})
	p := mustMalloc(t, rt, 1)
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s := rt.Free(p); s != device.ErrInitialization {
		t.Fatalf("Free after Close: got %v", s)
	}
}

func TestProperties(t *testing.T) {
	t.Parallel()

	rt := New(Options{MemoryValues: 1024})
	var props device.Properties
	if err := device.Check(rt.Properties(&props)); err != nil {
		t.Fatalf("Properties: %v", err)
	}
	if props.MemoryBytes != 4096 || props.ComputeCap == "" {
		t.Fatalf("unexpected properties: %+v", props)
	}
	var count int
	if err := device.Check(rt.DeviceCount(&count)); err != nil || count != 1 {
		t.Fatalf("DeviceCount: %d %v", count, err)
	}
}

// launch uploads a problem and batch, runs kernel and returns out and flags.
func launch(t *testing.T, rt *Runtime, kernel device.Kernel, p *qubo.Problem, batch []qubo.Solution) ([]qubo.Value, []qubo.Value) {
	t.Helper()
	n := p.Size()
	outLen := len(batch)
	if kernel == device.KernelFlipDeltas {
		outLen *= n
	}
	args := device.LaunchArgs{
		Problem:   mustMalloc(t, rt, n*n),
		Solutions: mustMalloc(t, rt, len(batch)*n),
		Out:       mustMalloc(t, rt, outLen),
		Flags:     mustMalloc(t, rt, len(batch)),
		N:         n,
		Batch:     len(batch),
	}
	flat := make([]qubo.Value, 0, len(batch)*n)
	for _, x := range batch {
		flat = append(flat, x...)
	}
	if err := device.Check(rt.MemcpyHtoD(args.Problem, p.Dense())); err != nil {
		t.Fatal(err)
	}
	if err := device.Check(rt.MemcpyHtoD(args.Solutions, flat)); err != nil {
		t.Fatal(err)
	}
	if err := device.Check(rt.Launch(kernel, args)); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	out := make([]qubo.Value, outLen)
	flags := make([]qubo.Value, len(batch))
	if err := device.Check(rt.MemcpyDtoH(out, args.Out)); err != nil {
		t.Fatal(err)
	}
	if err := device.Check(rt.MemcpyDtoH(flags, args.Flags)); err != nil {
		t.Fatal(err)
	}
	return out, flags
}

func sampleProblem(t *testing.T) *qubo.Problem {
	t.Helper()
	p, err := qubo.FromTriplets(4, []qubo.Term{
		{I: 0, J: 0, V: -3}, {I: 1, J: 1, V: 2}, {I: 2, J: 2, V: -1}, {I: 3, J: 3, V: 5},
		{I: 0, J: 1, V: 4}, {I: 2, J: 0, V: -6}, {I: 1, J: 3, V: 7}, {I: 2, J: 3, V: -2},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestEnergyKernelMatchesHost(t *testing.T) {
	t.Parallel()

	p := sampleProblem(t)
	var batch []qubo.Solution
	for bits := range uint64(16) {
		batch = append(batch, qubo.SolutionFromBits(bits, 4))
	}
	for _, workers := range []int{1, 3, 16} {
		rt := New(Options{Workers: workers})
		out, flags := launch(t, rt, device.KernelEnergy, p, batch)
		for b, x := range batch {
			want, err := p.Energy(x)
			if err != nil {
				t.Fatal(err)
			}
			if out[b] != want || flags[b] != 0 {
				t.Fatalf("workers=%d x=%s: got %d flag %d want %d", workers, x, out[b], flags[b], want)
			}
		}
	}
}

func TestFlipDeltaKernelMatchesHost(t *testing.T) {
	t.Parallel()

	p := sampleProblem(t)
	batch := []qubo.Solution{
		qubo.SolutionFromBits(0b0000, 4),
		qubo.SolutionFromBits(0b1011, 4),
		qubo.SolutionFromBits(0b1111, 4),
	}
	rt := New(Options{Workers: 2})
	out, flags := launch(t, rt, device.KernelFlipDeltas, p, batch)
	for b, x := range batch {
		if flags[b] != 0 {
			t.Fatalf("unexpected overflow flag for %s", x)
		}
		for k := range 4 {
			want, err := p.FlipDelta(x, k)
			if err != nil {
				t.Fatal(err)
			}
			if got := out[b*4+k]; got != want {
				t.Fatalf("x=%s k=%d: got %d want %d", x, k, got, want)
			}
		}
	}
}

func TestEnergyKernelFlagsOverflow(t *testing.T) {
	t.Parallel()

	p, err := qubo.FromTriplets(2, []qubo.Term{
		{I: 0, J: 0, V: qubo.MaxValue},
		{I: 1, J: 1, V: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	batch := []qubo.Solution{{1, 0}, {1, 1}}
	rt := New(Options{})
	out, flags := launch(t, rt, device.KernelEnergy, p, batch)
	if out[0] != qubo.MaxValue || flags[0] != 0 {
		t.Fatalf("in-range energy: got %d flag %d", out[0], flags[0])
	}
	if flags[1] != 1 {
		t.Fatalf("overflowing energy not flagged: %d", flags[1])
	}
}

func TestLaunchValidatesBuffers(t *testing.T) {
	t.Parallel()

	rt := New(Options{})
	short := mustMalloc(t, rt, 3)
	ok := mustMalloc(t, rt, 16)
	args := device.LaunchArgs{Problem: short, Solutions: ok, Out: ok, Flags: ok, N: 4, Batch: 1}
	if s := rt.Launch(device.KernelEnergy, args); s != device.ErrIllegalAddress {
		t.Fatalf("short problem buffer: got %v", s)
	}
	args.Problem = ok
	if s := rt.Launch(device.Kernel(9), args); s != device.ErrInvalidKernelImage {
		t.Fatalf("unknown kernel: got %v", s)
	}
	args.Batch = 0
	if s := rt.Launch(device.KernelEnergy, args); s != device.ErrInvalidValue {
		t.Fatalf("empty batch: got %v", s)
	}
}
