package device

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

// scripted returns the queued outcomes in order and counts evaluations.
type scripted struct {
	outcomes []Status
	calls    int
}

func (s *scripted) next() Status {
	out := s.outcomes[s.calls]
	s.calls++
	return out
}

func TestCheckStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	ops := &scripted{outcomes: []Status{Success, Success, ErrMemoryAllocation}}
	var reached []int

	run := func() error {
		if err := Check(ops.next()); err != nil {
			return err
		}
		reached = append(reached, 1)
		if err := Check(ops.next()); err != nil {
			return err
		}
		reached = append(reached, 2)
		if err := Check(ops.next()); err != nil {
			return err
		}
		reached = append(reached, 3)
		return nil
	}

	err := run()
	if err == nil {
		t.Fatal("expected failure")
	}
	code, ok := StatusOf(err)
	if !ok || code != 2 {
		t.Fatalf("propagated code: got %v (ok=%v) want 2", code, ok)
	}
	if len(reached) != 2 || reached[0] != 1 || reached[1] != 2 {
		t.Fatalf("statements after the failure ran: %v", reached)
	}
	if ops.calls != 3 {
		t.Fatalf("operations evaluated: got %d want 3", ops.calls)
	}
}

func TestCheckSuccessContinues(t *testing.T) {
	t.Parallel()

	ops := &scripted{outcomes: []Status{Success, Success, Success}}
	steps := 0
	for range 3 {
		if err := Check(ops.next()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		steps++
	}
	if steps != 3 {
		t.Fatalf("steps: got %d", steps)
	}
}

func TestCheckEvaluatesOperationOnce(t *testing.T) {
	t.Parallel()

	for _, outcome := range []Status{Success, ErrLaunchFailure} {
		ops := &scripted{outcomes: []Status{outcome}}
		_ = Check(ops.next())
		if ops.calls != 1 {
			t.Fatalf("outcome %v: operation evaluated %d times", outcome, ops.calls)
		}
	}
}

func TestCheckPreservesEveryCode(t *testing.T) {
	t.Parallel()

	codes := []int64{math.MinInt32, math.MinInt32 + 1, -1, 1, 2, 255, 256, 719, 999, 1 << 20, math.MaxInt32 - 1, math.MaxInt32}
	for c := int64(-300); c <= 1000; c += 7 {
		codes = append(codes, c)
	}

	for _, c := range codes {
		if c == 0 {
			continue
		}
		want := Status(c)
		err := Check(want)
		if err == nil {
			t.Fatalf("code %d: Check returned nil", c)
		}
		got, ok := StatusOf(err)
		if !ok || got != want || int64(got.Code()) != c {
			t.Fatalf("code %d: recovered %d (ok=%v)", c, got, ok)
		}

		wrapped := fmt.Errorf("solve: %w", fmt.Errorf("kernel: %w", err))
		got, ok = StatusOf(wrapped)
		if !ok || got != want {
			t.Fatalf("code %d through wrapping: recovered %d (ok=%v)", c, got, ok)
		}
		if !errors.Is(wrapped, want) {
			t.Fatalf("code %d: errors.Is failed through wrapping", c)
		}
	}
}

func TestCheckSuccessDoesNotAllocate(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		if err := Check(Success); err != nil {
			t.Fatal("unexpected error")
		}
	})
	if allocs != 0 {
		t.Fatalf("Check(Success) allocated %.1f times", allocs)
	}
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	if s, ok := StatusOf(nil); !ok || s != Success {
		t.Fatalf("StatusOf(nil): got %v %v", s, ok)
	}
	if _, ok := StatusOf(errors.New("plain")); ok {
		t.Fatal("plain error must not carry a status")
	}
	if !IsStatus(fmt.Errorf("x: %w", ErrNoDevice), ErrNoDevice) {
		t.Fatal("IsStatus should match a wrapped code")
	}
	if IsStatus(nil, Success) {
		t.Fatal("IsStatus(nil) must be false")
	}
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		str    string
		err    string
	}{
		{ErrMemoryAllocation, "out of memory", "device status 2 (out of memory)"},
		{ErrLaunchFailure, "unspecified launch failure", "device status 719 (unspecified launch failure)"},
		{Status(12345), "status(12345)", "device status 12345 (status(12345))"},
		{Status(-7), "status(-7)", "device status -7 (status(-7))"},
	}
	for _, tc := range tests {
		if got := tc.status.String(); got != tc.str {
			t.Errorf("String(%d): got %q want %q", tc.status, got, tc.str)
		}
		if got := tc.status.Error(); got != tc.err {
			t.Errorf("Error(%d): got %q want %q", tc.status, got, tc.err)
		}
	}
	if !Success.OK() || ErrUnknown.OK() {
		t.Error("OK mismatch")
	}
}
