package backend

import (
	"context"
	"strings"
	"testing"

	"github.com/dthelegend/diss/internal/device"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{"", Auto, false},
		{"  SIM ", Sim, false},
		{"cuda", CUDA, false},
		{"auto", Auto, false},
		{"cpu", "", true},
	}
	for _, tc := range tests {
		got, err := Normalize(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("Normalize(%q): got %q, %v", tc.in, got, err)
		}
	}
}

func TestAvailableAlwaysListsSim(t *testing.T) {
	t.Parallel()

	if !strings.HasPrefix(Available(), Sim) || !Has(Sim) {
		t.Fatalf("sim must always be available: %q", Available())
	}
}

func TestOpenSim(t *testing.T) {
	t.Parallel()

	rt, err := Open(context.Background(), "sim", Options{MemoryValues: 32})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()
	if rt.Name() != Sim {
		t.Fatalf("Name: got %q", rt.Name())
	}
	var p device.Ptr
	if s := rt.Malloc(&p, 33); s != device.ErrMemoryAllocation {
		t.Fatalf("memory limit not applied: %v", s)
	}
}

func TestOpenAutoReturnsRuntime(t *testing.T) {
	t.Parallel()

	rt, err := Open(context.Background(), "", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()
	if !Has(rt.Name()) {
		t.Fatalf("auto selected unavailable backend %q", rt.Name())
	}
}

func TestOpenUnknown(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "tpu", Options{}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
