package qubo

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

func randomProblem(t *testing.T, rng *rand.Rand, n int, lo, hi int) *Problem {
	t.Helper()
	p, err := New(n)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if err := p.Set(i, j, Value(lo+rng.IntN(hi-lo))); err != nil {
				t.Fatalf("Set: %v", err)
			}
		}
	}
	return p
}

func randomSolution(rng *rand.Rand, n int) Solution {
	x := NewSolution(n)
	for i := range x {
		x[i] = Value(rng.IntN(2))
	}
	return x
}

func TestEnergyUpperTriangle(t *testing.T) {
	t.Parallel()

	p, err := FromTriplets(3, []Term{
		{0, 0, 1}, {0, 1, 1}, {0, 2, 1},
		{1, 1, 1}, {1, 2, 1},
		{2, 2, 1},
	})
	if err != nil {
		t.Fatalf("FromTriplets: %v", err)
	}
	got, err := p.Energy(Solution{1, 1, 1})
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}
	if got != 6 {
		t.Fatalf("energy: got %d want 6", got)
	}
	got, err = p.Energy(Solution{1, 0, 1})
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}
	if got != 3 {
		t.Fatalf("energy: got %d want 3", got)
	}
}

func TestLowerTermsFoldOntoUpper(t *testing.T) {
	t.Parallel()

	p, err := FromTriplets(2, []Term{{1, 0, 5}, {0, 1, -2}})
	if err != nil {
		t.Fatalf("FromTriplets: %v", err)
	}
	if p.At(0, 1) != 3 || p.At(1, 0) != 3 {
		t.Fatalf("folded coefficient: got %d", p.At(0, 1))
	}
	dense := p.Dense()
	if dense[2] != 0 {
		t.Fatalf("lower triangle must stay zero, got %d", dense[2])
	}
}

func TestFlipDeltaMatchesEnergyDifference(t *testing.T) {
	t.Parallel()

	const n = 40
	rng := rand.New(rand.NewPCG(1, 2))
	p := randomProblem(t, rng, n, -128, 128)
	x := randomSolution(rng, n)

	base, err := p.Energy(x)
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}
	for k := 0; k < n; k++ {
		flipped, err := p.Energy(x.Flip(k))
		if err != nil {
			t.Fatalf("Energy: %v", err)
		}
		delta, err := p.FlipDelta(x, k)
		if err != nil {
			t.Fatalf("FlipDelta: %v", err)
		}
		if flipped-base != delta {
			t.Fatalf("bit %d: delta %d, energy difference %d", k, delta, flipped-base)
		}
		back, err := p.FlipDelta(x.Flip(k), k)
		if err != nil {
			t.Fatalf("FlipDelta: %v", err)
		}
		if back+delta != 0 {
			t.Fatalf("bit %d: flipping back should negate delta, got %d and %d", k, delta, back)
		}
	}
}

func TestUpdateDeltaMatchesRecomputation(t *testing.T) {
	t.Parallel()

	const n = 24
	rng := rand.New(rand.NewPCG(3, 4))
	p := randomProblem(t, rng, n, -64, 64)
	x := randomSolution(rng, n)

	for j := 0; j < n; j++ {
		xj := x.Flip(j)
		for k := 0; k < n; k++ {
			deltaK, err := p.FlipDelta(x, k)
			if err != nil {
				t.Fatalf("FlipDelta: %v", err)
			}
			got, err := p.UpdateDelta(x, deltaK, j, k)
			if err != nil {
				t.Fatalf("UpdateDelta: %v", err)
			}
			want, err := p.FlipDelta(xj, k)
			if err != nil {
				t.Fatalf("FlipDelta: %v", err)
			}
			if got != want {
				t.Fatalf("j=%d k=%d: got %d want %d", j, k, got, want)
			}
		}
	}
}

func TestEnergyReportsOverflow(t *testing.T) {
	t.Parallel()

	p, err := FromTriplets(2, []Term{{0, 0, MaxValue}, {1, 1, 1}})
	if err != nil {
		t.Fatalf("FromTriplets: %v", err)
	}
	if _, err := p.Energy(Solution{1, 1}); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	got, err := p.Energy(Solution{1, 0})
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}
	if got != MaxValue {
		t.Fatalf("energy: got %d want %d", got, MaxValue)
	}
}

func TestAddToReportsOverflow(t *testing.T) {
	t.Parallel()

	_, err := FromTriplets(1, []Term{{0, 0, MinValue}, {0, 0, -1}})
	if !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestDimensionErrors(t *testing.T) {
	t.Parallel()

	if _, err := New(0); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("New(0): expected ErrInvalidSize, got %v", err)
	}
	p, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Set(2, 0, 1); !errors.Is(err, ErrDimension) {
		t.Fatalf("Set out of range: got %v", err)
	}
	if _, err := p.Energy(Solution{1}); !errors.Is(err, ErrDimension) {
		t.Fatalf("Energy short solution: got %v", err)
	}
	if _, err := p.FlipDelta(Solution{1, 0}, 5); !errors.Is(err, ErrDimension) {
		t.Fatalf("FlipDelta bad bit: got %v", err)
	}
}

func TestFromIsingPreservesEnergy(t *testing.T) {
	t.Parallel()

	const n = 6
	rng := rand.New(rand.NewPCG(5, 6))
	h := make([]Value, n)
	for i := range h {
		h[i] = Value(rng.IntN(64) - 32)
	}
	var couplings []Term
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			couplings = append(couplings, Term{I: i, J: j, V: Value(rng.IntN(64) - 32)})
		}
	}

	p, offset, err := FromIsing(n, h, couplings)
	if err != nil {
		t.Fatalf("FromIsing: %v", err)
	}

	for bits := uint64(0); bits < 1<<n; bits++ {
		x := SolutionFromBits(bits, n)
		var ising int64
		for i := 0; i < n; i++ {
			ising += int64(h[i]) * x.sigma(i)
		}
		for _, c := range couplings {
			ising += int64(c.V) * x.sigma(c.I) * x.sigma(c.J)
		}
		e, err := p.Energy(x)
		if err != nil {
			t.Fatalf("Energy: %v", err)
		}
		if int64(e)+int64(offset) != ising {
			t.Fatalf("x=%s: qubo %d + offset %d != ising %d", x, e, offset, ising)
		}
	}
}

func TestTermsListsNonZeroUpperEntries(t *testing.T) {
	t.Parallel()

	p, err := FromTriplets(3, []Term{{2, 0, 4}, {1, 1, -1}})
	if err != nil {
		t.Fatalf("FromTriplets: %v", err)
	}
	terms := p.Terms()
	if len(terms) != 2 {
		t.Fatalf("terms: got %v", terms)
	}
	if terms[0] != (Term{I: 0, J: 2, V: 4}) || terms[1] != (Term{I: 1, J: 1, V: -1}) {
		t.Fatalf("unexpected terms %v", terms)
	}
}

func TestValueRangeFidelity(t *testing.T) {
	t.Parallel()

	for _, v := range []int64{math.MinInt32, -1, 0, 1, math.MaxInt32} {
		got, err := FromInt64(v)
		if err != nil {
			t.Fatalf("FromInt64(%d): %v", v, err)
		}
		if int64(got) != v {
			t.Fatalf("FromInt64(%d) = %d", v, got)
		}
	}
	for _, v := range []int64{math.MinInt32 - 1, math.MaxInt32 + 1} {
		if _, err := FromInt64(v); !errors.Is(err, ErrOverflow) {
			t.Fatalf("FromInt64(%d): expected ErrOverflow, got %v", v, err)
		}
	}
}
