package qubo

import "fmt"

// MaxSize bounds the number of variables so that the dense matrix stays
// addressable and 64-bit accumulation over a row cannot wrap.
const MaxSize = 1 << 14

// Term is one coefficient Q[I][J] of the objective.
type Term struct {
	I, J int
	V    Value
}

// Problem is a QUBO instance in upper-triangular form:
//
//	E(x) = sum_i Q[i][i] x_i + sum_{i<j} Q[i][j] x_i x_j
//
// Coefficients set below the diagonal are folded onto (j, i).
type Problem struct {
	n int
	q []Value
}

// New returns the all-zero problem over n variables.
func New(n int) (*Problem, error) {
	if n <= 0 || n > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	return &Problem{n: n, q: make([]Value, n*n)}, nil
}

// FromTriplets builds a problem by summing terms. Terms hitting the same
// folded position are added with overflow checking.
func FromTriplets(n int, terms []Term) (*Problem, error) {
	p, err := New(n)
	if err != nil {
		return nil, err
	}
	for _, t := range terms {
		if err := p.AddTo(t.I, t.J, t.V); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FromIsing converts an Ising model H(s) = sum h_i s_i + sum J_ij s_i s_j over
// spins s in {-1, +1} into a QUBO with s = 2x - 1. The returned offset
// satisfies H(s) = E(x) + offset.
func FromIsing(n int, h []Value, couplings []Term) (*Problem, Value, error) {
	if len(h) != n {
		return nil, 0, fmt.Errorf("%w: %d biases for %d variables", ErrDimension, len(h), n)
	}
	p, err := New(n)
	if err != nil {
		return nil, 0, err
	}
	var offset Accumulator
	for i, b := range h {
		v, err := Mul(2, b)
		if err != nil {
			return nil, 0, err
		}
		if err := p.AddTo(i, i, v); err != nil {
			return nil, 0, err
		}
		offset.Add(-b)
	}
	for _, t := range couplings {
		if t.V == 0 || t.I == t.J {
			continue
		}
		four, err := Mul(4, t.V)
		if err != nil {
			return nil, 0, err
		}
		two, err := Mul(-2, t.V)
		if err != nil {
			return nil, 0, err
		}
		if err := p.AddTo(t.I, t.J, four); err != nil {
			return nil, 0, err
		}
		if err := p.AddTo(t.I, t.I, two); err != nil {
			return nil, 0, err
		}
		if err := p.AddTo(t.J, t.J, two); err != nil {
			return nil, 0, err
		}
		offset.Add(t.V)
	}
	off, err := offset.Value()
	if err != nil {
		return nil, 0, err
	}
	return p, off, nil
}

// Size is the number of binary variables.
func (p *Problem) Size() int {
	return p.n
}

func (p *Problem) index(i, j int) (int, error) {
	if i < 0 || j < 0 || i >= p.n || j >= p.n {
		return 0, fmt.Errorf("%w: index (%d, %d) outside %dx%d", ErrDimension, i, j, p.n, p.n)
	}
	if i > j {
		i, j = j, i
	}
	return i*p.n + j, nil
}

// At returns the coefficient coupling i and j, in either order.
func (p *Problem) At(i, j int) Value {
	if i > j {
		i, j = j, i
	}
	return p.q[i*p.n+j]
}

// Set overwrites the coefficient at the folded position of (i, j).
func (p *Problem) Set(i, j int, v Value) error {
	idx, err := p.index(i, j)
	if err != nil {
		return err
	}
	p.q[idx] = v
	return nil
}

// AddTo adds v to the coefficient at the folded position of (i, j).
func (p *Problem) AddTo(i, j int, v Value) error {
	idx, err := p.index(i, j)
	if err != nil {
		return err
	}
	sum, err := Add(p.q[idx], v)
	if err != nil {
		return fmt.Errorf("term (%d, %d): %w", i, j, err)
	}
	p.q[idx] = sum
	return nil
}

// Terms lists the non-zero upper-triangular coefficients in row-major order.
func (p *Problem) Terms() []Term {
	var out []Term
	for i := 0; i < p.n; i++ {
		row := p.q[i*p.n : (i+1)*p.n]
		for j := i; j < p.n; j++ {
			if row[j] != 0 {
				out = append(out, Term{I: i, J: j, V: row[j]})
			}
		}
	}
	return out
}

// Dense returns a copy of the row-major n*n matrix. Entries below the
// diagonal are zero.
func (p *Problem) Dense() []Value {
	out := make([]Value, len(p.q))
	copy(out, p.q)
	return out
}

func (p *Problem) checkSolution(x Solution) error {
	if len(x) != p.n {
		return fmt.Errorf("%w: solution has %d entries, problem has %d", ErrDimension, len(x), p.n)
	}
	return nil
}

// Energy evaluates the objective for x.
func (p *Problem) Energy(x Solution) (Value, error) {
	if err := p.checkSolution(x); err != nil {
		return 0, err
	}
	var acc Accumulator
	for i := 0; i < p.n; i++ {
		if x[i] == 0 {
			continue
		}
		row := p.q[i*p.n : (i+1)*p.n]
		for j := i; j < p.n; j++ {
			if x[j] != 0 {
				acc.Add(row[j])
			}
		}
	}
	return acc.Value()
}

// FlipDelta returns E(x with bit k flipped) - E(x) in O(n).
func (p *Problem) FlipDelta(x Solution, k int) (Value, error) {
	if err := p.checkSolution(x); err != nil {
		return 0, err
	}
	if k < 0 || k >= p.n {
		return 0, fmt.Errorf("%w: bit %d", ErrDimension, k)
	}
	var acc Accumulator
	acc.Add(p.q[k*p.n+k])
	for j := 0; j < p.n; j++ {
		if j != k && x[j] != 0 {
			acc.Add(p.At(k, j))
		}
	}
	return FromInt64(-x.sigma(k) * acc.Int64())
}

// UpdateDelta returns the flip delta of bit k for x with bit j already
// flipped, given deltaK = FlipDelta(x, k). x is the solution before j was
// flipped. The update is O(1).
func (p *Problem) UpdateDelta(x Solution, deltaK Value, j, k int) (Value, error) {
	if j == k {
		return FromInt64(-int64(deltaK))
	}
	return FromInt64(int64(deltaK) + x.sigma(j)*x.sigma(k)*int64(p.At(j, k)))
}
