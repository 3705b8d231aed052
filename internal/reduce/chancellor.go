package reduce

import (
	"fmt"

	"github.com/dthelegend/diss/pkg/qubo"
	"github.com/dthelegend/diss/pkg/sat"
)

// Chancellor reduces k-SAT through an Ising penalty per clause over spins
// s = 2x - 1. With l_i = c_i s_i the literal spins (c_i = -1 for a negated
// literal) a clause contributes
//
//	sum_{i<j} l_i l_j - sum_i l_i
//
// and a three-literal clause adds an ancilla spin a with sum_i l_i a - a.
// Every satisfying assignment of a clause reaches the same minimum; the
// violating one lies 2 above it for a unit clause and 4 above otherwise.
// Wider clauses are first split with sat.ToThreeSAT.
type Chancellor struct{}

func (Chancellor) Name() string {
	return NameChancellor
}

func (Chancellor) Reduce(p *sat.Problem) (*qubo.Problem, Model, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	split := sat.ToThreeSAT(p)

	clauses := normalized(split.Clauses)
	ancillas := 0
	for _, c := range clauses {
		if len(c) == 3 {
			ancillas++
		}
	}

	n := split.NumVars + ancillas
	bias := make([]int64, n)
	var couplings []qubo.Term
	sign := func(l sat.Literal) qubo.Value {
		if l.Positive() {
			return 1
		}
		return -1
	}

	ancilla := split.NumVars
	for _, c := range clauses {
		for i, li := range c {
			bias[li.Var()] -= int64(sign(li))
			for _, lj := range c[i+1:] {
				couplings = append(couplings, qubo.Term{I: li.Var(), J: lj.Var(), V: sign(li) * sign(lj)})
			}
		}
		if len(c) != 3 {
			continue
		}
		for _, li := range c {
			couplings = append(couplings, qubo.Term{I: li.Var(), J: ancilla, V: sign(li)})
		}
		bias[ancilla]--
		ancilla++
	}

	h := make([]qubo.Value, n)
	for i, b := range bias {
		v, err := qubo.FromInt64(b)
		if err != nil {
			return nil, nil, fmt.Errorf("reduce: bias %d: %w", i, err)
		}
		h[i] = v
	}
	q, _, err := qubo.FromIsing(n, h, couplings)
	if err != nil {
		return nil, nil, fmt.Errorf("reduce: %w", err)
	}
	return q, &PrefixModel{NumVars: p.NumVars, Total: n}, nil
}

// PrefixModel reads the assignment from the first NumVars of Total QUBO
// variables; the rest are link and ancilla variables.
type PrefixModel struct {
	NumVars int
	Total   int
}

func (m *PrefixModel) Size() int {
	return m.Total
}

func (m *PrefixModel) UpModel(x qubo.Solution) (assignment []bool, conflicts int, err error) {
	if err := checkSize(m, x); err != nil {
		return nil, 0, err
	}
	assignment = make([]bool, m.NumVars)
	for v := range assignment {
		assignment[v] = x[v] != 0
	}
	return assignment, 0, nil
}
