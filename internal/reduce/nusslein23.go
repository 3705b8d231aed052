package reduce

import (
	"fmt"

	"github.com/dthelegend/diss/pkg/qubo"
	"github.com/dthelegend/diss/pkg/sat"
)

// LiteralModel is the Nusslein23 layout: one QUBO variable per literal
// followed by one per clause.
type LiteralModel struct {
	NumVars int
	Clauses int
}

func (m *LiteralModel) Size() int {
	return 2*m.NumVars + m.Clauses
}

// literalIndex places v at 2v and ¬v at 2v+1.
func literalIndex(l sat.Literal) int {
	if l.Positive() {
		return 2 * l.Var()
	}
	return 2*l.Var() + 1
}

// Nusslein23 reduces p to a QUBO over 2V+C variables: one per literal and one
// per clause. Literal diagonals reward occurrences, literal pairs sharing a
// clause are penalised by their co-occurrence count, a variable and its
// negation are penalised by C+1, and each clause variable costs 2 and is
// rewarded by 1 for every literal of its clause.
type Nusslein23 struct{}

func (Nusslein23) Name() string {
	return NameNusslein23
}

func (Nusslein23) Reduce(p *sat.Problem) (*qubo.Problem, Model, error) {
	q, m, err := reduceNusslein23(p)
	if err != nil {
		return nil, nil, err
	}
	return q, m, nil
}

func reduceNusslein23(p *sat.Problem) (*qubo.Problem, *LiteralModel, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	clauses := normalized(p.Clauses)
	m := &LiteralModel{NumVars: p.NumVars, Clauses: len(clauses)}
	q, err := qubo.New(m.Size())
	if err != nil {
		return nil, nil, fmt.Errorf("reduce: %w", err)
	}
	lits := 2 * p.NumVars

	occurrences := make([]int64, lits)
	cooccur := make(map[[2]int]int64)
	for _, c := range clauses {
		for _, a := range c {
			la := literalIndex(a)
			occurrences[la]++
			for _, b := range c {
				lb := literalIndex(b)
				if la < lb {
					cooccur[[2]int{la, lb}]++
				}
			}
		}
	}

	set := func(i, j int, v int64) error {
		return setCoefficient(q, i, j, v)
	}

	for i, n := range occurrences {
		if err := set(i, i, -n); err != nil {
			return nil, nil, err
		}
	}
	for pair, n := range cooccur {
		if err := set(pair[0], pair[1], n); err != nil {
			return nil, nil, err
		}
	}
	for v := range p.NumVars {
		if err := set(2*v, 2*v+1, int64(m.Clauses)+1); err != nil {
			return nil, nil, err
		}
	}
	for ci, c := range clauses {
		j := lits + ci
		if err := set(j, j, 2); err != nil {
			return nil, nil, err
		}
		for _, l := range c {
			if err := set(literalIndex(l), j, -1); err != nil {
				return nil, nil, err
			}
		}
	}
	return q, m, nil
}

// UpModel reads the assignment off a QUBO solution. A variable is true when
// its positive literal is chosen and its negation is not.
func (m *LiteralModel) UpModel(x qubo.Solution) (assignment []bool, conflicts int, err error) {
	if err := checkSize(m, x); err != nil {
		return nil, 0, err
	}
	assignment = make([]bool, m.NumVars)
	for v := range assignment {
		isTrue, isFalse := x[2*v] != 0, x[2*v+1] != 0
		if isTrue && isFalse {
			conflicts++
		}
		assignment[v] = isTrue && !isFalse
	}
	return assignment, conflicts, nil
}
