package reduce

import (
	"fmt"

	"github.com/dthelegend/diss/pkg/qubo"
	"github.com/dthelegend/diss/pkg/sat"
)

const (
	choiVertex = -1
	// choiEdge outweighs the reward of both endpoints.
	choiEdge = 12
)

// Choi reduces k-SAT to maximum independent set. Every literal occurrence
// is a vertex rewarded by 1; occurrences in the same clause are joined, and
// so is every pair of complementary occurrences. A formula with C clauses
// is satisfiable exactly when the ground state reaches -C.
type Choi struct{}

func (Choi) Name() string {
	return NameChoi
}

func (Choi) Reduce(p *sat.Problem) (*qubo.Problem, Model, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	m := &OccurrenceModel{
		pos: make([][]int, p.NumVars),
		neg: make([][]int, p.NumVars),
	}
	for _, c := range p.Clauses {
		m.size += len(c)
	}
	q, err := qubo.New(m.size)
	if err != nil {
		return nil, nil, fmt.Errorf("reduce: %w", err)
	}

	vertex := 0
	for _, c := range p.Clauses {
		first := vertex
		for _, l := range c {
			if err := setCoefficient(q, vertex, vertex, choiVertex); err != nil {
				return nil, nil, err
			}
			for other := first; other < vertex; other++ {
				if err := addEdge(q, other, vertex); err != nil {
					return nil, nil, err
				}
			}
			if l.Positive() {
				m.pos[l.Var()] = append(m.pos[l.Var()], vertex)
			} else {
				m.neg[l.Var()] = append(m.neg[l.Var()], vertex)
			}
			vertex++
		}
	}
	for v := range p.NumVars {
		for _, i := range m.pos[v] {
			for _, j := range m.neg[v] {
				if err := addEdge(q, i, j); err != nil {
					return nil, nil, err
				}
			}
		}
	}
	return q, m, nil
}

func addEdge(q *qubo.Problem, i, j int) error {
	if err := q.AddTo(i, j, choiEdge); err != nil {
		return fmt.Errorf("reduce: edge (%d, %d): %w", i, j, err)
	}
	return nil
}

// OccurrenceModel maps Choi vertices back to variables. pos[v] and neg[v]
// list the vertices of the positive and negative occurrences of v.
type OccurrenceModel struct {
	pos, neg [][]int
	size     int
}

func (m *OccurrenceModel) Size() int {
	return m.size
}

// UpModel sets a variable true when a positive occurrence is chosen and no
// negative one is. Variables with no chosen occurrence are false.
func (m *OccurrenceModel) UpModel(x qubo.Solution) (assignment []bool, conflicts int, err error) {
	if err := checkSize(m, x); err != nil {
		return nil, 0, err
	}
	chosen := func(vertices []int) bool {
		for _, i := range vertices {
			if x[i] != 0 {
				return true
			}
		}
		return false
	}
	assignment = make([]bool, len(m.pos))
	for v := range assignment {
		isTrue, isFalse := chosen(m.pos[v]), chosen(m.neg[v])
		if isTrue && isFalse {
			conflicts++
		}
		assignment[v] = isTrue && !isFalse
	}
	return assignment, conflicts, nil
}
