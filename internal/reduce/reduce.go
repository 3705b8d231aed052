// Package reduce turns k-SAT instances into QUBO problems and maps QUBO
// solutions back to variable assignments.
package reduce

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dthelegend/diss/internal/logger"
	"github.com/dthelegend/diss/internal/solver"
	"github.com/dthelegend/diss/pkg/qubo"
	"github.com/dthelegend/diss/pkg/sat"
)

const (
	NameNusslein23 = "nusslein23"
	NameChoi       = "choi"
	NameChancellor = "chancellor"
)

var ErrUnknownReduction = errors.New("reduce: unknown reduction")

// Model maps solutions of a reduced problem back to the SAT instance.
type Model interface {
	// Size is the number of QUBO variables of the reduced problem.
	Size() int
	// UpModel reads an assignment off x. Variables the solution asserts
	// both ways resolve to false and are counted as conflicts.
	UpModel(x qubo.Solution) (assignment []bool, conflicts int, err error)
}

// Reduction turns a SAT instance into a QUBO whose ground states encode
// satisfying assignments whenever one exists.
type Reduction interface {
	Name() string
	Reduce(p *sat.Problem) (*qubo.Problem, Model, error)
}

// Names lists the available reductions, the default first.
func Names() []string {
	return []string{NameNusslein23, NameChoi, NameChancellor}
}

// New returns the reduction called name. The empty name selects Nusslein23.
func New(name string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameNusslein23:
		return Nusslein23{}, nil
	case NameChoi:
		return Choi{}, nil
	case NameChancellor:
		return Chancellor{}, nil
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownReduction, name, strings.Join(Names(), ", "))
	}
}

func checkSize(m Model, x qubo.Solution) error {
	if len(x) != m.Size() {
		return fmt.Errorf("reduce: %w: solution has %d entries, reduction has %d", qubo.ErrDimension, len(x), m.Size())
	}
	return nil
}

func setCoefficient(q *qubo.Problem, i, j int, v int64) error {
	val, err := qubo.FromInt64(v)
	if err != nil {
		return fmt.Errorf("reduce: coefficient (%d, %d): %w", i, j, err)
	}
	return q.Set(i, j, val)
}

// normalized drops repeated literals and the clauses that hold a literal
// together with its negation.
func normalized(clauses []sat.Clause) []sat.Clause {
	out := make([]sat.Clause, 0, len(clauses))
	for _, c := range clauses {
		if c, ok := c.Normalize(); ok {
			out = append(out, c)
		}
	}
	return out
}

// Trivial decides p without a solver when it has no clauses or contains an
// empty clause. The boolean reports whether p was decided.
func Trivial(p *sat.Problem) (sat.Solution, bool) {
	for _, c := range p.Clauses {
		if len(c) == 0 {
			return sat.Solution{Status: sat.Unsatisfiable}, true
		}
	}
	if len(p.Clauses) == 0 {
		return sat.Solution{Status: sat.Satisfiable, Assignment: make([]bool, p.NumVars)}, true
	}
	return sat.Solution{}, false
}

// SolveSAT reduces p with r, solves the QUBO with s and checks the mapped
// assignment. An assignment that violates a clause yields sat.Unknown.
func SolveSAT(ctx context.Context, s solver.Solver, r Reduction, p *sat.Problem) (sat.Solution, solver.Result, error) {
	if err := p.Validate(); err != nil {
		return sat.Solution{}, solver.Result{}, err
	}
	if verdict, ok := Trivial(p); ok {
		logger.FromContext(ctx).Debug("formula decided without solving", "clauses", len(p.Clauses), "status", verdict.Status)
		return verdict, solver.Result{}, nil
	}
	q, model, err := r.Reduce(p)
	if err != nil {
		return sat.Solution{}, solver.Result{}, err
	}
	logger.FromContext(ctx).Debug("reduced sat instance", "reduction", r.Name(),
		"variables", p.NumVars, "clauses", len(p.Clauses), "qubo_size", q.Size())
	return SolveReduced(ctx, s, p, q, model)
}

// SolveReduced solves q, the reduction of p described by model, and maps
// the result back to p.
func SolveReduced(ctx context.Context, s solver.Solver, p *sat.Problem, q *qubo.Problem, model Model) (sat.Solution, solver.Result, error) {
	if verdict, ok := Trivial(p); ok {
		return verdict, solver.Result{}, nil
	}
	log := logger.FromContext(ctx)
	res, err := s.Solve(ctx, q)
	if err != nil {
		return sat.Solution{}, res, err
	}
	assignment, conflicts, err := model.UpModel(res.Solution)
	if err != nil {
		return sat.Solution{}, res, err
	}
	if conflicts > 0 {
		log.Warn("conflicting literals resolved to false", "conflicts", conflicts)
	}
	ok, violated, err := p.Evaluate(assignment)
	if err != nil {
		return sat.Solution{}, res, err
	}
	if !ok {
		log.Error("solution does not satisfy the problem", "clause", violated+1)
		return sat.Solution{Status: sat.Unknown}, res, nil
	}
	return sat.Solution{Status: sat.Satisfiable, Assignment: assignment}, res, nil
}
