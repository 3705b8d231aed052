// Package sat models k-SAT instances in conjunctive normal form and reads and
// writes them in the DIMACS CNF format.
package sat

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Literal is a DIMACS literal: +v for variable v, -v for its negation.
// Variables are numbered from 1.
type Literal int

// Var returns the zero-based variable index.
func (l Literal) Var() int {
	if l < 0 {
		return int(-l) - 1
	}
	return int(l) - 1
}

func (l Literal) Positive() bool {
	return l > 0
}

type Clause []Literal

// Problem is a conjunction of clauses over NumVars variables.
type Problem struct {
	NumVars int
	Clauses []Clause
}

// Satisfied reports whether assignment satisfies the clause.
func (c Clause) Satisfied(assignment []bool) bool {
	for _, l := range c {
		if assignment[l.Var()] == l.Positive() {
			return true
		}
	}
	return false
}

// Evaluate reports whether assignment satisfies every clause, and the index
// of the first violated clause otherwise.
func (p *Problem) Evaluate(assignment []bool) (bool, int, error) {
	if len(assignment) != p.NumVars {
		return false, -1, fmt.Errorf("%w: %d values for %d variables", ErrDimension, len(assignment), p.NumVars)
	}
	for i, c := range p.Clauses {
		if !c.Satisfied(assignment) {
			return false, i, nil
		}
	}
	return true, -1, nil
}

// Validate checks that every literal names a declared variable.
func (p *Problem) Validate() error {
	if p.NumVars < 0 {
		return fmt.Errorf("%w: %d variables", ErrHeader, p.NumVars)
	}
	for i, c := range p.Clauses {
		for _, l := range c {
			if l == 0 || l.Var() >= p.NumVars {
				return fmt.Errorf("%w: clause %d literal %d outside 1..%d", ErrClause, i+1, l, p.NumVars)
			}
		}
	}
	return nil
}

// WriteDIMACS writes p in DIMACS CNF form.
func (p *Problem) WriteDIMACS(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "p cnf %d %d\n", p.NumVars, len(p.Clauses))
	for _, c := range p.Clauses {
		for _, l := range c {
			b.WriteString(strconv.Itoa(int(l)))
			b.WriteByte(' ')
		}
		b.WriteString("0\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (p *Problem) String() string {
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		lits := make([]string, len(c))
		for j, l := range c {
			if l.Positive() {
				lits[j] = "x" + strconv.Itoa(l.Var()+1)
			} else {
				lits[j] = "¬x" + strconv.Itoa(l.Var()+1)
			}
		}
		parts[i] = "(" + strings.Join(lits, " ∨ ") + ")"
	}
	return strings.Join(parts, " ∧ ")
}
