package sat

import "slices"

// ToThreeSAT splits every clause wider than three literals into a chain of
// three-literal clauses linked by fresh variables numbered after p's:
//
//	(l1 ∨ l2 ∨ z1) (l3 ∨ ¬z1 ∨ z2) ... (lk-1 ∨ lk ∨ ¬zk-3)
//
// Shorter clauses are copied. The result is satisfiable exactly when p is,
// and its first p.NumVars variables of any model form a model of p.
func ToThreeSAT(p *Problem) *Problem {
	out := &Problem{NumVars: p.NumVars, Clauses: make([]Clause, 0, len(p.Clauses))}
	for _, c := range p.Clauses {
		k := len(c)
		if k <= 3 {
			out.Clauses = append(out.Clauses, slices.Clone(c))
			continue
		}
		z := Literal(out.NumVars + 1)
		out.NumVars += k - 3
		out.Clauses = append(out.Clauses, Clause{c[0], c[1], z})
		for i := 2; i < k-2; i++ {
			out.Clauses = append(out.Clauses, Clause{c[i], -z, z + 1})
			z++
		}
		out.Clauses = append(out.Clauses, Clause{c[k-2], c[k-1], -z})
	}
	return out
}

// Normalize drops repeated literals from c. It reports false when c holds a
// literal and its negation, which makes the clause always satisfied.
func (c Clause) Normalize() (Clause, bool) {
	out := make(Clause, 0, len(c))
	for _, l := range c {
		if slices.Contains(out, -l) {
			return nil, false
		}
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	return out, true
}
