package sat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a DIMACS CNF instance. Comment lines start with 'c'; a line
// starting with '%' ends the clause section. Clauses are 0-terminated and may
// span lines.
func Parse(r io.Reader) (*Problem, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var p *Problem
	want := 0
	var clause Clause
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == 'c' {
			continue
		}
		if text[0] == '%' {
			break
		}
		if p == nil {
			hdr, n, err := parseHeader(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			p, want = hdr, n
			p.Clauses = make([]Clause, 0, n)
			continue
		}
		for _, field := range strings.Fields(text) {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %q is not an integer", line, ErrClause, field)
			}
			if v == 0 {
				p.Clauses = append(p.Clauses, clause)
				clause = nil
				continue
			}
			clause = append(clause, Literal(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrHeader
	}
	if len(clause) != 0 {
		return nil, fmt.Errorf("%w: last clause is not 0-terminated", ErrClause)
	}
	if len(p.Clauses) != want {
		return nil, fmt.Errorf("%w: header declares %d, found %d", ErrClauseSize, want, len(p.Clauses))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseHeader(text string) (*Problem, int, error) {
	f := strings.Fields(text)
	if len(f) != 4 || f[0] != "p" || f[1] != "cnf" {
		return nil, 0, fmt.Errorf("%w: %q", ErrHeader, text)
	}
	vars, err := strconv.Atoi(f[2])
	if err != nil || vars < 0 {
		return nil, 0, fmt.Errorf("%w: variable count %q", ErrHeader, f[2])
	}
	clauses, err := strconv.Atoi(f[3])
	if err != nil || clauses < 0 {
		return nil, 0, fmt.Errorf("%w: clause count %q", ErrHeader, f[3])
	}
	return &Problem{NumVars: vars}, clauses, nil
}
