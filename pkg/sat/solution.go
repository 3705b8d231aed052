package sat

import (
	"strconv"
	"strings"
)

type Status int

const (
	Unknown Status = iota
	Satisfiable
	Unsatisfiable
)

func (s Status) String() string {
	switch s {
	case Satisfiable:
		return "SATISFIABLE"
	case Unsatisfiable:
		return "UNSATISFIABLE"
	default:
		return "UNKNOWN"
	}
}

// Solution is a solver verdict. Assignment is set only when Satisfiable.
type Solution struct {
	Status     Status
	Assignment []bool
}

// String renders the verdict in the DIMACS result format:
//
//	s SATISFIABLE
//	v 1 -2 3 0
func (s Solution) String() string {
	var b strings.Builder
	b.WriteString("s ")
	b.WriteString(s.Status.String())
	if s.Status != Satisfiable {
		return b.String()
	}
	b.WriteString("\nv")
	for i, v := range s.Assignment {
		b.WriteByte(' ')
		if !v {
			b.WriteByte('-')
		}
		b.WriteString(strconv.Itoa(i + 1))
	}
	b.WriteString(" 0")
	return b.String()
}
