package qubo

import (
	"fmt"
	"strings"
)

// Solution is a binary assignment stored as Values so it can be copied to a
// device buffer without conversion.
type Solution []Value

// NewSolution returns the all-zero assignment of size n.
func NewSolution(n int) Solution {
	return make(Solution, n)
}

// SolutionFromBits expands the low n bits of bits into an assignment, bit i
// becoming entry i.
func SolutionFromBits(bits uint64, n int) Solution {
	s := make(Solution, n)
	for i := range s {
		s[i] = Value((bits >> uint(i)) & 1)
	}
	return s
}

// ParseSolution reads a string of '0' and '1' characters.
func ParseSolution(text string) (Solution, error) {
	text = strings.TrimSpace(text)
	s := make(Solution, len(text))
	for i, c := range text {
		switch c {
		case '0':
		case '1':
			s[i] = 1
		default:
			return nil, fmt.Errorf("%w: %q at %d", ErrInvalidBit, c, i)
		}
	}
	return s, nil
}

// Clone returns an independent copy.
func (s Solution) Clone() Solution {
	out := make(Solution, len(s))
	copy(out, s)
	return out
}

// Flip returns a copy of s with bit i inverted.
func (s Solution) Flip(i int) Solution {
	out := s.Clone()
	out[i] = 1 - out[i]
	return out
}

// Ones counts the set bits.
func (s Solution) Ones() int {
	n := 0
	for _, v := range s {
		if v != 0 {
			n++
		}
	}
	return n
}

// Validate checks that every entry is 0 or 1.
func (s Solution) Validate() error {
	for i, v := range s {
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: %d at %d", ErrInvalidBit, v, i)
		}
	}
	return nil
}

func (s Solution) String() string {
	var b strings.Builder
	b.Grow(len(s))
	for _, v := range s {
		if v != 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// sigma maps bit k to -1 or +1.
func (s Solution) sigma(k int) int64 {
	return 2*int64(s[k]) - 1
}
