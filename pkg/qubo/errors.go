package qubo

import "errors"

var (
	// ErrOverflow is returned when a reduction over values leaves the int32 range.
	ErrOverflow = errors.New("qubo: value overflow")

	// ErrDimension is returned when a solution or index does not match the problem size.
	ErrDimension = errors.New("qubo: dimension mismatch")

	// ErrInvalidSize is returned for non-positive problem sizes.
	ErrInvalidSize = errors.New("qubo: invalid problem size")

	// ErrInvalidBit is returned when a solution entry is neither 0 nor 1.
	ErrInvalidBit = errors.New("qubo: solution entry is not binary")
)
