// Package qubo holds the numeric representation of QUBO problems shared by
// host code and device kernels.
package qubo

import (
	"math"
	"unsafe"
)

// Value is a QUBO coefficient or an accumulated objective value. It is the
// element type of every buffer that crosses the host/device boundary.
type Value int32

const (
	MinValue Value = math.MinInt32
	MaxValue Value = math.MaxInt32

	// ValueSize is the width of a Value in bytes.
	ValueSize = int(unsafe.Sizeof(Value(0)))
)

// FromInt64 narrows v to a Value, reporting ErrOverflow instead of wrapping.
func FromInt64(v int64) (Value, error) {
	if v < int64(MinValue) || v > int64(MaxValue) {
		return 0, ErrOverflow
	}
	return Value(v), nil
}

// Add returns a+b or ErrOverflow.
func Add(a, b Value) (Value, error) {
	return FromInt64(int64(a) + int64(b))
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b Value) (Value, error) {
	return FromInt64(int64(a) * int64(b))
}

// Accumulator sums values in 64 bits and checks the range once at the end.
// Partial sums may leave the Value range as long as the total does not.
type Accumulator struct {
	sum int64
}

func (a *Accumulator) Add(v Value) {
	a.sum += int64(v)
}

// Int64 reports the unchecked running total.
func (a *Accumulator) Int64() int64 {
	return a.sum
}

// Value returns the total or ErrOverflow when it does not fit.
func (a *Accumulator) Value() (Value, error) {
	return FromInt64(a.sum)
}

// Sum reduces vs with overflow checking.
func Sum(vs []Value) (Value, error) {
	var acc Accumulator
	for _, v := range vs {
		acc.Add(v)
	}
	return acc.Value()
}
