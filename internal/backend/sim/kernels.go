package sim

import (
	"sync"

	"github.com/dthelegend/diss/pkg/qubo"
)

// kernelArgs are the resolved device buffers of one launch. q is the n*n
// upper-triangular matrix, x holds one assignment of n values per solution.
type kernelArgs struct {
	q, x, out, flags []qubo.Value
	n                int
}

// parallel splits [0, batch) into contiguous chunks, one per worker.
func (r *Runtime) parallel(batch int, fn func(lo, hi int)) {
	workers := min(r.workers, batch)
	if workers <= 1 {
		fn(0, batch)
		return
	}
	chunk := (batch + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < batch; lo += chunk {
		hi := min(lo+chunk, batch)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// store narrows v into the Value range, reporting whether it fit.
func store(v int64) (qubo.Value, bool) {
	if v < int64(qubo.MinValue) || v > int64(qubo.MaxValue) {
		return 0, false
	}
	return qubo.Value(v), true
}

func (k kernelArgs) energy(lo, hi int) {
	n := k.n
	for b := lo; b < hi; b++ {
		x := k.x[b*n : (b+1)*n]
		var sum int64
		for i := range n {
			if x[i] == 0 {
				continue
			}
			row := k.q[i*n : (i+1)*n]
			sum += int64(row[i])
			for j := i + 1; j < n; j++ {
				if x[j] != 0 {
					sum += int64(row[j])
				}
			}
		}
		v, ok := store(sum)
		k.out[b] = v
		k.flags[b] = overflowFlag(ok)
	}
}

func (k kernelArgs) flipDeltas(lo, hi int) {
	n := k.n
	for b := lo; b < hi; b++ {
		x := k.x[b*n : (b+1)*n]
		out := k.out[b*n : (b+1)*n]
		ok := true
		for kk := range n {
			acc := int64(k.q[kk*n+kk])
			for j := range n {
				if j == kk || x[j] == 0 {
					continue
				}
				if j < kk {
					acc += int64(k.q[j*n+kk])
				} else {
					acc += int64(k.q[kk*n+j])
				}
			}
			// Flipping 0->1 adds acc, 1->0 removes it.
			if x[kk] != 0 {
				acc = -acc
			}
			v, fit := store(acc)
			out[kk] = v
			ok = ok && fit
		}
		k.flags[b] = overflowFlag(ok)
	}
}

func overflowFlag(ok bool) qubo.Value {
	if ok {
		return 0
	}
	return 1
}
