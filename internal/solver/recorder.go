package solver

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/dthelegend/diss/pkg/qubo"
)

// Recorder writes an energy trace as CSV rows of
// elapsed_ns,chain,iteration,energy. A nil *Recorder discards records.
type Recorder struct {
	mu     sync.Mutex
	w      *csv.Writer
	start  time.Time
	err    error
	series map[int][]float64
}

// NewRecorder writes the trace to w. A nil w keeps no CSV; combine with
// Retain to only collect the series in memory.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{start: time.Now()}
	if w != nil {
		r.w = csv.NewWriter(w)
		r.err = r.w.Write([]string{"elapsed_ns", "chain", "iteration", "energy"})
	}
	return r
}

// Retain keeps every recorded energy in memory for Series.
func (r *Recorder) Retain() *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.series == nil {
		r.series = make(map[int][]float64)
	}
	return r
}

func (r *Recorder) Record(chain int, iteration int64, energy qubo.Value) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.series != nil {
		r.series[chain] = append(r.series[chain], float64(energy))
	}
	if r.w == nil || r.err != nil {
		return
	}
	r.err = r.w.Write([]string{
		strconv.FormatInt(time.Since(r.start).Nanoseconds(), 10),
		strconv.Itoa(chain),
		strconv.FormatInt(iteration, 10),
		strconv.FormatInt(int64(energy), 10),
	})
}

// Series returns the retained energies of chain in record order.
func (r *Recorder) Series(chain int) []float64 {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.series[chain]...)
}

// Flush writes buffered rows and returns the first write error.
func (r *Recorder) Flush() error {
	if r == nil || r.w == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Flush()
	if r.err != nil {
		return r.err
	}
	return r.w.Error()
}
