// Package metrics exposes solve and device failure counters in the
// Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dthelegend/diss/internal/device"
)

// Solve outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeDeviceError = "device_error"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// Metrics owns a dedicated registry. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	solves         *prometheus.CounterVec
	deviceFailures *prometheus.CounterVec
	duration       *prometheus.HistogramVec
}

// New registers the solve collectors plus the Go runtime and process
// collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		solves: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qubo_solves_total",
			Help: "Total number of solves by solver and outcome",
		}, []string{"solver", "outcome"}),
		deviceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qubo_device_failures_total",
			Help: "Total number of solves aborted by a device status",
		}, []string{"status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qubo_solve_duration_seconds",
			Help:    "Duration of solves",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"solver"}),
	}
}

// Outcome classifies the result of a solve.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	}
	if _, ok := device.StatusOf(err); ok {
		return OutcomeDeviceError
	}
	return OutcomeError
}

// ObserveSolve records one finished solve.
func (m *Metrics) ObserveSolve(solver string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := Outcome(err)
	m.solves.WithLabelValues(solver, outcome).Inc()
	m.duration.WithLabelValues(solver).Observe(elapsed.Seconds())
	if outcome == OutcomeDeviceError {
		code, _ := device.StatusOf(err)
		m.deviceFailures.WithLabelValues(strconv.Itoa(int(code.Code()))).Inc()
	}
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
