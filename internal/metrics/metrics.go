// Package metrics exposes Prometheus instrumentation for toolchain runs and
// reconciliation outcomes.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for reconciliation results.
const (
	OutcomeChanged = "changed"
	OutcomeNoop    = "noop"
	OutcomeError   = "error"
)

// Outcome labels for single invocations.
const (
	InvocationOK     = "ok"
	InvocationFailed = "failed"
)

// Metrics groups every collector the engine updates. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Invocations counts toolchain steps by step name and outcome.
	Invocations *prometheus.CounterVec
	// Duration observes step wall time in seconds.
	Duration *prometheus.HistogramVec
	// Results counts reconciliation outcomes.
	Results *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Collectors already
// registered on reg are shared.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modsync",
			Subsystem: "toolchain",
			Name:      "invocations_total",
			Help:      "Toolchain invocations by step and outcome.",
		}, []string{"step", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "modsync",
			Subsystem: "toolchain",
			Name:      "duration_seconds",
			Help:      "Toolchain invocation wall time.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"step"}),
		Results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modsync",
			Subsystem: "reconcile",
			Name:      "results_total",
			Help:      "Reconciliation outcomes.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		m.Invocations = register(reg, m.Invocations)
		m.Duration = register(reg, m.Duration)
		m.Results = register(reg, m.Results)
	}
	return m
}

// register adds c to reg. When an identical collector is already registered
// (several clients sharing one registry) the existing one is returned.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	panic(err)
}

// ObserveInvocation records one toolchain step.
func (m *Metrics) ObserveInvocation(step string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := InvocationOK
	if !ok {
		outcome = InvocationFailed
	}
	m.Invocations.WithLabelValues(step, outcome).Inc()
	m.Duration.WithLabelValues(step).Observe(elapsed.Seconds())
}

// ObserveResult records a reconciliation outcome.
func (m *Metrics) ObserveResult(outcome string) {
	if m == nil {
		return
	}
	m.Results.WithLabelValues(outcome).Inc()
}

// WriteFile dumps every metric gathered by g to path in the text exposition
// format.
func WriteFile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
