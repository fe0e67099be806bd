// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing setup shared by the store and the transports.
package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation status labels.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusNotFound = "not_found"
	// StatusAbsorbed marks a search whose backend error was swallowed.
	StatusAbsorbed = "absorbed"
)

// Metrics records store operation outcomes. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// NewMetrics registers the store collectors on reg. Registering twice on the
// same registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manuel",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Manual store operations by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "manuel",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Manual store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "manuel",
			Subsystem: "store",
			Name:      "save_failures_total",
			Help:      "Failed saves by the persistence stage that failed.",
		}, []string{"stage"}),
	}
	var err error
	if m.ops, err = register(reg, m.ops); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.failures, err = register(reg, m.failures); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Observe records one operation.
func (m *Metrics) Observe(operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// SaveFailure counts a save that failed at stage.
func (m *Metrics) SaveFailure(stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
}
