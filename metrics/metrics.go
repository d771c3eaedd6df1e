// Package metrics exports element operation metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jacentio/periodic/elements"
)

// Prometheus implements elements.Observer.
type Prometheus struct {
	latency    *prometheus.HistogramVec
	operations *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "periodic_operation_duration_seconds",
			Help:    "Latency of element operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "periodic_operations_total",
			Help: "Total element operations by outcome",
		}, []string{"op", "outcome"}),
	}
	for _, c := range []prometheus.Collector{p.latency, p.operations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// OnOperation implements elements.Observer.
func (p *Prometheus) OnOperation(op string, d time.Duration, err error) {
	outcome := elements.Outcome(err)
	p.latency.WithLabelValues(op, outcome).Observe(d.Seconds())
	p.operations.WithLabelValues(op, outcome).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
