// Package metrics exposes Prometheus metrics for validations and lookups.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solatis/checkpoint/internal/rules"
)

const namespace = "checkpoint"

// Outcome label values.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeError  = "error"
)

// Collector owns the checkpoint metrics and their registry.
type Collector struct {
	registry    *prometheus.Registry
	validations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lookups     *prometheus.CounterVec
	lookupRows  *prometheus.CounterVec
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validate calls by schema and outcome.",
		}, []string{"schema", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Validate call latency by schema.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"schema"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_queries_total",
			Help:      "Lookup provider queries by table and outcome.",
		}, []string{"table", "outcome"}),
		lookupRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_rows_total",
			Help:      "Rows returned by lookup queries by table.",
		}, []string{"table"}),
	}
	c.registry.MustRegister(c.validations, c.duration, c.lookups, c.lookupRows)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveValidation records one Validate call. err non-nil counts as "error".
func (c *Collector) ObserveValidation(schema string, result *rules.Result, err error, elapsed time.Duration) {
	outcome := OutcomePassed
	switch {
	case result == nil || (err != nil && result.Passes()):
		outcome = OutcomeError
	case result.Fails():
		outcome = OutcomeFailed
	}
	c.validations.WithLabelValues(schema, outcome).Inc()
	c.duration.WithLabelValues(schema).Observe(elapsed.Seconds())
}

// InstrumentProvider wraps p so every RunQuery is counted.
func (c *Collector) InstrumentProvider(p rules.LookupProvider) rules.LookupProvider {
	if p == nil {
		return nil
	}
	return &instrumentedProvider{LookupProvider: p, c: c}
}

type instrumentedProvider struct {
	rules.LookupProvider
	c *Collector
}

func (p *instrumentedProvider) RunQuery(ctx context.Context, q rules.LookupQuery) ([]rules.Row, error) {
	rows, err := p.LookupProvider.RunQuery(ctx, q)
	if err != nil {
		p.c.lookups.WithLabelValues(q.Table, OutcomeError).Inc()
		return nil, err
	}
	p.c.lookups.WithLabelValues(q.Table, "ok").Inc()
	p.c.lookupRows.WithLabelValues(q.Table).Add(float64(len(rows)))
	return rows, nil
}
