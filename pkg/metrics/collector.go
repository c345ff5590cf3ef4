// Package metrics records Prometheus metrics for view dispatch and parameter
// binding. A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Render outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Binding failure modes.
const (
	ModeRecorded = "recorded"
	ModeRaised   = "raised"
)

// Config names the metric namespace and histogram buckets.
type Config struct {
	Namespace       string
	Subsystem       string
	DurationBuckets []float64
}

// Collector owns the render and binding metrics.
//
// Metrics:
//   - <ns>_<sub>_renders_total: renders by engine and status
//   - <ns>_<sub>_render_duration_seconds: render latency by engine
//   - <ns>_<sub>_engine_not_found_total: views no engine supports
//   - <ns>_<sub>_predicate_panics_total: Supports calls that panicked
//   - <ns>_<sub>_binding_failures_total: binding failures by kind and mode
type Collector struct {
	registry *prometheus.Registry

	rendersTotal    *prometheus.CounterVec
	renderDuration  *prometheus.HistogramVec
	notFoundTotal   prometheus.Counter
	predicatePanics *prometheus.CounterVec
	bindingFailures *prometheus.CounterVec
}

// NewCollector creates and registers the collector metrics. When registry is
// nil a fresh prometheus.Registry is created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "mvc"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "views"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Template renders are expected to finish well under a second.
		cfg.DurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
	}

	c := &Collector{
		registry: registry,
		rendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "renders_total",
				Help:      "Total number of view renders by engine and status",
			},
			[]string{"engine", "status"},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "render_duration_seconds",
				Help:      "Duration of view renders in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"engine"},
		),
		notFoundTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "engine_not_found_total",
				Help:      "Total number of views no registered engine supports",
			},
		),
		predicatePanics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "predicate_panics_total",
				Help:      "Total number of engine Supports calls that panicked",
			},
			[]string{"engine"},
		),
		bindingFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "binding_failures_total",
				Help:      "Total number of parameter binding failures by kind and mode",
			},
			[]string{"kind", "mode"},
		),
	}

	registry.MustRegister(
		c.rendersTotal,
		c.renderDuration,
		c.notFoundTotal,
		c.predicatePanics,
		c.bindingFailures,
	)
	return c
}

// Registry returns the registry the metrics were registered with.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordRender records one render attempt for engine.
func (c *Collector) RecordRender(engine, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.rendersTotal.WithLabelValues(engine, status).Inc()
	c.renderDuration.WithLabelValues(engine).Observe(duration.Seconds())
}

// RecordEngineNotFound counts a failed selection.
func (c *Collector) RecordEngineNotFound() {
	if c == nil {
		return
	}
	c.notFoundTotal.Inc()
}

// RecordPredicatePanic counts a Supports call that panicked.
func (c *Collector) RecordPredicatePanic(engine string) {
	if c == nil {
		return
	}
	c.predicatePanics.WithLabelValues(engine).Inc()
}

// RecordBindingFailure counts a conversion or constraint failure. mode is
// ModeRecorded when the failure went to a binding result, ModeRaised when it
// propagated as an error.
func (c *Collector) RecordBindingFailure(kind, mode string) {
	if c == nil {
		return
	}
	c.bindingFailures.WithLabelValues(kind, mode).Inc()
}
