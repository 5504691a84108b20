package kinetic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "kinetic").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the runtime's Prometheus collectors. A nil *Metrics is valid
// and records nothing, so instrumentation stays optional.
type Metrics struct {
	instances      prometheus.Gauge
	jobs           prometheus.Gauge
	emitsTotal     prometheus.Counter
	listenerPanics prometheus.Counter
	snapshotsTotal prometheus.Counter
}

// NewMetrics registers the runtime collectors and returns them. Pass the
// result to New via WithMetrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "kinetic",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		instances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "instances",
			Help:        "Number of live instances",
			ConstLabels: config.ConstLabels,
		}),

		jobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "jobs",
			Help:        "Number of outstanding scheduled jobs",
			ConstLabels: config.ConstLabels,
		}),

		emitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "emits_total",
			Help:        "Total number of event emissions with at least one listener",
			ConstLabels: config.ConstLabels,
		}),

		listenerPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "listener_panics_total",
			Help:        "Total number of recovered listener and observer panics",
			ConstLabels: config.ConstLabels,
		}),

		snapshotsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "history_snapshots_total",
			Help:        "Total number of history commits",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordInstanceCreated() {
	if m == nil {
		return
	}
	m.instances.Inc()
}

func (m *Metrics) recordInstanceDestroyed() {
	if m == nil {
		return
	}
	m.instances.Dec()
}

func (m *Metrics) recordJobScheduled() {
	if m == nil {
		return
	}
	m.jobs.Inc()
}

func (m *Metrics) recordJobsFinished(n int) {
	if m == nil || n == 0 {
		return
	}
	m.jobs.Sub(float64(n))
}

func (m *Metrics) recordEmit() {
	if m == nil {
		return
	}
	m.emitsTotal.Inc()
}

func (m *Metrics) recordListenerPanic() {
	if m == nil {
		return
	}
	m.listenerPanics.Inc()
}

func (m *Metrics) recordSnapshot() {
	if m == nil {
		return
	}
	m.snapshotsTotal.Inc()
}
