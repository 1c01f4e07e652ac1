// Package metrics exports Prometheus metrics for a Beacon signal graph.
//
// The Collector implements beacon.Observer; inject it at construction time:
//
//	col := metrics.New(metrics.WithNamespace("myapp"))
//	sig := beacon.New(Cart{}, beacon.WithObserver(col))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/beacon-dev/beacon/pkg/beacon"
)

// Config configures the Prometheus collector.
type Config struct {
	// Namespace is the metrics namespace (default: "beacon").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for guarded-operation duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "beacon",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector is a beacon.Observer that records signal activity as
// Prometheus metrics.
//
// Metrics collected:
//   - beacon_signals_live: Gauge of live (not yet disposed) signals
//   - beacon_signals_created_total: Counter of signal constructions
//   - beacon_status_transitions_total: Counter of transitions by status
//   - beacon_notifications_total: Counter of emissions by change kind
//   - beacon_operation_duration_seconds: Histogram of guarded-operation
//     duration by terminal status
type Collector struct {
	signalsLive   prometheus.Gauge
	signalsTotal  prometheus.Counter
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	opDuration    *prometheus.HistogramVec
}

var _ beacon.Observer = (*Collector)(nil)

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	if len(config.Buckets) == 0 {
		config.Buckets = prometheus.DefBuckets
	}

	factory := promauto.With(config.Registry)

	return &Collector{
		signalsLive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signals_live",
			Help:        "Number of live (not yet disposed) signals",
			ConstLabels: config.ConstLabels,
		}),

		signalsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "signals_created_total",
			Help:        "Total number of signals created",
			ConstLabels: config.ConstLabels,
		}),

		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "status_transitions_total",
			Help:        "Total status transitions by resulting status",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total emissions delivered to subscribers by change kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		opDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "operation_duration_seconds",
			Help:        "Guarded operation duration in seconds by terminal status",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"status"}),
	}
}

// SignalCreated implements beacon.Observer.
func (c *Collector) SignalCreated(beacon.Emitter) {
	c.signalsLive.Inc()
	c.signalsTotal.Inc()
}

// StatusChanged implements beacon.Observer.
func (c *Collector) StatusChanged(_ beacon.Emitter, status beacon.Status) {
	c.transitions.WithLabelValues(status.String()).Inc()
}

// SignalNotified implements beacon.Observer.
func (c *Collector) SignalNotified(_ beacon.Emitter, ch beacon.Change) {
	c.notifications.WithLabelValues(ch.Kind.String()).Inc()
}

// OperationFinished implements beacon.Observer.
func (c *Collector) OperationFinished(_ beacon.Emitter, terminal beacon.Status, d time.Duration) {
	c.opDuration.WithLabelValues(terminal.String()).Observe(d.Seconds())
}

// SignalDisposed implements beacon.Observer.
func (c *Collector) SignalDisposed(beacon.Emitter) {
	c.signalsLive.Dec()
}
