// Package metrics exports the engine's pack flow and the registry's channel
// count as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "bulkd").
	Namespace string

	// Buckets are the histogram buckets for dequeued batch sizes.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: a fresh registry per collector, so several engines never collide.
	Registry *prometheus.Registry
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "bulkd",
		Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
	}
}

// Collector implements app.Recorder and registry.Observer.
type Collector struct {
	registry *prometheus.Registry

	packsPublished    prometheus.Counter
	commandsPublished prometheus.Counter
	packsWritten      *prometheus.CounterVec
	sinkErrors        *prometheus.CounterVec
	batchSize         *prometheus.HistogramVec
	liveChannels      prometheus.Gauge
}

// New creates a collector and registers its metrics.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(cfg.Registry)

	return &Collector{
		registry: cfg.Registry,

		packsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packs_published_total",
			Help:      "Total number of finalized packs published to the sinks",
		}),

		commandsPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "commands_published_total",
			Help:      "Total number of commands in published packs",
		}),

		packsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packs_written_total",
			Help:      "Total number of packs written by a sink",
		}, []string{"sink"}),

		sinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sink_errors_total",
			Help:      "Total number of failed sink writes",
		}, []string{"sink"}),

		batchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "dequeued_batch_packs",
			Help:      "Number of packs taken from a queue in one dequeue",
			Buckets:   cfg.Buckets,
		}, []string{"sink"}),

		liveChannels: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "live_channels",
			Help:      "Number of currently connected channels",
		}),
	}
}

// PackPublished records a published pack of the given size.
func (c *Collector) PackPublished(commands int) {
	c.packsPublished.Inc()
	c.commandsPublished.Add(float64(commands))
}

// BatchDequeued records one bulk dequeue by a sink worker.
func (c *Collector) BatchDequeued(sink string, packs int) {
	c.batchSize.WithLabelValues(sink).Observe(float64(packs))
}

// PackWritten records a pack written by a sink.
func (c *Collector) PackWritten(sink string) {
	c.packsWritten.WithLabelValues(sink).Inc()
}

// SinkFailed records a failed sink write.
func (c *Collector) SinkFailed(sink string) {
	c.sinkErrors.WithLabelValues(sink).Inc()
}

// OnChannelsChanged updates the live channel gauge.
func (c *Collector) OnChannelsChanged(live int) {
	c.liveChannels.Set(float64(live))
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the collector's registry.
//
//	http.Handle("/metrics", collector.Handler())
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
