// Package metrics provides Prometheus metrics collection for apiview.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for apiview. It implements the
// renderer and parser observer interfaces.
type Collector struct {
	// Render metrics
	DocumentsRendered *prometheus.CounterVec
	ResourcesRendered *prometheus.CounterVec
	IncludedResources *prometheus.CounterVec
	RenderErrors      *prometheus.CounterVec

	// Parse metrics
	DocumentsParsed *prometheus.CounterVec

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		DocumentsRendered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "documents_rendered_total",
				Help:      "Total number of documents rendered",
			},
			[]string{"type"},
		),
		ResourcesRendered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "resources_rendered_total",
				Help:      "Total number of resource objects rendered",
			},
			[]string{"type"},
		),
		IncludedResources: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "included_resources_total",
				Help:      "Total number of side-loaded resources rendered",
			},
			[]string{"type"},
		),
		RenderErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "render_errors_total",
				Help:      "Total number of failed renders",
			},
			[]string{"type"},
		),
		DocumentsParsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "documents_parsed_total",
				Help:      "Total number of inbound documents deserialized",
			},
			[]string{"type"},
		),
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "type", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "apiview",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "type"},
		),
		ConfigReloads: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "config_reloads_total",
				Help:      "Total number of configuration reloads",
			},
		),
		ConfigReloadErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "apiview",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed configuration reloads",
			},
		),
	}
}

// DocumentRendered implements render.Observer.
func (c *Collector) DocumentRendered(resourceType string, resources, included int) {
	c.DocumentsRendered.WithLabelValues(resourceType).Inc()
	c.ResourcesRendered.WithLabelValues(resourceType).Add(float64(resources))
	c.IncludedResources.WithLabelValues(resourceType).Add(float64(included))
}

// RenderFailed implements render.Observer.
func (c *Collector) RenderFailed(resourceType string) {
	c.RenderErrors.WithLabelValues(resourceType).Inc()
}

// DocumentParsed implements params.Observer.
func (c *Collector) DocumentParsed(resourceType string, fields int) {
	c.DocumentsParsed.WithLabelValues(resourceType).Inc()
}
