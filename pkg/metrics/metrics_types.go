package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics of the discovery pipeline. A nil *Registry
// is valid and records nothing.
type Registry struct {
	// Discovery Metrics
	DiscoveryRunsTotal  *prometheus.CounterVec
	DiscoveryDuration   *prometheus.HistogramVec
	GridPointsTotal     prometheus.Counter
	RepairEdgesTotal    *prometheus.CounterVec
	MetaStatesFound     prometheus.Histogram
	CyclesFound         prometheus.Histogram
	OptimalActivityRate prometheus.Gauge
	OptimalPathRate     prometheus.Gauge

	// Graph Metrics
	GraphNodes          prometheus.Gauge
	GraphEdges          prometheus.Gauge
	GraphImaginaryEdges prometheus.Gauge
	GraphFitness        prometheus.Gauge

	// Log Metrics
	LogCases      prometheus.Gauge
	LogEvents     prometheus.Gauge
	LogActivities prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initDiscoveryMetrics()
	r.initGraphMetrics()
	r.initLogMetrics()

	return r
}
