package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_graph_nodes",
			Help: "Number of nodes in the current process map, sentinels excluded",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_graph_edges",
			Help: "Number of edges in the current process map",
		},
	)

	r.GraphImaginaryEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_graph_imaginary_edges",
			Help: "Number of edges kept for connectivity that were never observed",
		},
	)

	r.GraphFitness = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_graph_fitness_loss",
			Help: "Replay loss of the current process map against its log",
		},
	)
}

func (r *Registry) initLogMetrics() {
	r.LogCases = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_log_cases",
			Help: "Number of cases in the loaded event log",
		},
	)

	r.LogEvents = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_log_events",
			Help: "Number of events in the loaded event log",
		},
	)

	r.LogActivities = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_log_activities",
			Help: "Number of distinct activities in the loaded event log",
		},
	)
}
