package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDiscoveryMetrics() {
	r.DiscoveryRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "procmap_discovery_runs_total",
			Help: "Total number of discovery operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	r.DiscoveryDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procmap_discovery_duration_seconds",
			Help:    "Duration of discovery operations in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"operation"},
	)

	r.GridPointsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "procmap_optimizer_grid_points_total",
			Help: "Total number of (activity, path) rate pairs evaluated by the optimizer",
		},
	)

	r.RepairEdgesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "procmap_repair_edges_total",
			Help: "Total number of edges added by connectivity repair, by kind",
		},
		[]string{"kind"},
	)

	r.MetaStatesFound = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "procmap_meta_states_found",
			Help:    "Number of meta-states promoted per aggregation",
			Buckets: []float64{0, 1, 2, 5, 10, 25},
		},
	)

	r.CyclesFound = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "procmap_cycles_found",
			Help:    "Number of distinct cycles replayed per cycle search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 100},
		},
	)

	r.OptimalActivityRate = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_optimal_activity_rate",
			Help: "Activity rate chosen by the last optimization",
		},
	)

	r.OptimalPathRate = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "procmap_optimal_path_rate",
			Help: "Path rate chosen by the last optimization",
		},
	)
}
