package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/common/expfmt"
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RecordDiscovery records one public discovery operation with its duration
func (r *Registry) RecordDiscovery(operation string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	r.DiscoveryRunsTotal.WithLabelValues(operation, status).Inc()
	r.DiscoveryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGridPoints counts optimizer evaluations
func (r *Registry) RecordGridPoints(n int) {
	if r == nil {
		return
	}
	r.GridPointsTotal.Add(float64(n))
}

// RecordRepairEdge counts one connectivity-repair edge of the given kind
func (r *Registry) RecordRepairEdge(kind string) {
	if r == nil {
		return
	}
	r.RepairEdgesTotal.WithLabelValues(kind).Inc()
}

// RecordCycles records the outcome of a cycle search
func (r *Registry) RecordCycles(cycles, states int) {
	if r == nil {
		return
	}
	r.CyclesFound.Observe(float64(cycles))
	r.MetaStatesFound.Observe(float64(states))
}

// RecordOptimum records the rates chosen by the optimizer
func (r *Registry) RecordOptimum(activityRate, pathRate float64) {
	if r == nil {
		return
	}
	r.OptimalActivityRate.Set(activityRate)
	r.OptimalPathRate.Set(pathRate)
}

// UpdateGraphMetrics publishes the size of the current process map
func (r *Registry) UpdateGraphMetrics(nodes, edges, imaginary int) {
	if r == nil {
		return
	}
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
	r.GraphImaginaryEdges.Set(float64(imaginary))
}

// SetFitness publishes the replay loss of the current process map
func (r *Registry) SetFitness(loss float64) {
	if r == nil {
		return
	}
	r.GraphFitness.Set(loss)
}

// UpdateLogMetrics publishes the size of the loaded event log
func (r *Registry) UpdateLogMetrics(cases, events, activities int) {
	if r == nil {
		return
	}
	r.LogCases.Set(float64(cases))
	r.LogEvents.Set(float64(events))
	r.LogActivities.Set(float64(activities))
}

// WriteText writes every metric in the Prometheus text exposition format
func (r *Registry) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
