package graph

import (
	"errors"
	"sync"

	"github.com/dd0wney/procmap/pkg/aggregation"
	"github.com/dd0wney/procmap/pkg/connectivity"
	"github.com/dd0wney/procmap/pkg/cycles"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/logging"
	"github.com/dd0wney/procmap/pkg/metrics"
	"github.com/dd0wney/procmap/pkg/significance"
	"github.com/dd0wney/procmap/pkg/transition"
)

var (
	// ErrRateOutOfRange is returned for an activity or path rate outside [0, 100]
	ErrRateOutOfRange = errors.New("graph: rate out of range")
	// ErrInvalidStep is returned for a non-positive grid step with no explicit grid
	ErrInvalidStep = errors.New("graph: invalid grid step")
	// ErrInvalidOption is returned for an out-of-range lambda or cycle significance
	ErrInvalidOption = errors.New("graph: invalid option")
)

// NodeStats holds the frequencies of a retained node. Members is set only
// for meta-states produced by inner aggregation and gives a per-member
// frequency for display.
type NodeStats struct {
	Abs     int
	Case    int
	Members map[eventlog.Node]int
}

// Config holds the collaborators of a Graph
type Config struct {
	Logger    logging.Logger
	Metrics   *metrics.Registry
	Conflicts significance.ConflictThresholds
}

// DefaultConfig returns a config that logs nowhere and records no metrics
func DefaultConfig() Config {
	return Config{
		Logger:    logging.NewNopLogger(),
		Conflicts: significance.DefaultConflictThresholds(),
	}
}

// Graph is a discovered process map. Its nodes and edges are replaced
// wholesale by Update, Optimize and Aggregate. It is safe for concurrent
// use; a failed call leaves the previous state in place.
type Graph struct {
	mu     sync.RWMutex
	cfg    Config
	logger logging.Logger

	nodes map[eventlog.Node]NodeStats
	edges map[transition.Pair]transition.Freq
	added []connectivity.Added
}

// Rates is an (activity, path) rate pair in percent
type Rates struct {
	Activities float64 `json:"activities" yaml:"activities"`
	Paths      float64 `json:"paths" yaml:"paths"`
}

// OptimizeOptions controls the grid search
type OptimizeOptions struct {
	// Lambda weighs complexity against loss, in [0, 1]
	Lambda float64
	// Step spaces the grid 0, Step, 2*Step, ... and always adds 100.
	// Ignored when Grid is set.
	Step float64
	// Grid lists the rate values to evaluate on both axes
	Grid []float64
	// Workers evaluates grid points concurrently when above 1
	Workers int
}

// DefaultOptimizeOptions returns lambda 0.5, step 10, one worker
func DefaultOptimizeOptions() OptimizeOptions {
	return OptimizeOptions{Lambda: 0.5, Step: 10, Workers: 1}
}

// StateOptions controls cycle replay and meta-state promotion
type StateOptions struct {
	cycles.ReplayOptions
	// Rel is the share of cases a cycle must occur in, in [0, 1]
	Rel float64
}

// DefaultStateOptions returns unordered replay with significance 0.5
func DefaultStateOptions() StateOptions {
	return StateOptions{Rel: cycles.DefaultSignificance}
}

// AggregateOptions controls meta-state aggregation
type AggregateOptions struct {
	StateOptions
	Mode      aggregation.Mode
	Heuristic aggregation.Heuristic
}

// DefaultAggregateOptions returns outer aggregation with the all heuristic
func DefaultAggregateOptions() AggregateOptions {
	return AggregateOptions{
		StateOptions: DefaultStateOptions(),
		Mode:         aggregation.Outer,
		Heuristic:    aggregation.All,
	}
}
