// Package processmap ties an event log, discovery settings and the
// discovered graph together. It is the entry point of the command line
// tools.
//
// A typical session loads a log, adjusts the settings and updates:
//
//	pm := processmap.New()
//	if err := pm.LoadLog("events.csv"); err != nil { ... }
//	_ = pm.SetParams(processmap.WithOptimize(false))
//	_ = pm.SetRates(80, 20)
//	if err := pm.Update(); err != nil { ... }
//	_ = pm.Render(os.Stdout)
package processmap

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/graph"
	"github.com/dd0wney/procmap/pkg/logging"
	"github.com/dd0wney/procmap/pkg/metrics"
	"github.com/dd0wney/procmap/pkg/render"
	"github.com/dd0wney/procmap/pkg/transition"
)

var (
	// ErrNoLog is returned by Update when no event log has been set
	ErrNoLog = errors.New("processmap: no event log")
	// ErrNoMap is returned when rendering before the first Update
	ErrNoMap = errors.New("processmap: map has not been discovered")
)

// Config carries the ambient dependencies of a process map
type Config struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// ProcessMap discovers and renders the process map of one event log
type ProcessMap struct {
	mu       sync.RWMutex
	cfg      Config
	logger   logging.Logger
	settings Settings
	log      *eventlog.Log
	matrix   transition.Matrix
	graph    *graph.Graph
	mapLog   *eventlog.Log // the log graph was discovered from
}

// New creates a process map with default settings. It logs through
// logging.DefaultLogger and records into metrics.DefaultRegistry.
func New() *ProcessMap {
	return NewWithConfig(Config{Logger: logging.DefaultLogger(), Metrics: metrics.DefaultRegistry()})
}

// NewWithConfig creates a process map with default settings. A nil
// logger discards output and a nil registry records nothing.
func NewWithConfig(cfg Config) *ProcessMap {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &ProcessMap{
		cfg:      cfg,
		logger:   cfg.Logger.With(logging.Component("processmap")),
		settings: DefaultSettings(),
	}
}

// SetLog replaces the event log. The previous map is kept until the next
// Update.
func (pm *ProcessMap) SetLog(log *eventlog.Log) error {
	if log == nil {
		return ErrNoLog
	}
	matrix := transition.Build(log).Extend(log)

	pm.mu.Lock()
	pm.log = log
	pm.matrix = matrix
	pm.mu.Unlock()

	acts := len(log.Activities())
	pm.cfg.Metrics.UpdateLogMetrics(log.CaseCount(), log.EventCount(), acts)
	pm.logger.Info("log set",
		logging.Cases(log.CaseCount()),
		logging.Int("events", log.EventCount()),
		logging.Int("activities", acts))
	return nil
}

// LoadLog reads a CSV event log using the log columns of the current
// settings
func (pm *ProcessMap) LoadLog(path string) error {
	opts := pm.Settings().Log.CSVOptions()
	log, err := eventlog.LoadCSV(path, opts)
	if err != nil {
		pm.logger.Error("load log failed", logging.Path(path), logging.Error(err))
		return fmt.Errorf("load %s: %w", path, err)
	}
	pm.logger.Debug("log loaded", logging.Path(path))
	return pm.SetLog(log)
}

// SetRates sets the activity and path rates, both in [0, 100]
func (pm *ProcessMap) SetRates(activityRate, pathRate float64) error {
	next := pm.Settings()
	next.ActivityRate, next.PathRate = activityRate, pathRate
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %w", graph.ErrRateOutOfRange, err)
	}
	pm.mu.Lock()
	pm.settings = next
	pm.mu.Unlock()
	return nil
}

// SetParams applies params to a copy of the settings and keeps the result
// only if it validates
func (pm *ProcessMap) SetParams(params ...Param) error {
	next := pm.Settings()
	for _, p := range params {
		p(&next)
	}
	return pm.SetSettings(next)
}

// SetSettings replaces every setting at once
func (pm *ProcessMap) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.Step.Points = append([]float64(nil), s.Step.Points...)
	pm.mu.Lock()
	pm.settings = s
	pm.mu.Unlock()
	return nil
}

// Update rediscovers the map. With optimization on, the rates are replaced
// by the optimum; with aggregation on, the significant cycles of the map
// are then promoted to meta-states at those rates. On error the previous
// map and rates are kept.
func (pm *ProcessMap) Update() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.log == nil {
		return ErrNoLog
	}
	s := pm.settings

	g := graph.NewWithConfig(graph.Config{Logger: pm.cfg.Logger, Metrics: pm.cfg.Metrics})
	rates := s.Rates()
	if s.Optimize {
		best, err := g.Optimize(pm.log, s.OptimizeOptions())
		if err != nil {
			return fmt.Errorf("optimize: %w", err)
		}
		rates = best
	} else if err := g.Update(pm.log, rates.Activities, rates.Paths); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if s.Aggregate {
		if err := g.Aggregate(pm.log, rates.Activities, rates.Paths, s.AggregateOptions()); err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
	}

	pm.graph, pm.mapLog = g, pm.log
	pm.settings.ActivityRate, pm.settings.PathRate = rates.Activities, rates.Paths
	pm.logger.Info("map updated",
		logging.ActivityRate(rates.Activities), logging.PathRate(rates.Paths),
		logging.Nodes(len(g.NodeList())), logging.Edges(len(g.EdgeList())),
		logging.Bool("optimized", s.Optimize), logging.Bool("aggregated", s.Aggregate))
	return nil
}

// Log returns the current event log, nil before SetLog
func (pm *ProcessMap) Log() *eventlog.Log {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.log
}

// Rates returns the current rates. After an optimizing Update these are
// the optimum.
func (pm *ProcessMap) Rates() graph.Rates {
	return pm.Settings().Rates()
}

// Settings returns a copy of the current settings
func (pm *ProcessMap) Settings() Settings {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	s := pm.settings
	s.Step.Points = append([]float64(nil), s.Step.Points...)
	return s
}

// Matrix returns a copy of the extended transition matrix of the log
func (pm *ProcessMap) Matrix() transition.Matrix {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if pm.matrix == nil {
		return nil
	}
	return pm.matrix.Clone()
}

// Graph returns the discovered graph, nil before the first Update
func (pm *ProcessMap) Graph() *graph.Graph {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.graph
}

func (pm *ProcessMap) discovered() (*graph.Graph, *eventlog.Log, Settings, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if pm.graph == nil {
		return nil, nil, Settings{}, ErrNoMap
	}
	return pm.graph, pm.mapLog, pm.settings, nil
}

// Render writes the DOT description of the map
func (pm *ProcessMap) Render(w io.Writer) error {
	g, log, s, err := pm.discovered()
	if err != nil {
		return err
	}
	return render.DOT(w, g, log.CaseCount(), render.Options{Colored: s.Colored})
}

// RenderJSON returns the laid out map as JSON
func (pm *ProcessMap) RenderJSON(cfg render.LayoutConfig) ([]byte, error) {
	g, log, s, err := pm.discovered()
	if err != nil {
		return nil, err
	}
	return render.ExportJSON(g, log.CaseCount(), cfg, render.Options{Colored: s.Colored})
}
