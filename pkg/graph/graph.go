// Package graph discovers process maps from event logs. It composes node
// and edge filtering, connectivity repair, cycle replay, meta-state
// aggregation, replay fitness and the rate optimizer.
package graph

import (
	"fmt"
	"time"

	"github.com/dd0wney/procmap/pkg/algorithms"
	"github.com/dd0wney/procmap/pkg/connectivity"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/fitness"
	"github.com/dd0wney/procmap/pkg/logging"
	"github.com/dd0wney/procmap/pkg/transition"
	"github.com/dd0wney/procmap/pkg/validation"
)

// New creates an empty graph with the default config
func New() *Graph {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an empty graph. A nil logger discards output and
// zero conflict thresholds select the defaults.
func NewWithConfig(cfg Config) *Graph {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Conflicts.Preserve == 0 && cfg.Conflicts.Ratio == 0 {
		cfg.Conflicts = DefaultConfig().Conflicts
	}
	return &Graph{
		cfg:    cfg,
		logger: cfg.Logger.With(logging.Component("graph")),
		nodes:  make(map[eventlog.Node]NodeStats),
		edges:  make(map[transition.Pair]transition.Freq),
	}
}

func checkRates(activityRate, pathRate float64) error {
	if err := validation.Rates(activityRate, pathRate); err != nil {
		return fmt.Errorf("%w: %w", ErrRateOutOfRange, err)
	}
	return nil
}

// Update rediscovers the map of log at the given rates. Nodes whose
// normalized significance reaches 1 - activityRate/100 are kept; edges are
// filtered against 1 - pathRate/100, then repaired so that every node lies
// on a path from Start to End.
func (g *Graph) Update(log *eventlog.Log, activityRate, pathRate float64) (err error) {
	start := time.Now()
	defer func() { g.cfg.Metrics.RecordDiscovery("update", err, time.Since(start)) }()

	if err := checkRates(activityRate, pathRate); err != nil {
		return err
	}

	timer := logging.StartTimer(g.logger, "update",
		logging.ActivityRate(activityRate), logging.PathRate(pathRate))
	res, err := discover(logInput(log), activityRate, pathRate, g.cfg.Conflicts)
	if err != nil {
		timer.EndError(err)
		return err
	}
	g.commit(res)
	timer.EndDebug(logging.Nodes(len(res.nodes)), logging.Edges(len(res.edges)))
	return nil
}

// commit replaces the graph state with res
func (g *Graph) commit(res result) {
	g.mu.Lock()
	g.nodes = res.nodes
	g.edges = res.edges
	g.added = res.added
	g.mu.Unlock()

	imaginary := 0
	for _, f := range res.edges {
		if f.Imaginary() {
			imaginary++
		}
	}
	for _, a := range res.added {
		g.cfg.Metrics.RecordRepairEdge(a.Kind.String())
		g.logger.Debug("connectivity repaired",
			logging.Stringer("from", a.From), logging.Stringer("to", a.To),
			logging.Stringer("kind", a.Kind))
	}
	g.cfg.Metrics.UpdateGraphMetrics(len(res.nodes), len(res.edges), imaginary)
}

func (g *Graph) snapshot() result {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return result{nodes: g.nodes, edges: g.edges, added: g.added}
}

// Nodes returns a copy of the retained nodes, sentinels excluded
func (g *Graph) Nodes() map[eventlog.Node]NodeStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[eventlog.Node]NodeStats, len(g.nodes))
	for n, s := range g.nodes {
		if s.Members != nil {
			members := make(map[eventlog.Node]int, len(s.Members))
			for m, f := range s.Members {
				members[m] = f
			}
			s.Members = members
		}
		out[n] = s
	}
	return out
}

// Edges returns a copy of the retained edges. Imaginary edges carry (0, 0).
func (g *Graph) Edges() map[transition.Pair]transition.Freq {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[transition.Pair]transition.Freq, len(g.edges))
	for p, f := range g.edges {
		out[p] = f
	}
	return out
}

// NodeList returns the retained nodes in node order
func (g *Graph) NodeList() []eventlog.Node {
	return g.snapshot().nodeList()
}

// EdgeList returns the retained edges in pair order
func (g *Graph) EdgeList() []transition.Pair {
	return g.snapshot().edgeList()
}

// Repairs returns the edges the last discovery added for connectivity
func (g *Graph) Repairs() []connectivity.Added {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]connectivity.Added(nil), g.added...)
}

func (g *Graph) incidence() *algorithms.Incidence {
	return algorithms.NewIncidence(g.EdgeList())
}

// NodesOrder returns the nodes reachable from Start in pre-order,
// Start first. Successors are visited in node order.
func (g *Graph) NodesOrder() []eventlog.Node {
	return algorithms.Preorder(g.incidence(), eventlog.Start)
}

// CycleSearch enumerates the simple cycles of the map reachable from Start
func (g *Graph) CycleSearch() []algorithms.Cycle {
	return algorithms.SimpleCycles(g.incidence(), eventlog.Start)
}

// Fitness returns the replay loss of the map against log. Lower is better.
func (g *Graph) Fitness(log *eventlog.Log) float64 {
	scorer := fitness.NewScorer(log, transition.Build(log).Extend(log))
	loss := scorer.Fitness(log, g.EdgeList())
	g.cfg.Metrics.SetFitness(loss)
	return loss
}
