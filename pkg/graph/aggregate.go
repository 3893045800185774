package graph

import (
	"fmt"
	"time"

	"github.com/dd0wney/procmap/pkg/aggregation"
	"github.com/dd0wney/procmap/pkg/cycles"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/logging"
	"github.com/dd0wney/procmap/pkg/transition"
	"github.com/dd0wney/procmap/pkg/validation"
)

// FindCycles replays log against the map and returns the cycles the cases
// walk, with their absolute and case occurrence counts.
func (g *Graph) FindCycles(log *eventlog.Log, opts cycles.ReplayOptions) []cycles.Result {
	snap := g.snapshot()
	edges := make(transition.PairSet, len(snap.edges))
	for p := range snap.edges {
		edges.Add(p)
	}
	return cycles.Replay(log, snap.nodeList(), edges, opts)
}

// FindStates returns the cycles of the map significant enough to become
// meta-states
func (g *Graph) FindStates(log *eventlog.Log, opts StateOptions) ([]eventlog.Node, error) {
	if err := checkRel(opts.Rel); err != nil {
		return nil, err
	}
	found := g.FindCycles(log, opts.ReplayOptions)
	states := cycles.States(found, log.CaseCount(), opts.Rel)
	g.cfg.Metrics.RecordCycles(len(found), len(states))
	g.logger.Debug("states found", logging.Count(len(found)), logging.Int("states", len(states)))
	return states, nil
}

func checkRel(rel float64) error {
	if err := validation.NewConfigValidator("StateOptions").
		RangeFloat("Rel", rel, 0, 1).
		Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	return nil
}

func checkAggregate(opts AggregateOptions) error {
	switch opts.Mode {
	case aggregation.Outer, aggregation.Inner, aggregation.Combine:
	default:
		return fmt.Errorf("%w: %d", aggregation.ErrUnknownMode, int(opts.Mode))
	}
	switch opts.Heuristic {
	case aggregation.All, aggregation.Frequent:
	default:
		return fmt.Errorf("%w: %d", aggregation.ErrUnknownHeuristic, int(opts.Heuristic))
	}
	return checkRel(opts.Rel)
}

// Aggregate promotes the significant cycles of the current map to
// meta-states and rediscovers the map at the given rates. Outer
// aggregation reruns discovery on the log with every state occurrence
// collapsed into one event. Inner aggregation redirects the edges of
// member activities onto their states instead, keeping per-member
// frequencies. Combine runs outer aggregation, then inner aggregation on
// the states that survived it. log is not modified.
func (g *Graph) Aggregate(log *eventlog.Log, activityRate, pathRate float64, opts AggregateOptions) (err error) {
	started := time.Now()
	defer func() { g.cfg.Metrics.RecordDiscovery("aggregate", err, time.Since(started)) }()

	if err := checkRates(activityRate, pathRate); err != nil {
		return err
	}
	if err := checkAggregate(opts); err != nil {
		return err
	}

	states, err := g.FindStates(log, opts.StateOptions)
	if err != nil {
		return err
	}
	timer := logging.StartTimer(g.logger, "aggregate",
		logging.ActivityRate(activityRate), logging.PathRate(pathRate),
		logging.Stringer("mode", opts.Mode), logging.Int("states", len(states)))

	res, err := g.aggregate(log, states, activityRate, pathRate, opts)
	if err != nil {
		timer.EndError(err)
		return err
	}
	g.commit(res)
	timer.EndDebug(logging.Nodes(len(res.nodes)), logging.Edges(len(res.edges)))
	return nil
}

func (g *Graph) aggregate(log *eventlog.Log, states []eventlog.Node, a, p float64, opts AggregateOptions) (result, error) {
	switch opts.Mode {
	case aggregation.Inner:
		return g.inner(log, states, a, p, opts)
	case aggregation.Combine:
		res, err := g.outer(log, states, a, p, opts)
		if err != nil {
			return result{}, err
		}
		var kept []eventlog.Node
		for _, s := range states {
			if _, ok := res.nodes[s]; ok {
				kept = append(kept, s)
			}
		}
		return g.inner(log, kept, a, p, opts)
	default:
		return g.outer(log, states, a, p, opts)
	}
}

func (g *Graph) outer(log *eventlog.Log, states []eventlog.Node, a, p float64, opts AggregateOptions) (result, error) {
	agg, err := aggregation.Reconstruct(log, states, opts.Ordered)
	if err != nil {
		return result{}, fmt.Errorf("outer aggregation: %w", err)
	}
	return discover(logInput(agg), a, p, g.cfg.Conflicts)
}

// inner discovers the map of the rewritten log with member activities
// folded into their states. Node statistics of plain activities come from
// the rewritten log before redirection.
func (g *Graph) inner(log *eventlog.Log, states []eventlog.Node, a, p float64, opts AggregateOptions) (result, error) {
	agg, err := aggregation.Reconstruct(log, states, opts.Ordered)
	if err != nil {
		return result{}, fmt.Errorf("inner aggregation: %w", err)
	}
	aggIn := logInput(agg)

	full, err := discover(aggIn, 100, 0, g.cfg.Conflicts)
	if err != nil {
		return result{}, fmt.Errorf("inner aggregation: %w", err)
	}
	rawAbs := make(map[eventlog.Node]int, len(full.nodes))
	for n, s := range full.nodes {
		rawAbs[n] = s.Abs
	}

	ms := aggregation.NewMemberStates(states, rawAbs)
	redirected := input{
		caseCount: aggIn.caseCount,
		caseFreq:  aggregation.CaseFrequencies(agg, ms, opts.Heuristic),
		matrix:    aggregation.Redirect(agg, aggIn.matrix, ms, opts.Heuristic),
	}
	res, err := discover(redirected, a, p, g.cfg.Conflicts)
	if err != nil {
		return result{}, fmt.Errorf("inner aggregation: %w", err)
	}

	for n, s := range res.nodes {
		if !n.IsMetaState() {
			if prev, ok := full.nodes[n]; ok {
				res.nodes[n] = prev
			}
			continue
		}
		s.Members = aggregation.MemberFrequencies(n, s.Abs, rawAbs, ms, opts.Heuristic)
		res.nodes[n] = s
	}
	return res, nil
}
