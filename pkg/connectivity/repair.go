// Package connectivity repairs a filtered process map so that every
// retained node lies on some path from Start to End.
package connectivity

import (
	"errors"
	"fmt"

	"github.com/dd0wney/procmap/pkg/algorithms"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/significance"
	"github.com/dd0wney/procmap/pkg/transition"
)

// ErrRepairDiverged is returned when repair adds more edges than the edge
// universe holds. It indicates a defect, never a property of the input.
var ErrRepairDiverged = errors.New("connectivity: repair did not converge")

// Kind tells how a repair edge was chosen
type Kind int

const (
	// Observed edges exist in the transition matrix
	Observed Kind = iota
	// Synthetic edges attach a component to Start or End directly
	Synthetic
)

func (k Kind) String() string {
	if k == Synthetic {
		return "synthetic"
	}
	return "observed"
}

// Added is one edge inserted by Repair
type Added struct {
	transition.Pair
	Kind Kind
}

// Options carries the scores Repair ranks candidates by
type Options struct {
	// Matrix is the unfiltered, extended transition matrix
	Matrix transition.Matrix
	// NodeScores ranks fallback nodes (normalized node significance)
	NodeScores significance.Scores
	// EdgeScores returns the normalized outgoing edge significance. It is
	// called at most once, and only if an observed candidate must be ranked.
	EdgeScores func() significance.EdgeScores
}

// Repair adds edges to edges until every node can reach End and is
// reachable from Start. End-ancestry is established first, then
// Start-descendancy. Each step adds the observed crossing edge with the
// highest outgoing significance, or, if none exists, a synthetic edge
// between the sentinel and the most significant disconnected node.
//
// edges is modified in place; the inserted edges are returned in order.
func Repair(nodes []eventlog.Node, edges transition.PairSet, opts Options) ([]Added, error) {
	r := &repairer{
		nodes: eventlog.SortNodes(append([]eventlog.Node(nil), nodes...)),
		edges: edges,
		opts:  opts,
		limit: (len(nodes) + 2) * (len(nodes) + 2),
	}
	if err := r.run(ancestors); err != nil {
		return r.added, err
	}
	if err := r.run(descendants); err != nil {
		return r.added, err
	}
	return r.added, nil
}

type check int

const (
	ancestors check = iota
	descendants
)

func (c check) String() string {
	if c == descendants {
		return "start-descendant"
	}
	return "end-ancestor"
}

type repairer struct {
	nodes []eventlog.Node
	edges transition.PairSet
	opts  Options
	limit int
	added []Added
	rank  significance.EdgeScores
}

func (r *repairer) run(c check) error {
	for {
		connected, disconnected := r.partition(c)
		if len(disconnected) == 0 {
			return nil
		}
		if len(r.added) >= r.limit {
			return fmt.Errorf("%w: %s check after %d edges", ErrRepairDiverged, c, len(r.added))
		}

		e, ok := r.bestCrossing(c, connected, disconnected)
		if !ok {
			e = r.fallback(c, disconnected)
		}
		r.edges.Add(e.Pair)
		r.added = append(r.added, e)
	}
}

// partition splits the nodes by whether they satisfy the check. The
// connected side includes the sentinel the check is anchored at.
func (r *repairer) partition(c check) (connected eventlog.NodeSet, disconnected []eventlog.Node) {
	g := algorithms.NewIncidence(r.edges.Sorted())

	var anchor eventlog.Node
	var reach eventlog.NodeSet
	if c == ancestors {
		anchor = eventlog.End
		reach = algorithms.Ancestors(g, anchor)
	} else {
		anchor = eventlog.Start
		reach = algorithms.Descendants(g, anchor)
	}

	connected = eventlog.NewNodeSet(anchor)
	for _, n := range r.nodes {
		if reach.Has(n) {
			connected.Add(n)
		} else {
			disconnected = append(disconnected, n)
		}
	}
	return connected, disconnected
}

// bestCrossing looks for the most significant observed edge entering the
// connected side (ancestor check) or leaving it (descendant check).
func (r *repairer) bestCrossing(c check, connected eventlog.NodeSet, disconnected []eventlog.Node) (Added, bool) {
	var candidates []transition.Pair
	if c == ancestors {
		for _, from := range disconnected {
			for _, to := range r.opts.Matrix.Targets(from) {
				if connected.Has(to) {
					candidates = append(candidates, transition.Pair{From: from, To: to})
				}
			}
		}
	} else {
		comp := eventlog.NewNodeSet(disconnected...)
		for _, from := range connected.Sorted() {
			for _, to := range r.opts.Matrix.Targets(from) {
				if comp.Has(to) {
					candidates = append(candidates, transition.Pair{From: from, To: to})
				}
			}
		}
	}
	if len(candidates) == 0 {
		return Added{}, false
	}

	scores := r.edgeScores()
	transition.SortPairs(candidates)
	best := candidates[0]
	bestScore := scores[best.From][best.To]
	for _, p := range candidates[1:] {
		if s := scores[p.From][p.To]; s > bestScore {
			best, bestScore = p, s
		}
	}
	return Added{Pair: best, Kind: Observed}, true
}

func (r *repairer) fallback(c check, disconnected []eventlog.Node) Added {
	node, ok := r.opts.NodeScores.Max(disconnected)
	if !ok {
		node = disconnected[0]
	}
	if c == ancestors {
		return Added{Pair: transition.Pair{From: node, To: eventlog.End}, Kind: Synthetic}
	}
	return Added{Pair: transition.Pair{From: eventlog.Start, To: node}, Kind: Synthetic}
}

func (r *repairer) edgeScores() significance.EdgeScores {
	if r.rank == nil {
		if r.opts.EdgeScores != nil {
			r.rank = r.opts.EdgeScores()
		}
		if r.rank == nil {
			r.rank = significance.EdgeScores{}
		}
	}
	return r.rank
}
