package graph

import (
	"fmt"

	"github.com/dd0wney/procmap/pkg/connectivity"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/significance"
	"github.com/dd0wney/procmap/pkg/transition"
)

// input is everything one discovery pass reads. It is never modified, so
// grid points can share it.
type input struct {
	caseCount int
	// caseFreq gives the number of cases each candidate node occurs in.
	// Its keys are the candidate nodes.
	caseFreq map[eventlog.Node]int
	// matrix is the extended transition matrix
	matrix transition.Matrix
}

func logInput(log *eventlog.Log) input {
	return input{
		caseCount: log.CaseCount(),
		caseFreq:  log.CaseFrequencies(),
		matrix:    transition.Build(log).Extend(log),
	}
}

// result is the outcome of one discovery pass
type result struct {
	nodes map[eventlog.Node]NodeStats
	edges map[transition.Pair]transition.Freq
	added []connectivity.Added
}

func (r result) edgeList() []transition.Pair {
	pairs := make([]transition.Pair, 0, len(r.edges))
	for p := range r.edges {
		pairs = append(pairs, p)
	}
	return transition.SortPairs(pairs)
}

func (r result) nodeList() []eventlog.Node {
	nodes := make([]eventlog.Node, 0, len(r.nodes))
	for n := range r.nodes {
		nodes = append(nodes, n)
	}
	return eventlog.SortNodes(nodes)
}

// complexity is the average out-degree, counting Start and End as nodes
func (r result) complexity() float64 {
	return float64(len(r.edges)) / float64(len(r.nodes)+2)
}

// outEdges computes the outgoing edge significance of a pass on first use.
// With a path rate of 100 it is only needed if repair must rank candidates.
type outEdges struct {
	in   input
	acts []eventlog.Node
	raw  significance.EdgeScores
	norm significance.EdgeScores
}

func (o *outEdges) scores() significance.EdgeScores {
	if o.raw == nil {
		sources := append([]eventlog.Node{eventlog.Start}, o.acts...)
		targets := append(append([]eventlog.Node(nil), o.acts...), eventlog.End)
		o.raw = significance.EdgeSignificance(o.in.matrix, sources, targets, significance.Out, o.in.caseCount)
	}
	return o.raw
}

func (o *outEdges) normalized() significance.EdgeScores {
	if o.norm == nil {
		o.norm = significance.NormalizeRows(o.scores())
	}
	return o.norm
}

// discover filters nodes and edges of in at the given rates and repairs
// connectivity. It has no side effects.
func discover(in input, activityRate, pathRate float64, th significance.ConflictThresholds) (result, error) {
	nodeNorm := significance.Normalize(significance.NodeSignificance(in.caseFreq, in.caseCount))
	acts := significance.FilterNodes(nodeNorm, activityRate)
	out := &outEdges{in: in, acts: acts}

	var keep transition.PairSet
	if pathRate == 100 {
		keep = allEdges(in.matrix, acts)
	} else {
		keep = filterEdges(in, acts, pathRate, th, out)
	}

	added, err := connectivity.Repair(acts, keep, connectivity.Options{
		Matrix:     in.matrix,
		NodeScores: nodeNorm,
		EdgeScores: out.normalized,
	})
	if err != nil {
		return result{}, fmt.Errorf("repairing connectivity at (%g, %g): %w", activityRate, pathRate, err)
	}

	res := result{
		nodes: make(map[eventlog.Node]NodeStats, len(acts)),
		edges: make(map[transition.Pair]transition.Freq, len(keep)),
		added: added,
	}
	for _, a := range acts {
		res.nodes[a] = NodeStats{Abs: in.matrix.OutFrequency(a), Case: in.caseFreq[a]}
	}
	for p := range keep {
		// Pairs missing from the matrix stay imaginary (0, 0)
		f, _ := in.matrix.Get(p.From, p.To)
		res.edges[p] = f
	}
	return res, nil
}

// allEdges keeps every matrix edge whose endpoints are retained nodes or
// sentinels
func allEdges(m transition.Matrix, acts []eventlog.Node) transition.PairSet {
	retained := eventlog.NewNodeSet(acts...)
	retained.Add(eventlog.Start)
	retained.Add(eventlog.End)

	keep := make(transition.PairSet)
	for _, p := range m.Pairs() {
		if retained.Has(p.From) && retained.Has(p.To) {
			keep.Add(p)
		}
	}
	return keep
}

// filterEdges seeds the kept set with the conflict-resolved pairs, then adds
// the significant incoming edges, outgoing edges and self-loops.
func filterEdges(in input, acts []eventlog.Node, pathRate float64, th significance.ConflictThresholds, out *outEdges) transition.PairSet {
	inSources := append(append([]eventlog.Node(nil), acts...), eventlog.End)
	inTargets := append([]eventlog.Node{eventlog.Start}, acts...)
	inSig := significance.EdgeSignificance(in.matrix, inSources, inTargets, significance.In, in.caseCount)
	loops := significance.SelfLoopSignificance(in.matrix, eventlog.NewNodeSet(acts...), in.caseCount)

	keep := significance.ResolveConflicts(significance.RelativeSignificance(out.scores(), inSig), th)

	co := significance.Cutoff(pathRate)
	significance.FilterEdges(significance.NormalizeRows(inSig), keep, co, significance.In)
	significance.FilterEdges(out.normalized(), keep, co, significance.Out)
	significance.FilterSelfLoops(significance.Normalize(loops), keep, co)
	return keep
}
