package algorithms

import (
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// Incidence is the ephemeral successor/predecessor structure the
// traversal algorithms run on. It is built from an edge list and never
// persisted.
type Incidence struct {
	out map[eventlog.Node]eventlog.NodeSet
	in  map[eventlog.Node]eventlog.NodeSet
}

// NewIncidence builds the incidence structure of edges, skipping any edge
// that touches one of the excluded nodes
func NewIncidence(edges []transition.Pair, exclude ...eventlog.Node) *Incidence {
	skip := eventlog.NewNodeSet(exclude...)
	g := &Incidence{
		out: make(map[eventlog.Node]eventlog.NodeSet),
		in:  make(map[eventlog.Node]eventlog.NodeSet),
	}
	for _, e := range edges {
		if skip.Has(e.From) || skip.Has(e.To) {
			continue
		}
		g.AddEdge(e.From, e.To)
	}
	return g
}

// AddEdge inserts the directed edge from -> to
func (g *Incidence) AddEdge(from, to eventlog.Node) {
	if g.out[from] == nil {
		g.out[from] = make(eventlog.NodeSet)
	}
	if g.in[to] == nil {
		g.in[to] = make(eventlog.NodeSet)
	}
	g.out[from].Add(to)
	g.in[to].Add(from)
}

// HasEdge reports whether from -> to is present
func (g *Incidence) HasEdge(from, to eventlog.Node) bool {
	return g.out[from].Has(to)
}

// Successors returns the targets of n in node order. A node without
// outgoing edges has no successors.
func (g *Incidence) Successors(n eventlog.Node) []eventlog.Node {
	return g.out[n].Sorted()
}

// Predecessors returns the sources of edges into n in node order
func (g *Incidence) Predecessors(n eventlog.Node) []eventlog.Node {
	return g.in[n].Sorted()
}

// EdgeCount returns the number of distinct edges
func (g *Incidence) EdgeCount() int {
	total := 0
	for _, s := range g.out {
		total += len(s)
	}
	return total
}

// clone copies the structure so destructive searches leave g intact
func (g *Incidence) clone() *Incidence {
	c := &Incidence{
		out: make(map[eventlog.Node]eventlog.NodeSet, len(g.out)),
		in:  make(map[eventlog.Node]eventlog.NodeSet, len(g.in)),
	}
	for from, targets := range g.out {
		for to := range targets {
			c.AddEdge(from, to)
		}
	}
	return c
}

// dropOutgoing removes every edge leaving n
func (g *Incidence) dropOutgoing(n eventlog.Node) {
	for to := range g.out[n] {
		delete(g.in[to], n)
	}
	delete(g.out, n)
}
