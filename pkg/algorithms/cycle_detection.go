package algorithms

import (
	"github.com/dd0wney/procmap/pkg/eventlog"
)

// Cycle represents a detected cycle as the sequence of nodes on the DFS
// stack, without repeating the first node at the end
type Cycle []eventlog.Node

// frame is one level of the explicit DFS stack
type frame struct {
	node  eventlog.Node
	succ  []eventlog.Node
	index int
}

// SimpleCycles enumerates the simple cycles of g that are reachable from
// root. Start vertices are taken in pre-order from root. Once a vertex has
// been fully explored as a start vertex it is marked, and the outgoing
// edges of marked vertices are pruned from later searches, so the same
// cycle is not derived again from a different start vertex.
//
// Each cycle is emitted as the DFS stack at the moment a back edge to the
// start vertex is found. g is not modified.
func SimpleCycles(g *Incidence, root eventlog.Node) []Cycle {
	work := g.clone()
	order := Preorder(work, root)

	marked := make(eventlog.NodeSet, len(order))
	cycles := make([]Cycle, 0)

	for _, start := range order {
		visited := make(eventlog.NodeSet)
		path := make([]eventlog.Node, 0, len(order))
		stack := make([]*frame, 0, len(order))

		push := func(n eventlog.Node) {
			visited.Add(n)
			path = append(path, n)
			stack = append(stack, &frame{node: n, succ: work.Successors(n)})
		}
		push(start)

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.index == len(top.succ) {
				// Backtrack: the node may appear on another path later
				delete(visited, top.node)
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}

			next := top.succ[top.index]
			top.index++

			switch {
			case marked.Has(next):
				work.dropOutgoing(next)
			case !visited.Has(next):
				push(next)
			case next == start:
				cycles = append(cycles, append(Cycle(nil), path...))
			}
		}
		marked.Add(start)
	}

	return cycles
}

// HasCycle reports whether g contains any directed cycle, self-loops
// included. It uses three-color marking with an explicit stack.
func HasCycle(g *Incidence) bool {
	const (
		white = iota // unvisited
		gray         // on the current DFS path
		black        // fully explored
	)

	color := make(map[eventlog.Node]int)
	nodes := make(eventlog.NodeSet)
	for from, targets := range g.out {
		nodes.Add(from)
		for to := range targets {
			nodes.Add(to)
		}
	}

	for _, root := range nodes.Sorted() {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack := []*frame{{node: root, succ: g.Successors(root)}}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.index == len(top.succ) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			next := top.succ[top.index]
			top.index++

			switch color[next] {
			case gray:
				// Back edge found
				return true
			case white:
				color[next] = gray
				stack = append(stack, &frame{node: next, succ: g.Successors(next)})
			}
		}
	}
	return false
}

// CycleStats provides statistics about detected cycles
type CycleStats struct {
	TotalCycles   int
	ShortestCycle int
	LongestCycle  int
	AverageLength float64
	SelfLoops     int // Number of self-referencing nodes
}

// AnalyzeCycles computes statistics about detected cycles
func AnalyzeCycles(cycles []Cycle) CycleStats {
	if len(cycles) == 0 {
		return CycleStats{}
	}

	stats := CycleStats{
		TotalCycles:   len(cycles),
		ShortestCycle: len(cycles[0]),
		LongestCycle:  len(cycles[0]),
	}

	totalLength := 0
	for _, cycle := range cycles {
		length := len(cycle)
		totalLength += length

		if length == 1 {
			stats.SelfLoops++
		}
		stats.ShortestCycle = min(stats.ShortestCycle, length)
		stats.LongestCycle = max(stats.LongestCycle, length)
	}

	stats.AverageLength = float64(totalLength) / float64(len(cycles))
	return stats
}
