package algorithms

import (
	"slices"

	"github.com/dd0wney/procmap/pkg/eventlog"
)

// Preorder returns the nodes reachable from root in depth-first pre-order,
// visiting successors in node order. The order equals that of the
// recursive traversal; an explicit stack is used instead of recursion.
func Preorder(g *Incidence, root eventlog.Node) []eventlog.Node {
	visited := make(eventlog.NodeSet)
	order := make([]eventlog.Node, 0)
	stack := []eventlog.Node{root}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited.Has(n) {
			continue
		}
		visited.Add(n)
		order = append(order, n)

		// Push in reverse so the smallest successor is popped first
		succ := g.Successors(n)
		for i := len(succ) - 1; i >= 0; i-- {
			if !visited.Has(succ[i]) {
				stack = append(stack, succ[i])
			}
		}
	}
	return order
}

// Descendants returns every node reachable from root, root included
func Descendants(g *Incidence, root eventlog.Node) eventlog.NodeSet {
	return reach(root, g.Successors)
}

// Ancestors returns every node that can reach target, target included
func Ancestors(g *Incidence, target eventlog.Node) eventlog.NodeSet {
	return reach(target, g.Predecessors)
}

func reach(root eventlog.Node, next func(eventlog.Node) []eventlog.Node) eventlog.NodeSet {
	seen := eventlog.NewNodeSet(root)
	stack := []eventlog.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range next(n) {
			if !seen.Has(m) {
				seen.Add(m)
				stack = append(stack, m)
			}
		}
	}
	return seen
}

// IndexOf returns the position of n in order, or len(order) if absent
func IndexOf(order []eventlog.Node, n eventlog.Node) int {
	if i := slices.Index(order, n); i >= 0 {
		return i
	}
	return len(order)
}

// Levels groups the nodes reachable from root by breadth-first depth.
// Each level lists its nodes in node order.
func Levels(g *Incidence, root eventlog.Node) [][]eventlog.Node {
	visited := eventlog.NewNodeSet(root)
	levels := make([][]eventlog.Node, 0)
	current := []eventlog.Node{root}

	for len(current) > 0 {
		levels = append(levels, current)
		next := make([]eventlog.Node, 0)
		for _, n := range current {
			for _, m := range g.Successors(n) {
				if !visited.Has(m) {
					visited.Add(m)
					next = append(next, m)
				}
			}
		}
		current = eventlog.SortNodes(next)
	}
	return levels
}
