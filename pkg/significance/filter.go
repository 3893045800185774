package significance

import (
	"cmp"
	"slices"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// SelfLoopTolerance is subtracted from a normalized self-loop score before
// it is compared to the cut-off.
const SelfLoopTolerance = 0.01

// Cutoff converts a path rate in [0,100] into the edge threshold
func Cutoff(pathRate float64) float64 {
	return 1 - pathRate/100
}

// NodeThreshold converts an activity rate in [0,100] into the node threshold
func NodeThreshold(activityRate float64) float64 {
	return 1 - activityRate/100
}

// FilterNodes returns, in node order, the nodes whose normalized
// significance reaches the threshold for activityRate.
func FilterNodes(norm Scores, activityRate float64) []eventlog.Node {
	th := NodeThreshold(activityRate)
	kept := make([]eventlog.Node, 0, len(norm))
	for n, v := range norm {
		if v >= th {
			kept = append(kept, n)
		}
	}
	return eventlog.SortNodes(kept)
}

// FilterEdges adds to keep, for every row of the normalized scores, the
// single most significant edge and every further edge scoring at least co.
// Rows are scanned in descending score order, ties broken by node order,
// and scanning stops at the first edge below co. In rows map to the edge
// b->a.
func FilterEdges(norm EdgeScores, keep transition.PairSet, co float64, dir Direction) {
	for _, a := range rowKeys(norm) {
		row := norm[a]
		ranked := rowKeys(row)
		slices.SortStableFunc(ranked, func(x, y eventlog.Node) int {
			return cmp.Compare(row[y], row[x])
		})

		for i, b := range ranked {
			if i > 0 && row[b] < co {
				break
			}
			if dir == In {
				keep.Add(transition.Pair{From: b, To: a})
			} else {
				keep.Add(transition.Pair{From: a, To: b})
			}
		}
	}
}

// FilterSelfLoops adds a->a for every node whose normalized self-loop
// score minus SelfLoopTolerance reaches co. A zero cut-off keeps every
// self-loop.
func FilterSelfLoops(norm Scores, keep transition.PairSet, co float64) {
	for n, v := range norm {
		if v-SelfLoopTolerance >= co || co == 0 {
			keep.Add(transition.Pair{From: n, To: n})
		}
	}
}
