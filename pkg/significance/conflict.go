package significance

import (
	"math"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// ConflictThresholds controls ResolveConflicts
type ConflictThresholds struct {
	// Preserve keeps both directions when both relative scores reach it
	Preserve float64
	// Ratio keeps the dominant direction when the scores differ by at least it
	Ratio float64
}

// DefaultConflictThresholds returns the fuzzy-miner defaults
func DefaultConflictThresholds() ConflictThresholds {
	return ConflictThresholds{Preserve: 0.3, Ratio: 0.2}
}

// RelativeSignificance scores every edge A->B whose reverse B->A was also
// observed:
//
//	rS[A][B] = 0.5*S_out[A][B]/sum(S_out[A]) + 0.5*S_out[A][B]/sum(S_in[B])
func RelativeSignificance(out, in EdgeScores) EdgeScores {
	rs := make(EdgeScores)
	for a, row := range out {
		sigAX := sum(row)
		for b, v := range row {
			if _, ok := in.Get(a, b); !ok {
				continue
			}
			sigXB := sum(in[b])
			if sigAX == 0 || sigXB == 0 {
				continue
			}
			if rs[a] == nil {
				rs[a] = make(map[eventlog.Node]float64)
			}
			rs[a][b] = 0.5*v/sigAX + 0.5*v/sigXB
		}
	}
	return rs
}

// ResolveConflicts decides, for every pair of opposite relations, which
// directions are preserved. Both are kept when both relative scores reach
// the preserve threshold (concurrency); otherwise the dominant one is kept
// when the difference reaches the ratio threshold. An undecidable pair
// preserves neither direction. The returned set only seeds FilterEdges,
// so an edge that is not preserved here may still pass on its own score.
func ResolveConflicts(rs EdgeScores, th ConflictThresholds) transition.PairSet {
	keep := make(transition.PairSet)
	for _, a := range rowKeys(rs) {
		for _, b := range rowKeys(rs[a]) {
			ab := rs[a][b]
			ba, ok := rs.Get(b, a)
			if !ok {
				continue
			}
			switch {
			case ab >= th.Preserve && ba >= th.Preserve:
				keep.Add(transition.Pair{From: a, To: b})
				keep.Add(transition.Pair{From: b, To: a})
			case math.Abs(ab-ba) >= th.Ratio:
				if ab >= ba {
					keep.Add(transition.Pair{From: a, To: b})
				} else {
					keep.Add(transition.Pair{From: b, To: a})
				}
			}
		}
	}
	return keep
}

func sum(row map[eventlog.Node]float64) float64 {
	total := 0.0
	for _, v := range row {
		total += v
	}
	return total
}

func rowKeys[V any](m map[eventlog.Node]V) []eventlog.Node {
	keys := make([]eventlog.Node, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return eventlog.SortNodes(keys)
}
