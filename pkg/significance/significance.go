// Package significance scores nodes and edges of a transition matrix by
// case frequency and filters them against rate-derived thresholds.
package significance

import (
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// Scores maps a node to a score
type Scores map[eventlog.Node]float64

// EdgeScores maps an edge, row by row, to a score. For Out scores the row
// key is the source; for In scores it is the target.
type EdgeScores map[eventlog.Node]map[eventlog.Node]float64

// Direction selects outgoing or incoming edge significance
type Direction int

const (
	// Out scores T[a][b] under row a
	Out Direction = iota
	// In scores T[b][a] under row a
	In
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// NodeSignificance divides the case frequency of every node by the number
// of cases. An empty log yields no scores.
func NodeSignificance(caseFreq map[eventlog.Node]int, caseCount int) Scores {
	s := make(Scores, len(caseFreq))
	if caseCount == 0 {
		return s
	}
	for n, f := range caseFreq {
		s[n] = float64(f) / float64(caseCount)
	}
	return s
}

// EdgeSignificance scores the edges between sources and targets by case
// frequency. Self-loops are excluded; see SelfLoopSignificance.
//
// With Out, S[a][b] = T[a][b].Case / caseCount for every a in sources and
// observed target b. With In, S[a][b] = T[b][a].Case / caseCount, so that
// row a ranks the edges entering a.
func EdgeSignificance(m transition.Matrix, sources, targets []eventlog.Node, dir Direction, caseCount int) EdgeScores {
	allowed := eventlog.NewNodeSet(targets...)
	s := make(EdgeScores, len(sources))
	if caseCount == 0 {
		return s
	}
	total := float64(caseCount)

	for _, a := range sources {
		row := make(map[eventlog.Node]float64)
		s[a] = row

		switch dir {
		case Out:
			for b, f := range m.Row(a) {
				if a == b || !allowed.Has(b) {
					continue
				}
				row[b] = float64(f.Case) / total
			}
		case In:
			for b, out := range m {
				if a == b || !allowed.Has(b) {
					continue
				}
				if f, ok := out[a]; ok {
					row[b] = float64(f.Case) / total
				}
			}
		}
	}
	return s
}

// SelfLoopSignificance scores a->a for every retained node that loops
func SelfLoopSignificance(m transition.Matrix, nodes eventlog.NodeSet, caseCount int) Scores {
	s := make(Scores)
	if caseCount == 0 {
		return s
	}
	for a := range nodes {
		if f, ok := m.Get(a, a); ok {
			s[a] = float64(f.Case) / float64(caseCount)
		}
	}
	return s
}

// Normalize rescales scores to [0,1] by min-max. When all scores are
// equal every node gets 1.
func Normalize(s Scores) Scores {
	out := make(Scores, len(s))
	if len(s) == 0 {
		return out
	}
	lo, hi := bounds(s)
	for n, v := range s {
		if hi == lo {
			out[n] = 1
		} else {
			out[n] = (v - lo) / (hi - lo)
		}
	}
	return out
}

// NormalizeRows rescales every row to [0,1] independently. A row whose
// scores are all equal gets 1/len(row) per entry; empty rows are dropped.
func NormalizeRows(s EdgeScores) EdgeScores {
	out := make(EdgeScores, len(s))
	for key, row := range s {
		if len(row) == 0 {
			continue
		}
		lo, hi := bounds(row)
		norm := make(map[eventlog.Node]float64, len(row))
		for n, v := range row {
			if hi == lo {
				norm[n] = 1 / float64(len(row))
			} else {
				norm[n] = (v - lo) / (hi - lo)
			}
		}
		out[key] = norm
	}
	return out
}

func bounds(s map[eventlog.Node]float64) (lo, hi float64) {
	first := true
	for _, v := range s {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// Get returns S[a][b], or false if the edge is not scored
func (s EdgeScores) Get(a, b eventlog.Node) (float64, bool) {
	v, ok := s[a][b]
	return v, ok
}

// Max returns the highest-scoring node among candidates, ties broken by
// node order. It reports false if no candidate is scored.
func (s Scores) Max(candidates []eventlog.Node) (eventlog.Node, bool) {
	var (
		best  eventlog.Node
		score float64
		found bool
	)
	for _, n := range eventlog.SortNodes(append([]eventlog.Node(nil), candidates...)) {
		v, ok := s[n]
		if !ok {
			continue
		}
		if !found || v > score {
			best, score, found = n, v, true
		}
	}
	return best, found
}
