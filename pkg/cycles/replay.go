// Package cycles replays an event log against a process map to find the
// cycles the cases actually walk, and promotes the frequent ones to
// meta-states.
package cycles

import (
	"strings"

	"github.com/dd0wney/procmap/pkg/algorithms"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// DefaultSignificance is the share of cases a cycle must occur in to
// become a meta-state.
const DefaultSignificance = 0.5

// ReplayOptions controls cycle identity
type ReplayOptions struct {
	// Ordered keeps rotations of a cycle apart
	Ordered bool
	// PreTraverse represents a cycle by the rotation whose head is
	// closest to Start in a pre-order traversal of the model
	PreTraverse bool
}

// Result is a replayed cycle with its occurrence counts
type Result struct {
	Cycle []eventlog.Node
	Abs   int
	Case  int
}

// State returns the meta-state node of the cycle. It reports false if
// the cycle passes through anything but plain activities.
func (r Result) State() (eventlog.Node, bool) {
	return eventlog.MetaStateOf(r.Cycle)
}

// Replay finds the cycles of the model that the log walks.
//
// A candidate is the slice between two consecutive occurrences of a model
// node whose events are pairwise distinct and whose transitions, the
// closing one included, are all model edges. Candidates that are
// rotations of each other are merged unless opts.Ordered is set.
// Occurrences are then counted by matching every trace left to right,
// longest cycle first, without overlaps. Only runs that return count: the
// event after the run is its first event again, or the run directly
// follows a counted run of the same cycle. A case passing through a cycle
// once is not counted. A self-loop counts once per repetition. Results
// keep the order in which cycles were first observed and cycles that never
// return are omitted.
func Replay(log *eventlog.Log, nodes []eventlog.Node, edges transition.PairSet, opts ReplayOptions) []Result {
	model := eventlog.NewNodeSet(nodes...)
	modelNodes := model.Sorted()

	var found [][]eventlog.Node
	seen := make(map[string]struct{})
	log.Each(func(_ string, t eventlog.Trace) {
		for _, n := range modelNodes {
			prev := -1
			for f, e := range t {
				if e != n {
					continue
				}
				if prev >= 0 && isCandidate(t, prev, f, edges) {
					seq := t[prev:f]
					if _, ok := seen[key(seq)]; !ok {
						seen[key(seq)] = struct{}{}
						found = append(found, append([]eventlog.Node(nil), seq...))
					}
				}
				prev = f
			}
		}
	})

	reps := found
	if !opts.Ordered {
		reps = mergeRotations(found, opts.PreTraverse, edges)
	}

	var long [][]eventlog.Node
	longIndex := make(map[int]int)
	for i, r := range reps {
		if len(r) > 1 {
			longIndex[len(long)] = i
			long = append(long, r)
		}
	}
	matcher := NewMatcher(long, opts.Ordered)

	counts := make([]Result, len(reps))
	for i, r := range reps {
		counts[i].Cycle = r
	}
	loops := make(map[eventlog.Node]int)
	for i, r := range reps {
		if len(r) == 1 {
			loops[r[0]] = i
		}
	}

	log.Each(func(_ string, t eventlog.Trace) {
		inCase := make(map[int]bool)
		matcher.Scan(t, func(idx, _ int, ok bool) {
			if !ok {
				return
			}
			i := longIndex[idx]
			counts[i].Abs++
			inCase[i] = true
		})
		for p := 0; p+1 < len(t); p++ {
			if t[p] != t[p+1] {
				continue
			}
			if i, ok := loops[t[p]]; ok {
				counts[i].Abs++
				inCase[i] = true
			}
		}
		for i := range inCase {
			counts[i].Case++
		}
	})

	results := make([]Result, 0, len(counts))
	for _, r := range counts {
		if r.Abs > 0 {
			results = append(results, r)
		}
	}
	return results
}

// States returns the meta-states among results: cycles longer than one
// event that occur in at least rel of the caseCount cases.
func States(results []Result, caseCount int, rel float64) []eventlog.Node {
	var states []eventlog.Node
	if caseCount == 0 {
		return states
	}
	for _, r := range results {
		if len(r.Cycle) < 2 {
			continue
		}
		if float64(r.Case)/float64(caseCount) < rel {
			continue
		}
		if s, ok := r.State(); ok {
			states = append(states, s)
		}
	}
	return states
}

// isCandidate checks t[s:f] for distinct events and model transitions
// t[i] -> t[i+1] for every i in [s, f).
func isCandidate(t eventlog.Trace, s, f int, edges transition.PairSet) bool {
	seen := make(eventlog.NodeSet, f-s)
	for i := s; i < f; i++ {
		if seen.Has(t[i]) {
			return false
		}
		seen.Add(t[i])
		if !edges.Has(transition.Pair{From: t[i], To: t[i+1]}) {
			return false
		}
	}
	return true
}

// mergeRotations keeps one representative per rotation class, in order of
// first observation.
func mergeRotations(found [][]eventlog.Node, preTraverse bool, edges transition.PairSet) [][]eventlog.Node {
	var order []eventlog.Node
	if preTraverse {
		order = algorithms.Preorder(algorithms.NewIncidence(edges.Sorted()), eventlog.Start)
	}

	seen := make(map[string]struct{})
	var reps [][]eventlog.Node
	for _, c := range found {
		if _, ok := seen[key(c)]; ok {
			continue
		}
		rots := Rotations(c)
		for _, r := range rots {
			seen[key(r)] = struct{}{}
		}

		rep := c
		if preTraverse {
			best := algorithms.IndexOf(order, c[0])
			for _, r := range rots[1:] {
				if i := algorithms.IndexOf(order, r[0]); i < best {
					rep, best = r, i
				}
			}
		}
		reps = append(reps, rep)
	}
	return reps
}

func key(seq []eventlog.Node) string {
	var b strings.Builder
	for i, n := range seq {
		if i > 0 {
			b.WriteByte(0x1e)
		}
		b.WriteByte(byte('0' + n.Kind()))
		b.WriteString(n.Label())
	}
	return b.String()
}
