package cycles

import (
	"cmp"
	"slices"

	"github.com/dd0wney/procmap/pkg/eventlog"
)

// Rotations returns every rotation of seq, starting with seq itself
func Rotations(seq []eventlog.Node) [][]eventlog.Node {
	out := make([][]eventlog.Node, len(seq))
	for i := range seq {
		r := make([]eventlog.Node, 0, len(seq))
		r = append(r, seq[i:]...)
		r = append(r, seq[:i]...)
		out[i] = r
	}
	return out
}

// Matcher finds runs of events equal to one of a set of cycles. Longer
// cycles are tried first so a short cycle never shadows a longer one
// sharing its events.
type Matcher struct {
	patterns []pattern
	events   eventlog.NodeSet
	lengths  map[int]int
}

type pattern struct {
	index     int
	rotations [][]eventlog.Node
}

// NewMatcher prepares a matcher for seqs. Unless ordered, any rotation of
// a sequence matches it. Empty sequences are ignored.
func NewMatcher(seqs [][]eventlog.Node, ordered bool) *Matcher {
	m := &Matcher{
		events:  make(eventlog.NodeSet),
		lengths: make(map[int]int, len(seqs)),
	}
	for i, s := range seqs {
		if len(s) == 0 {
			continue
		}
		p := pattern{index: i}
		if ordered {
			p.rotations = [][]eventlog.Node{slices.Clone(s)}
		} else {
			p.rotations = Rotations(s)
		}
		for _, e := range s {
			m.events.Add(e)
		}
		m.lengths[i] = len(s)
		m.patterns = append(m.patterns, p)
	}
	slices.SortStableFunc(m.patterns, func(x, y pattern) int {
		return cmp.Compare(len(y.rotations[0]), len(x.rotations[0]))
	})
	return m
}

// Match reports which sequence, by its index in the constructor input,
// starts at position i of t.
func (m *Matcher) Match(t eventlog.Trace, i int) (int, bool) {
	return m.match(t, i, nil)
}

// match is Match restricted to runs accept allows. accept gets the
// sequence index and run length, longest sequences first.
func (m *Matcher) match(t eventlog.Trace, i int, accept func(index, n int) bool) (int, bool) {
	if i >= len(t) || !m.events.Has(t[i]) {
		return 0, false
	}
	for _, p := range m.patterns {
		n := len(p.rotations[0])
		if i+n > len(t) {
			continue
		}
		if accept != nil && !accept(p.index, n) {
			continue
		}
		run := t[i : i+n]
		for _, r := range p.rotations {
			if slices.Equal(run, r) {
				return p.index, true
			}
		}
	}
	return 0, false
}

// Scan walks t left to right and calls fn for every non-overlapping run
// that closes a cycle, with the sequence index and the start position. A
// run closes a cycle if the event after it is its own first event, or if
// it directly follows a closing run of the same sequence. Events not
// covered by such a run are passed to fn with ok false.
func (m *Matcher) Scan(t eventlog.Trace, fn func(index, pos int, ok bool)) {
	last, lastEnd := -1, -1
	for i := 0; i < len(t); {
		closes := func(idx, n int) bool {
			if idx == last && i == lastEnd {
				return true
			}
			return i+n < len(t) && t[i+n] == t[i]
		}
		if idx, ok := m.match(t, i, closes); ok {
			fn(idx, i, true)
			last, lastEnd = idx, i+m.lengths[idx]
			i = lastEnd
			continue
		}
		fn(0, i, false)
		i++
	}
}
