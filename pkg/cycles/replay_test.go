package cycles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

var (
	a     = eventlog.Activity("A")
	b     = eventlog.Activity("B")
	c     = eventlog.Activity("C")
	start = eventlog.Start
	end   = eventlog.End
)

func mustLog(t *testing.T, traces map[string][]string) *eventlog.Log {
	t.Helper()
	l, err := eventlog.New(traces)
	require.NoError(t, err)
	return l
}

// fullModel keeps every observed transition, as update(100, 100) would
func fullModel(l *eventlog.Log) ([]eventlog.Node, transition.PairSet) {
	return l.Activities(), transition.NewPairSet(transition.Build(l).Extend(l).Pairs()...)
}

func TestReplayCountsRepeatedCycleOncePerRun(t *testing.T) {
	l := mustLog(t, map[string][]string{"1": {"A", "B", "C", "A", "B", "C"}})
	nodes, edges := fullModel(l)

	results := Replay(l, nodes, edges, ReplayOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, Result{Cycle: []eventlog.Node{a, b, c}, Abs: 2, Case: 1}, results[0])
}

func TestReplayTwoCycle(t *testing.T) {
	l := mustLog(t, map[string][]string{
		"1": {"A", "B", "A", "B", "C"},
		"2": {"A", "B", "A", "C"},
		"3": {"A", "C"},
	})
	nodes, edges := fullModel(l)

	results := Replay(l, nodes, edges, ReplayOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, []eventlog.Node{a, b}, results[0].Cycle)
	assert.Equal(t, 3, results[0].Abs)
	assert.Equal(t, 2, results[0].Case)

	states := States(results, l.CaseCount(), DefaultSignificance)
	assert.Equal(t, []eventlog.Node{eventlog.MetaState("A", "B")}, states)
	assert.Empty(t, States(results, l.CaseCount(), 0.9))
}

func TestReplayOrderedKeepsRotationsApart(t *testing.T) {
	l := mustLog(t, map[string][]string{
		"1": {"A", "B", "A"},
		"2": {"B", "A", "B"},
	})
	nodes, edges := fullModel(l)

	merged := Replay(l, nodes, edges, ReplayOptions{})
	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].Abs)

	ordered := Replay(l, nodes, edges, ReplayOptions{Ordered: true})
	require.Len(t, ordered, 2)
	assert.Equal(t, []eventlog.Node{a, b}, ordered[0].Cycle)
	assert.Equal(t, []eventlog.Node{b, a}, ordered[1].Cycle)
}

func TestReplayPreTraverseRepresentative(t *testing.T) {
	// (B,C) is seen first, but C is closer to start
	l := mustLog(t, map[string][]string{"1": {"A", "C", "B", "C", "B"}})
	nodes, edges := fullModel(l)

	plain := Replay(l, nodes, edges, ReplayOptions{})
	require.Len(t, plain, 1)
	assert.Equal(t, []eventlog.Node{b, c}, plain[0].Cycle)

	pre := Replay(l, nodes, edges, ReplayOptions{PreTraverse: true})
	require.Len(t, pre, 1)
	assert.Equal(t, []eventlog.Node{c, b}, pre[0].Cycle)
	assert.Equal(t, plain[0].Abs, pre[0].Abs)
}

func TestReplayRequiresModelEdges(t *testing.T) {
	l := mustLog(t, map[string][]string{"1": {"A", "B", "A"}})
	nodes := l.Activities()
	edges := transition.NewPairSet(
		transition.Pair{From: start, To: a},
		transition.Pair{From: a, To: b},
		transition.Pair{From: a, To: end},
	)
	assert.Empty(t, Replay(l, nodes, edges, ReplayOptions{}))
}

func TestReplaySelfLoops(t *testing.T) {
	l := mustLog(t, map[string][]string{"1": {"A", "A", "A", "B"}})
	nodes, edges := fullModel(l)

	results := Replay(l, nodes, edges, ReplayOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, Result{Cycle: []eventlog.Node{a}, Abs: 2, Case: 1}, results[0])

	// Self-loops never become meta-states
	assert.Empty(t, States(results, 1, 0))
}

func scanned(m *Matcher, tr eventlog.Trace) []int {
	var matches []int
	m.Scan(tr, func(idx, pos int, ok bool) {
		if ok {
			matches = append(matches, idx, pos)
		}
	})
	return matches
}

func TestMatcherLongestFirst(t *testing.T) {
	m := NewMatcher([][]eventlog.Node{{a, b}, {a, b, c}}, false)

	// (A,B,C) at 0 returns to A, then (A,B) at 3 returns to A
	assert.Equal(t, []int{1, 0, 0, 3}, scanned(m, eventlog.Trace{a, b, c, a, b, a, c}))

	_, ok := NewMatcher([][]eventlog.Node{{a, b}}, true).Match(eventlog.Trace{b, a}, 0)
	assert.False(t, ok)
}

func TestMatcherScanSkipsRunsThatDoNotReturn(t *testing.T) {
	m := NewMatcher([][]eventlog.Node{{a, b}, {b, c}}, false)

	// (A,B) passes through to C, but the rotation (B,C) returns to B
	assert.Equal(t, []int{1, 1}, scanned(m, eventlog.Trace{a, b, c, b}))
	assert.Empty(t, scanned(m, eventlog.Trace{b, a, c}))

	// A repeated run keeps counting after the last return
	assert.Equal(t, []int{0, 0, 0, 2}, scanned(m, eventlog.Trace{a, b, a, b}))
}

func TestReplayIgnoresPassThrough(t *testing.T) {
	l := mustLog(t, map[string][]string{
		"1": {"A", "B", "A", "C"},
		"2": {"A", "B", "C"},
		"3": {"A", "B", "C"},
	})
	nodes, edges := fullModel(l)

	results := Replay(l, nodes, edges, ReplayOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, Result{Cycle: []eventlog.Node{a, b}, Abs: 1, Case: 1}, results[0])

	// One case in three stays below the default significance
	assert.Empty(t, States(results, l.CaseCount(), DefaultSignificance))
}

func TestRotations(t *testing.T) {
	assert.Equal(t, [][]eventlog.Node{{a, b, c}, {b, c, a}, {c, a, b}}, Rotations([]eventlog.Node{a, b, c}))
}
