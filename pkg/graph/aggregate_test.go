package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/procmap/pkg/aggregation"
	"github.com/dd0wney/procmap/pkg/cycles"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

var ab = eventlog.MetaState("A", "B")

// twoCycleLog walks the cycle (A, B) in two of three cases
func twoCycleLog(t testing.TB) *eventlog.Log {
	return mustLog(t, map[string][]string{
		"1": {"A", "B", "A", "C"},
		"2": {"A", "B", "A", "C"},
		"3": {"A", "C"},
	})
}

func discovered(t *testing.T, l *eventlog.Log) *Graph {
	t.Helper()
	g := New()
	require.NoError(t, g.Update(l, 100, 100))
	return g
}

func TestFindCycles(t *testing.T) {
	l := mustLog(t, map[string][]string{"1": {"A", "B", "C", "A", "B", "C"}})
	g := discovered(t, l)

	found := g.FindCycles(l, cycles.ReplayOptions{})
	require.Len(t, found, 1)
	assert.Equal(t, 2, found[0].Abs)
	assert.Equal(t, 1, found[0].Case)
}

func TestFindStates(t *testing.T) {
	l := twoCycleLog(t)
	g := discovered(t, l)

	states, err := g.FindStates(l, DefaultStateOptions())
	require.NoError(t, err)
	assert.Equal(t, []eventlog.Node{ab}, states)

	strict := DefaultStateOptions()
	strict.Rel = 0.9
	states, err = g.FindStates(l, strict)
	require.NoError(t, err)
	assert.Empty(t, states)

	strict.Rel = 1.5
	_, err = g.FindStates(l, strict)
	assert.True(t, errors.Is(err, ErrInvalidOption), "%v", err)
}

func TestFindStatesIgnoresPassThrough(t *testing.T) {
	// Only case 1 returns to A, cases 2 and 3 walk A, B once
	l := mustLog(t, map[string][]string{
		"1": {"A", "B", "A", "C"},
		"2": {"A", "B", "C"},
		"3": {"A", "B", "C"},
	})
	g := discovered(t, l)

	found := g.FindCycles(l, cycles.ReplayOptions{})
	require.Len(t, found, 1)
	assert.Equal(t, []eventlog.Node{a, b}, found[0].Cycle)
	assert.Equal(t, 1, found[0].Abs)
	assert.Equal(t, 1, found[0].Case)

	states, err := g.FindStates(l, DefaultStateOptions())
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestAggregateOuter(t *testing.T) {
	l := twoCycleLog(t)
	g := discovered(t, l)

	require.NoError(t, g.Aggregate(l, 100, 100, DefaultAggregateOptions()))

	nodes := g.Nodes()
	assert.Equal(t, []eventlog.Node{a, c, ab}, g.NodeList())
	assert.Equal(t, 2, nodes[ab].Case)
	assert.Nil(t, nodes[ab].Members)

	edges := g.Edges()
	assert.Equal(t, transition.Freq{Abs: 2, Case: 2}, edges[pair(start, ab)])
	assert.Equal(t, transition.Freq{Abs: 2, Case: 2}, edges[pair(ab, a)])
	assert.Equal(t, transition.Freq{Abs: 1, Case: 1}, edges[pair(start, a)])
	_, raw := edges[pair(a, b)]
	assert.False(t, raw, "aggregated map still has the raw cycle edge")
}

func TestAggregateInner(t *testing.T) {
	l := twoCycleLog(t)
	g := discovered(t, l)

	opts := DefaultAggregateOptions()
	opts.Mode = aggregation.Inner
	require.NoError(t, g.Aggregate(l, 100, 100, opts))

	assert.Equal(t, []eventlog.Node{c, ab}, g.NodeList())
	assert.Equal(t, map[transition.Pair]transition.Freq{
		pair(start, ab): {Abs: 3, Case: 3},
		pair(ab, c):     {Abs: 3, Case: 3},
		pair(c, end):    {Abs: 3, Case: 3},
	}, g.Edges())

	nodes := g.Nodes()
	assert.Equal(t, NodeStats{Abs: 3, Case: 3}, nodes[c])
	state := nodes[ab]
	assert.Equal(t, 3, state.Case)
	assert.Equal(t, 5, state.Abs)
	assert.Equal(t, map[eventlog.Node]int{a: 8, b: 5}, state.Members)
}

func TestAggregateCombine(t *testing.T) {
	l := twoCycleLog(t)

	inner := discovered(t, l)
	opts := DefaultAggregateOptions()
	opts.Mode = aggregation.Inner
	require.NoError(t, inner.Aggregate(l, 100, 100, opts))

	combined := discovered(t, l)
	opts.Mode = aggregation.Combine
	require.NoError(t, combined.Aggregate(l, 100, 100, opts))

	// The only state survives outer filtering, so combine equals inner
	assert.Equal(t, inner.Nodes(), combined.Nodes())
	assert.Equal(t, inner.Edges(), combined.Edges())
}

func TestAggregateDoesNotModifyLog(t *testing.T) {
	l := twoCycleLog(t)
	g := discovered(t, l)
	require.NoError(t, g.Aggregate(l, 100, 100, DefaultAggregateOptions()))

	assert.Equal(t, eventlog.Trace{a, b, a, c}, l.Trace("1"))
	assert.Equal(t, []eventlog.Node{a, b, c}, l.Activities())
}

func TestAggregateWithoutStatesRediscovers(t *testing.T) {
	l := abcLog(t)
	g := discovered(t, l)
	require.NoError(t, g.Aggregate(l, 100, 0, DefaultAggregateOptions()))

	ref := New()
	require.NoError(t, ref.Update(l, 100, 0))
	assert.Equal(t, ref.Edges(), g.Edges())
}

func TestAggregateRejectsBadOptions(t *testing.T) {
	l := twoCycleLog(t)
	g := discovered(t, l)
	before := g.Edges()

	opts := DefaultAggregateOptions()
	opts.Mode = aggregation.Mode(9)
	assert.True(t, errors.Is(g.Aggregate(l, 100, 100, opts), aggregation.ErrUnknownMode))

	opts = DefaultAggregateOptions()
	opts.Heuristic = aggregation.Heuristic(9)
	assert.True(t, errors.Is(g.Aggregate(l, 100, 100, opts), aggregation.ErrUnknownHeuristic))

	assert.True(t, errors.Is(g.Aggregate(l, 100, 120, DefaultAggregateOptions()), ErrRateOutOfRange))

	assert.Equal(t, before, g.Edges())
}
