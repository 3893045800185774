package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/procmap/pkg/connectivity"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/metrics"
	"github.com/dd0wney/procmap/pkg/transition"
)

var (
	a     = eventlog.Activity("A")
	b     = eventlog.Activity("B")
	c     = eventlog.Activity("C")
	x     = eventlog.Activity("X")
	start = eventlog.Start
	end   = eventlog.End
)

func pair(from, to eventlog.Node) transition.Pair {
	return transition.Pair{From: from, To: to}
}

func mustLog(t testing.TB, traces map[string][]string) *eventlog.Log {
	t.Helper()
	l, err := eventlog.New(traces)
	require.NoError(t, err)
	return l
}

func abcLog(t testing.TB) *eventlog.Log {
	return mustLog(t, map[string][]string{
		"1": {"A", "B", "C"},
		"2": {"A", "C"},
		"3": {"A", "B", "C"},
	})
}

func TestUpdateKeepsEveryEdgeAtFullPathRate(t *testing.T) {
	g := New()
	require.NoError(t, g.Update(abcLog(t), 100, 100))

	nodes := g.Nodes()
	require.Len(t, nodes, 3)
	assert.Equal(t, 3, nodes[a].Case)
	assert.Equal(t, 2, nodes[b].Case)
	assert.Equal(t, 3, nodes[c].Case)
	assert.Equal(t, 3, nodes[a].Abs)

	assert.Equal(t, map[transition.Pair]transition.Freq{
		pair(start, a): {Abs: 3, Case: 3},
		pair(a, b):     {Abs: 2, Case: 2},
		pair(a, c):     {Abs: 1, Case: 1},
		pair(b, c):     {Abs: 2, Case: 2},
		pair(c, end):   {Abs: 3, Case: 3},
	}, g.Edges())
	assert.Empty(t, g.Repairs())
}

func TestUpdateZeroPathRateKeepsTopEdges(t *testing.T) {
	g := New()
	require.NoError(t, g.Update(abcLog(t), 100, 0))

	assert.Equal(t, []transition.Pair{
		pair(start, a), pair(a, b), pair(b, c), pair(c, end),
	}, g.EdgeList())
}

func TestUpdateFiltersNodes(t *testing.T) {
	g := New()
	require.NoError(t, g.Update(abcLog(t), 0, 0))

	assert.Equal(t, []eventlog.Node{a, c}, g.NodeList())
	assert.Equal(t, []transition.Pair{
		pair(start, a), pair(a, c), pair(c, end),
	}, g.EdgeList())
	assert.Equal(t, transition.Freq{Abs: 1, Case: 1}, g.Edges()[pair(a, c)])
}

func TestUpdateAddsImaginaryEdges(t *testing.T) {
	// X only ever leads to activities that are filtered out, and B is
	// only ever entered from them
	l := mustLog(t, map[string][]string{
		"1": {"A", "X", "Y", "B"},
		"2": {"A", "X", "Z", "B"},
	})
	g := New()
	require.NoError(t, g.Update(l, 0, 0))

	assert.Equal(t, []eventlog.Node{a, b, x}, g.NodeList())
	edges := g.Edges()
	assert.Equal(t, transition.Freq{Abs: 2, Case: 2}, edges[pair(start, a)])
	assert.Equal(t, transition.Freq{Abs: 2, Case: 2}, edges[pair(a, x)])
	assert.Equal(t, transition.Freq{Abs: 2, Case: 2}, edges[pair(b, end)])
	for _, p := range []transition.Pair{pair(a, end), pair(x, end), pair(start, b)} {
		f, ok := edges[p]
		assert.True(t, ok, "%v missing", p)
		assert.True(t, f.Imaginary(), "%v should be imaginary", p)
	}

	assert.Equal(t, []connectivity.Added{
		{Pair: pair(a, end), Kind: connectivity.Synthetic},
		{Pair: pair(x, end), Kind: connectivity.Synthetic},
		{Pair: pair(start, b), Kind: connectivity.Synthetic},
	}, g.Repairs())
}

func TestUpdateRejectsOutOfRangeRates(t *testing.T) {
	g := New()
	l := abcLog(t)
	require.NoError(t, g.Update(l, 100, 100))
	before := g.Edges()

	for _, r := range [][2]float64{{-1, 0}, {0, 101}, {100.5, 50}} {
		err := g.Update(l, r[0], r[1])
		assert.True(t, errors.Is(err, ErrRateOutOfRange), "rates %v: %v", r, err)
	}
	assert.Equal(t, before, g.Edges(), "failed update must not change the graph")
}

func TestNodesReturnsCopy(t *testing.T) {
	g := New()
	require.NoError(t, g.Update(abcLog(t), 100, 100))

	nodes := g.Nodes()
	delete(nodes, a)
	edges := g.Edges()
	delete(edges, pair(start, a))

	assert.Len(t, g.Nodes(), 3)
	assert.Len(t, g.Edges(), 5)
}

func TestNodesOrder(t *testing.T) {
	g := New()
	require.NoError(t, g.Update(abcLog(t), 100, 100))

	assert.Equal(t, []eventlog.Node{start, a, b, c, end}, g.NodesOrder())
	assert.Equal(t, []eventlog.Node{start}, New().NodesOrder())
}

func TestCycleSearch(t *testing.T) {
	l := mustLog(t, map[string][]string{
		"1": {"A", "B", "C", "A", "B", "C"},
	})
	g := New()
	require.NoError(t, g.Update(l, 100, 100))

	found := g.CycleSearch()
	require.Len(t, found, 1)
	assert.ElementsMatch(t, []eventlog.Node{a, b, c}, found[0])
}

func TestFitness(t *testing.T) {
	l := abcLog(t)
	g := New()

	assert.InDelta(t, 9.0, g.Fitness(l), 1e-9)

	require.NoError(t, g.Update(l, 100, 100))
	assert.InDelta(t, 11.0/3, g.Fitness(l), 1e-9)
}

func TestUpdateRecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	cfg := DefaultConfig()
	cfg.Metrics = reg
	g := NewWithConfig(cfg)

	require.NoError(t, g.Update(abcLog(t), 100, 100))
	_ = g.Update(abcLog(t), 101, 0)

	ok, err := reg.DiscoveryRunsTotal.GetMetricWithLabelValues("update", metrics.StatusOK)
	require.NoError(t, err)
	failed, err := reg.DiscoveryRunsTotal.GetMetricWithLabelValues("update", metrics.StatusError)
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, ok))
	assert.Equal(t, 1.0, counterValue(t, failed))
	assert.Equal(t, 3.0, gaugeValue(t, reg.GraphNodes))
	assert.Equal(t, 5.0, gaugeValue(t, reg.GraphEdges))
}

func TestEmptyLog(t *testing.T) {
	l := mustLog(t, map[string][]string{})
	g := New()
	require.NoError(t, g.Update(l, 50, 50))
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Edges())
}
