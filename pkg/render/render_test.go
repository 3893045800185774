package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/graph"
	"github.com/dd0wney/procmap/pkg/transition"
)

var (
	a     = eventlog.Activity("A")
	b     = eventlog.Activity("B")
	c     = eventlog.Activity("C")
	start = eventlog.Start
	end   = eventlog.End
)

type fakeMap struct {
	nodes map[eventlog.Node]graph.NodeStats
	edges map[transition.Pair]transition.Freq
}

func (f fakeMap) Nodes() map[eventlog.Node]graph.NodeStats  { return f.nodes }
func (f fakeMap) Edges() map[transition.Pair]transition.Freq { return f.edges }

func pair(from, to eventlog.Node) transition.Pair {
	return transition.Pair{From: from, To: to}
}

// abc is the map of {ABC, AC, ABC} at full rates
func abc() fakeMap {
	return fakeMap{
		nodes: map[eventlog.Node]graph.NodeStats{
			a: {Abs: 3, Case: 3},
			b: {Abs: 2, Case: 2},
			c: {Abs: 3, Case: 3},
		},
		edges: map[transition.Pair]transition.Freq{
			pair(start, a): {Abs: 3, Case: 3},
			pair(a, b):     {Abs: 2, Case: 2},
			pair(a, c):     {Abs: 1, Case: 1},
			pair(b, c):     {Abs: 2, Case: 2},
			pair(c, end):   {Abs: 3, Case: 3},
		},
	}
}

func TestColorScale(t *testing.T) {
	assert.Equal(t, 0, Shade(10, 2, 10))
	assert.Equal(t, 99, Shade(2, 2, 10))
	assert.Equal(t, "#1d2559", FillColor(0, true))
	assert.Equal(t, "#e0ddf4", FillColor(89, true))
	assert.Equal(t, "#ffffff", FillColor(100, true))
	assert.Equal(t, "gray37", FillColor(37, false))
	assert.Equal(t, "white", FontColor(49))
	assert.Equal(t, "black", FontColor(50))
}

func TestPenWidth(t *testing.T) {
	assert.InDelta(t, 1.0, PenWidth(1, 1, 3), 1e-9)
	assert.InDelta(t, 5.0, PenWidth(3, 1, 3), 1e-5)
	assert.InDelta(t, 3.0, PenWidth(2, 1, 3), 1e-5)
	assert.InDelta(t, 1.0, PenWidth(4, 4, 4), 1e-9)
}

func TestFrequencyAndLabel(t *testing.T) {
	ab := eventlog.MetaState("A", "B")
	inner := graph.NodeStats{Abs: 5, Case: 3, Members: map[eventlog.Node]int{a: 8, b: 5}}

	assert.Equal(t, 3.0, Frequency(graph.NodeStats{Abs: 3}))
	assert.Equal(t, 6.5, Frequency(inner))

	assert.Equal(t, "A (3)", Label(a, graph.NodeStats{Abs: 3}))
	assert.Equal(t, "A (8)\nB (5)\n(5)", Label(ab, inner))
	assert.Equal(t, "A\nB\n(2)", Label(ab, graph.NodeStats{Abs: 2}))
}

func TestDOT(t *testing.T) {
	out := String(abc(), 3, DefaultOptions())

	assert.True(t, strings.HasPrefix(out, "digraph \"procmap\" {\n"))
	assert.True(t, strings.HasSuffix(out, "}\n"))
	assert.Contains(t, out, `n1 [label="A (3)", fillcolor="#1d2559", fontcolor=white];`)
	assert.Contains(t, out, `n2 [label="B (2)", fillcolor="#ffffff", fontcolor=black];`)
	assert.Contains(t, out, `start [shape=circle, label="3", fillcolor="#95d600", margin=0.05];`)
	assert.Contains(t, out, `end [shape=doublecircle, label="", fillcolor="#ea4126"];`)
	assert.Contains(t, out, `start -> n1 [label="3", style=dashed];`)
	assert.Contains(t, out, `n3 -> end [label="3", style=dashed];`)
	assert.Contains(t, out, `n1 -> n3 [label="1", penwidth=1.00];`)
	assert.Contains(t, out, `n1 -> n2 [label="2", penwidth=3.00];`)

	// Edges come out in pair order
	assert.Less(t, strings.Index(out, "start -> n1"), strings.Index(out, "n1 -> n2"))
	assert.Less(t, strings.Index(out, "n1 -> n2"), strings.Index(out, "n1 -> n3"))
}

func TestDOTGrayAndImaginary(t *testing.T) {
	m := abc()
	m.edges[pair(b, a)] = transition.Freq{}
	out := String(m, 3, Options{Colored: false})

	assert.Contains(t, out, `n1 [label="A (3)", fillcolor="gray0", fontcolor=white];`)
	assert.Contains(t, out, `fillcolor="#ffffff", margin=0.05`)
	assert.Contains(t, out, `n2 -> n1 [style=dotted];`)
}

func TestDOTMetaStateAndQuoting(t *testing.T) {
	ab := eventlog.MetaState("A", "B")
	quoted := eventlog.Activity(`say "hi"`)
	m := fakeMap{
		nodes: map[eventlog.Node]graph.NodeStats{
			quoted: {Abs: 1, Case: 1},
			ab:     {Abs: 5, Case: 3, Members: map[eventlog.Node]int{a: 8, b: 5}},
		},
		edges: map[transition.Pair]transition.Freq{
			pair(start, ab):   {Abs: 3, Case: 3},
			pair(ab, quoted):  {Abs: 1, Case: 1},
			pair(quoted, end): {Abs: 1, Case: 1},
		},
	}
	out := String(m, 3, DefaultOptions())

	assert.Contains(t, out, `n1 [label="say \"hi\" (1)"`)
	assert.Contains(t, out, `n2 [label="A (8)\nB (5)\n(5)", fillcolor="#1d2559", fontcolor=white, shape=octagon];`)
}

func TestDOTStartActivityDoesNotCollide(t *testing.T) {
	named := eventlog.Activity("start")
	m := fakeMap{
		nodes: map[eventlog.Node]graph.NodeStats{named: {Abs: 1, Case: 1}},
		edges: map[transition.Pair]transition.Freq{
			pair(start, named): {Abs: 1, Case: 1},
			pair(named, end):   {Abs: 1, Case: 1},
		},
	}
	out := String(m, 1, DefaultOptions())
	assert.Contains(t, out, `n1 [label="start (1)"`)
	assert.Contains(t, out, "start -> n1")
	assert.Contains(t, out, "n1 -> end")
}

func TestDOTEmptyMap(t *testing.T) {
	out := String(fakeMap{}, 0, DefaultOptions())
	assert.Contains(t, out, `start [shape=circle, label="0"`)
	assert.NotContains(t, out, "->")
}

func TestDOTFromGraph(t *testing.T) {
	l, err := eventlog.New(map[string][]string{
		"1": {"A", "B", "C"},
		"2": {"A", "C"},
		"3": {"A", "B", "C"},
	})
	require.NoError(t, err)
	g := graph.New()
	require.NoError(t, g.Update(l, 100, 100))

	assert.Equal(t, String(abc(), 3, DefaultOptions()), String(g, l.CaseCount(), DefaultOptions()))
}

func TestLayers(t *testing.T) {
	assert.Equal(t, [][]eventlog.Node{{start}, {a}, {b, c}, {end}}, Layers(abc()))

	detached := abc()
	x := eventlog.Activity("X")
	detached.nodes[x] = graph.NodeStats{Abs: 1, Case: 1}
	detached.edges[pair(x, end)] = transition.Freq{Abs: 1, Case: 1}
	assert.Equal(t, [][]eventlog.Node{{start}, {a}, {b, c, x}, {end}}, Layers(detached))

	assert.Equal(t, [][]eventlog.Node{{start}, {end}}, Layers(fakeMap{}))
}

func TestLayout(t *testing.T) {
	pos := Layout(abc(), LayoutConfig{Width: 400, Height: 500, Padding: 50})

	require.Len(t, pos, 5)
	// Four levels over 400 units of height
	assert.Equal(t, Position{X: 200, Y: 100}, pos[start])
	assert.Equal(t, Position{X: 200, Y: 200}, pos[a])
	assert.InDelta(t, 150, pos[b].X, 1e-9)
	assert.InDelta(t, 250, pos[c].X, 1e-9)
	assert.Equal(t, pos[b].Y, pos[c].Y)
	assert.Equal(t, Position{X: 200, Y: 400}, pos[end])
}

func TestExportJSON(t *testing.T) {
	data, err := ExportJSON(abc(), 3, DefaultLayoutConfig(), DefaultOptions())
	require.NoError(t, err)

	var decoded mapJSON
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 3, decoded.Cases)
	require.Len(t, decoded.Nodes, 5)
	assert.Equal(t, "start", decoded.Nodes[0].ID)
	assert.Equal(t, "start", decoded.Nodes[0].Kind)
	assert.Equal(t, "#95d600", decoded.Nodes[0].Fill)
	assert.Equal(t, nodeJSON{
		ID: "n1", Label: "A", Kind: "activity", Abs: 3, Case: 3, Fill: "#1d2559",
		X: decoded.Nodes[1].X, Y: decoded.Nodes[1].Y,
	}, decoded.Nodes[1])
	assert.Equal(t, "end", decoded.Nodes[4].ID)

	require.Len(t, decoded.Edges, 5)
	assert.Equal(t, edgeJSON{From: "start", To: "n1", Abs: 3, Case: 3}, decoded.Edges[0])
}

func TestExportJSONMetaState(t *testing.T) {
	ab := eventlog.MetaState("A", "B")
	m := fakeMap{
		nodes: map[eventlog.Node]graph.NodeStats{
			ab: {Abs: 5, Case: 3, Members: map[eventlog.Node]int{a: 8, b: 5}},
		},
		edges: map[transition.Pair]transition.Freq{
			pair(start, ab): {Abs: 3, Case: 3},
			pair(ab, end):   {Abs: 3, Case: 3},
		},
	}
	data, err := ExportJSON(m, 3, DefaultLayoutConfig(), DefaultOptions())
	require.NoError(t, err)

	var decoded mapJSON
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Nodes, 3)
	meta := decoded.Nodes[1]
	assert.Equal(t, "meta_state", meta.Kind)
	assert.Equal(t, "(A, B)", meta.Label)
	assert.Equal(t, []string{"A", "B"}, meta.Members)
	assert.Equal(t, map[string]int{"A": 8, "B": 5}, meta.SubFreq)
}
