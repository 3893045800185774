package render

import (
	"encoding/json"
	"fmt"

	"github.com/dd0wney/procmap/pkg/algorithms"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// Position represents a 2D coordinate
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LayoutConfig configures the canvas
type LayoutConfig struct {
	Width   float64 // Canvas width
	Height  float64 // Canvas height
	Padding float64 // Padding from edges
}

// DefaultLayoutConfig returns an 800x600 canvas with 50 padding
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{Width: 800, Height: 600, Padding: 50}
}

// Layers arranges the map top to bottom: Start, then the nodes by
// breadth-first depth from Start, then End on a level of its own. Nodes
// Start cannot reach join the last activity level.
func Layers(m Map) [][]eventlog.Node {
	edges := make([]transition.Pair, 0)
	for p := range m.Edges() {
		edges = append(edges, p)
	}
	levels := algorithms.Levels(algorithms.NewIncidence(edges, eventlog.End), eventlog.Start)

	placed := eventlog.NewNodeSet()
	for _, level := range levels {
		for _, n := range level {
			placed.Add(n)
		}
	}
	rest := make([]eventlog.Node, 0)
	for n := range m.Nodes() {
		if !placed.Has(n) {
			rest = append(rest, n)
		}
	}
	if len(rest) > 0 {
		if len(levels) == 1 {
			levels = append(levels, nil)
		}
		last := len(levels) - 1
		levels[last] = eventlog.SortNodes(append(levels[last], rest...))
	}
	return append(levels, []eventlog.Node{eventlog.End})
}

// Layout positions every node of the map, sentinels included, on the
// levels returned by Layers
func Layout(m Map, cfg LayoutConfig) map[eventlog.Node]Position {
	if cfg.Padding == 0 {
		cfg.Padding = DefaultLayoutConfig().Padding
	}
	levels := Layers(m)
	positions := make(map[eventlog.Node]Position)

	levelHeight := (cfg.Height - 2*cfg.Padding) / float64(len(levels))
	levelWidth := cfg.Width - 2*cfg.Padding
	for i, level := range levels {
		y := cfg.Padding + float64(i)*levelHeight + levelHeight/2
		spacing := levelWidth / float64(len(level)+1)
		for j, n := range level {
			positions[n] = Position{X: cfg.Padding + spacing*float64(j+1), Y: y}
		}
	}
	return positions
}

type nodeJSON struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Kind    string         `json:"kind"`
	Members []string       `json:"members,omitempty"`
	Abs     int            `json:"abs"`
	Case    int            `json:"case"`
	SubFreq map[string]int `json:"member_freq,omitempty"`
	Fill    string         `json:"fill"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
}

type edgeJSON struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Abs       int    `json:"abs"`
	Case      int    `json:"case"`
	Imaginary bool   `json:"imaginary,omitempty"`
}

type mapJSON struct {
	Cases int        `json:"cases"`
	Nodes []nodeJSON `json:"nodes"`
	Edges []edgeJSON `json:"edges"`
}

func kindName(n eventlog.Node) string {
	switch {
	case n == eventlog.Start:
		return "start"
	case n == eventlog.End:
		return "end"
	case n.IsMetaState():
		return "meta_state"
	default:
		return "activity"
	}
}

// ExportJSON exports the laid out map as JSON. Node ids match those of the
// DOT document.
func ExportJSON(m Map, caseCount int, cfg LayoutConfig, opts Options) ([]byte, error) {
	stats := m.Nodes()
	positions := Layout(m, cfg)

	nodes := make([]eventlog.Node, 0, len(positions))
	for n := range positions {
		nodes = append(nodes, n)
	}
	eventlog.SortNodes(nodes)

	id := ids(nodes[1 : len(nodes)-1])
	lo, hi := bounds(stats)

	data := mapJSON{
		Cases: caseCount,
		Nodes: make([]nodeJSON, 0, len(nodes)),
	}
	for _, n := range nodes {
		pos := positions[n]
		out := nodeJSON{ID: id[n], Label: n.String(), Kind: kindName(n), X: pos.X, Y: pos.Y}
		switch n {
		case eventlog.Start:
			out.Abs, out.Case = caseCount, caseCount
			out.Fill = plainFill
			if opts.Colored {
				out.Fill = startFill
			}
		case eventlog.End:
			out.Abs, out.Case = caseCount, caseCount
			out.Fill = plainFill
			if opts.Colored {
				out.Fill = endFill
			}
		default:
			s := stats[n]
			out.Abs, out.Case = s.Abs, s.Case
			out.Fill = FillColor(Shade(Frequency(s), lo, hi), opts.Colored)
			if n.IsMetaState() {
				for _, member := range n.Members() {
					out.Members = append(out.Members, member.Label())
				}
			}
			if len(s.Members) > 0 {
				out.SubFreq = make(map[string]int, len(s.Members))
				for member, f := range s.Members {
					out.SubFreq[member.Label()] = f
				}
			}
		}
		data.Nodes = append(data.Nodes, out)
	}

	edges := m.Edges()
	pairs := make([]transition.Pair, 0, len(edges))
	for p := range edges {
		pairs = append(pairs, p)
	}
	transition.SortPairs(pairs)
	data.Edges = make([]edgeJSON, 0, len(pairs))
	for _, p := range pairs {
		f := edges[p]
		data.Edges = append(data.Edges, edgeJSON{
			From:      id[p.From],
			To:        id[p.To],
			Abs:       f.Abs,
			Case:      f.Case,
			Imaginary: f.Imaginary(),
		})
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return out, nil
}
