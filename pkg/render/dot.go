// Package render describes a process map for display: a Graphviz DOT
// document and a layered JSON layout.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/graph"
	"github.com/dd0wney/procmap/pkg/transition"
)

// Map is the part of a discovered graph that rendering reads
type Map interface {
	Nodes() map[eventlog.Node]graph.NodeStats
	Edges() map[transition.Pair]transition.Freq
}

// Options controls the rendered style
type Options struct {
	// Colored uses the blue palette; otherwise nodes are shades of gray
	Colored bool
	// Name is the DOT graph identifier
	Name string
}

// DefaultOptions returns a colored graph named procmap
func DefaultOptions() Options {
	return Options{Colored: true, Name: "procmap"}
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

// ids assigns stable DOT identifiers: start and end for the sentinels,
// n1, n2, ... for the other nodes in node order. Labels never leak into
// identifiers, so an activity called "start" cannot collide with Start.
func ids(nodes []eventlog.Node) map[eventlog.Node]string {
	out := make(map[eventlog.Node]string, len(nodes)+2)
	out[eventlog.Start] = "start"
	out[eventlog.End] = "end"
	for i, n := range nodes {
		out[n] = "n" + strconv.Itoa(i+1)
	}
	return out
}

// DOT writes the map as a Graphviz digraph. Nodes are shaded by frequency
// and meta-states drawn as octagons. Edges from Start or into End are
// dashed, imaginary edges dotted, and the rest are labelled and scaled by
// frequency. caseCount labels the Start node.
func DOT(w io.Writer, m Map, caseCount int, opts Options) error {
	if opts.Name == "" {
		opts.Name = DefaultOptions().Name
	}
	stats := m.Nodes()
	nodes := make([]eventlog.Node, 0, len(stats))
	for n := range stats {
		nodes = append(nodes, n)
	}
	eventlog.SortNodes(nodes)
	id := ids(nodes)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %s {\n", quote(opts.Name))
	fmt.Fprintf(bw, "\tedge [fontname=%s];\n", quote(fontName))
	fmt.Fprintf(bw, "\tnode [shape=box, style=filled, fontname=%s];\n", quote(fontName))

	lo, hi := bounds(stats)
	for _, n := range nodes {
		s := stats[n]
		shade := Shade(Frequency(s), lo, hi)
		shape := ""
		if n.IsMetaState() {
			shape = ", shape=octagon"
		}
		fmt.Fprintf(bw, "\t%s [label=%s, fillcolor=%s, fontcolor=%s%s];\n",
			id[n], quote(Label(n, s)), quote(FillColor(shade, opts.Colored)), FontColor(shade), shape)
	}

	start, end := plainFill, plainFill
	if opts.Colored {
		start, end = startFill, endFill
	}
	fmt.Fprintf(bw, "\tstart [shape=circle, label=%s, fillcolor=%s, margin=0.05];\n",
		quote(strconv.Itoa(caseCount)), quote(start))
	fmt.Fprintf(bw, "\tend [shape=doublecircle, label=\"\", fillcolor=%s];\n", quote(end))

	edges := m.Edges()
	pairs := make([]transition.Pair, 0, len(edges))
	tlo, thi := 0, 0
	for p, f := range edges {
		if len(pairs) == 0 || f.Abs < tlo {
			tlo = f.Abs
		}
		if len(pairs) == 0 || f.Abs > thi {
			thi = f.Abs
		}
		pairs = append(pairs, p)
	}
	transition.SortPairs(pairs)
	for _, p := range pairs {
		f := edges[p]
		from, to := id[p.From], id[p.To]
		switch {
		case f.Imaginary():
			fmt.Fprintf(bw, "\t%s -> %s [style=dotted];\n", from, to)
		case p.From == eventlog.Start || p.To == eventlog.End:
			fmt.Fprintf(bw, "\t%s -> %s [label=%s, style=dashed];\n", from, to, quote(strconv.Itoa(f.Abs)))
		default:
			fmt.Fprintf(bw, "\t%s -> %s [label=%s, penwidth=%s];\n", from, to,
				quote(strconv.Itoa(f.Abs)), strconv.FormatFloat(PenWidth(f.Abs, tlo, thi), 'f', 2, 64))
		}
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

// String returns the DOT document of m
func String(m Map, caseCount int, opts Options) string {
	var sb strings.Builder
	_ = DOT(&sb, m, caseCount, opts)
	return sb.String()
}
