// Package transition builds the directly-follows matrix of an event log:
// for every ordered pair of consecutive events, how often it occurs in
// total and in how many cases.
package transition

import (
	"slices"

	"github.com/dd0wney/procmap/pkg/eventlog"
)

// Freq holds the absolute and case frequency of a transition
type Freq struct {
	Abs  int
	Case int
}

// Imaginary reports whether the transition was never observed
func (f Freq) Imaginary() bool { return f.Abs == 0 && f.Case == 0 }

// Pair is a directed edge between two nodes
type Pair struct {
	From eventlog.Node
	To   eventlog.Node
}

// ComparePairs orders pairs by source then target
func ComparePairs(a, b Pair) int {
	if c := eventlog.Compare(a.From, b.From); c != 0 {
		return c
	}
	return eventlog.Compare(a.To, b.To)
}

// SortPairs sorts pairs in place and returns them
func SortPairs(pairs []Pair) []Pair {
	slices.SortFunc(pairs, ComparePairs)
	return pairs
}

// Matrix maps source -> target -> frequency. Pairs never observed have no entry.
type Matrix map[eventlog.Node]map[eventlog.Node]Freq

// Build counts every consecutive pair of every trace. The case frequency
// of a pair is incremented at most once per case.
func Build(log *eventlog.Log) Matrix {
	m := make(Matrix)
	log.Each(func(_ string, t eventlog.Trace) {
		counted := make(map[Pair]struct{})
		for i := 0; i+1 < len(t); i++ {
			p := Pair{From: t[i], To: t[i+1]}
			f := m.Row(p.From)[p.To]
			f.Abs++
			if _, ok := counted[p]; !ok {
				counted[p] = struct{}{}
				f.Case++
			}
			m.Set(p, f)
		}
	})
	return m
}

// Extend returns a copy of m with Start->first and last->End entries for
// every case of log. m itself is left unchanged.
func (m Matrix) Extend(log *eventlog.Log) Matrix {
	ext := m.Clone()
	delete(ext, eventlog.Start)
	for src, row := range ext {
		delete(row, eventlog.End)
		if len(row) == 0 {
			delete(ext, src)
		}
	}

	log.Each(func(_ string, t eventlog.Trace) {
		ext.Add(Pair{From: eventlog.Start, To: t[0]}, Freq{Abs: 1, Case: 1})
		ext.Add(Pair{From: t[len(t)-1], To: eventlog.End}, Freq{Abs: 1, Case: 1})
	})
	return ext
}

// Get returns the frequency of a pair and whether it was observed
func (m Matrix) Get(from, to eventlog.Node) (Freq, bool) {
	f, ok := m[from][to]
	return f, ok
}

// Row returns the outgoing transitions of src. Unknown sources yield an
// empty, read-only row.
func (m Matrix) Row(src eventlog.Node) map[eventlog.Node]Freq {
	if row, ok := m[src]; ok {
		return row
	}
	return map[eventlog.Node]Freq{}
}

// Targets returns the targets of src in node order
func (m Matrix) Targets(src eventlog.Node) []eventlog.Node {
	row := m[src]
	out := make([]eventlog.Node, 0, len(row))
	for dst := range row {
		out = append(out, dst)
	}
	return eventlog.SortNodes(out)
}

// Sources returns every source node in node order
func (m Matrix) Sources() []eventlog.Node {
	out := make([]eventlog.Node, 0, len(m))
	for src := range m {
		out = append(out, src)
	}
	return eventlog.SortNodes(out)
}

// Set overwrites the frequency of a pair
func (m Matrix) Set(p Pair, f Freq) {
	row, ok := m[p.From]
	if !ok {
		row = make(map[eventlog.Node]Freq)
		m[p.From] = row
	}
	row[p.To] = f
}

// Add accumulates f onto the frequency of a pair
func (m Matrix) Add(p Pair, f Freq) {
	cur := m[p.From][p.To]
	m.Set(p, Freq{Abs: cur.Abs + f.Abs, Case: cur.Case + f.Case})
}

// Clone returns a deep copy
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for src, row := range m {
		r := make(map[eventlog.Node]Freq, len(row))
		for dst, f := range row {
			r[dst] = f
		}
		out[src] = r
	}
	return out
}

// Pairs returns every observed pair in sorted order
func (m Matrix) Pairs() []Pair {
	var out []Pair
	for src, row := range m {
		for dst := range row {
			out = append(out, Pair{From: src, To: dst})
		}
	}
	return SortPairs(out)
}

// OutFrequency sums the absolute frequency of the outgoing transitions of
// src. On an extended matrix this equals the number of occurrences of src.
func (m Matrix) OutFrequency(src eventlog.Node) int {
	total := 0
	for _, f := range m[src] {
		total += f.Abs
	}
	return total
}

// StartCases sums the case frequency of the Start row
func (m Matrix) StartCases() int {
	total := 0
	for _, f := range m[eventlog.Start] {
		total += f.Case
	}
	return total
}
