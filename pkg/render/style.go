package render

import (
	"strconv"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/graph"
)

// palette runs from the most frequent node (dark) to the least (white)
var palette = [10]string{
	"#1d2559", "#203078", "#1f3b98", "#1946ba", "#5661c6",
	"#7d7fd2", "#a09dde", "#c0bde9", "#e0ddf4", "#ffffff",
}

const (
	startFill = "#95d600"
	endFill   = "#ea4126"
	plainFill = "#ffffff"
	fontName  = "Sans Not-Rotated 14"

	minPen = 1.0
	maxPen = 5.0
	smooth = 1e-6
)

// Frequency is the value a node is shaded by: the mean member
// sub-frequency of an inner meta-state, the absolute frequency otherwise.
func Frequency(s graph.NodeStats) float64 {
	if len(s.Members) == 0 {
		return float64(s.Abs)
	}
	sum := 0
	for _, f := range s.Members {
		sum += f
	}
	return float64(sum) / float64(len(s.Members))
}

// Shade maps f onto 0..100 within [lo, hi], 0 being the most frequent
func Shade(f, lo, hi float64) int {
	return int((hi - f) / (hi - lo + smooth) * 100)
}

// FillColor returns the fill of a node of the given shade
func FillColor(shade int, colored bool) string {
	if !colored {
		return "gray" + strconv.Itoa(shade)
	}
	return palette[min(max(shade, 0)/10, len(palette)-1)]
}

// FontColor keeps labels readable on dark fills
func FontColor(shade int) string {
	if shade < 50 {
		return "white"
	}
	return "black"
}

// PenWidth scales an edge between 1 and 5 by its absolute frequency
func PenWidth(f, lo, hi int) float64 {
	return minPen + (maxPen-minPen)*float64(f-lo)/(float64(hi-lo)+smooth)
}

// Label is the text of a node box. Meta-states list their members one per
// line, with sub-frequencies when known, followed by their own frequency.
func Label(n eventlog.Node, s graph.NodeStats) string {
	if !n.IsMetaState() {
		return n.Label() + " (" + strconv.Itoa(s.Abs) + ")"
	}
	var text string
	for i, m := range n.Members() {
		if i > 0 {
			text += "\n"
		}
		text += m.Label()
		if f, ok := s.Members[m]; ok {
			text += " (" + strconv.Itoa(f) + ")"
		}
	}
	return text + "\n(" + strconv.Itoa(s.Abs) + ")"
}

// bounds returns the lowest and highest node frequency
func bounds(stats map[eventlog.Node]graph.NodeStats) (lo, hi float64) {
	first := true
	for _, s := range stats {
		f := Frequency(s)
		if first || f < lo {
			lo = f
		}
		if first || f > hi {
			hi = f
		}
		first = false
	}
	return lo, hi
}
