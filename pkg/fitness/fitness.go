// Package fitness scores how well a process map replays its event log.
package fitness

import (
	"math"
	"strconv"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// Relation classifies how a pair of events follows across the log
type Relation int

const (
	// Never means the pair was not observed
	Never Relation = iota
	// Sometimes means the pair occurs in some but not all cases
	Sometimes
	// Always means the pair occurs in every case
	Always
)

func (r Relation) String() string {
	switch r {
	case Always:
		return "A"
	case Sometimes:
		return "S"
	default:
		return "N"
	}
}

// ADS holds the Always/Sometimes/Never matrix of a log
type ADS map[eventlog.Node]map[eventlog.Node]Relation

// NewADS classifies every pair (a, b) with a in the activities plus Start
// and b in the activities plus End. m must be the extended matrix of log.
func NewADS(log *eventlog.Log, m transition.Matrix) ADS {
	caseCount := log.CaseCount()
	acts := log.Activities()
	sources := append([]eventlog.Node{eventlog.Start}, acts...)
	targets := append(append([]eventlog.Node(nil), acts...), eventlog.End)

	ads := make(ADS, len(sources))
	for _, a := range sources {
		row := make(map[eventlog.Node]Relation, len(targets))
		for _, b := range targets {
			f, ok := m.Get(a, b)
			switch {
			case !ok || f.Case <= 0:
				row[b] = Never
			case f.Case == caseCount:
				row[b] = Always
			default:
				row[b] = Sometimes
			}
		}
		ads[a] = row
	}
	return ads
}

// Get returns the relation of a pair. Unclassified pairs are Never.
func (ads ADS) Get(a, b eventlog.Node) Relation {
	return ads[a][b]
}

// Epsilon is the loss of an unmodelled pair that never occurs:
// 10^-d for a case count of d decimal digits.
func Epsilon(caseCount int) float64 {
	return math.Pow(10, -float64(len(strconv.Itoa(caseCount))))
}

// Scorer computes the replay loss of single pairs
type Scorer struct {
	ads       ADS
	matrix    transition.Matrix
	caseCount int
	eps       float64
}

// NewScorer prepares a scorer for log. m must be its extended matrix.
func NewScorer(log *eventlog.Log, m transition.Matrix) *Scorer {
	return &Scorer{
		ads:       NewADS(log, m),
		matrix:    m,
		caseCount: log.CaseCount(),
		eps:       Epsilon(log.CaseCount()),
	}
}

// ADS returns the relation matrix the scorer uses
func (s *Scorer) ADS() ADS { return s.ads }

// Loss returns 1 for an Always pair, the case ratio for a Sometimes pair
// and epsilon for a Never pair.
func (s *Scorer) Loss(a, b eventlog.Node) float64 {
	switch s.ads.Get(a, b) {
	case Always:
		return 1
	case Sometimes:
		f, _ := s.matrix.Get(a, b)
		return float64(f.Case) / float64(s.caseCount)
	default:
		return s.eps
	}
}

// Expand flattens meta-state edges into activity edges: an edge touching a
// meta-state fans out to every member on that side, and each meta-state
// endpoint contributes its internal cycle edges, closing edge included.
func Expand(edges []transition.Pair) transition.PairSet {
	out := make(transition.PairSet, len(edges))
	for _, e := range edges {
		if !e.From.IsMetaState() && !e.To.IsMetaState() {
			out.Add(e)
			continue
		}
		from, to := e.From.Members(), e.To.Members()
		for _, x := range from {
			for _, y := range to {
				out.Add(transition.Pair{From: x, To: y})
			}
		}
		for _, n := range []eventlog.Node{e.From, e.To} {
			if n.IsMetaState() {
				addCycle(out, n.Members())
			}
		}
	}
	return out
}

func addCycle(out transition.PairSet, members []eventlog.Node) {
	for i := range members {
		out.Add(transition.Pair{From: members[i], To: members[(i+1)%len(members)]})
	}
}

// Fitness is the total replay loss of the model edges against the log:
// the loss of every replayed pair (Start->first, consecutive events,
// last->End) the expanded model lacks, plus the loss of every expanded
// model edge. Lower is better.
func (s *Scorer) Fitness(log *eventlog.Log, edges []transition.Pair) float64 {
	model := Expand(edges)

	loss := 0.0
	charge := func(a, b eventlog.Node) {
		if !model.Has(transition.Pair{From: a, To: b}) {
			loss += s.Loss(a, b)
		}
	}
	log.Each(func(_ string, t eventlog.Trace) {
		charge(eventlog.Start, t[0])
		for i := 0; i+1 < len(t); i++ {
			charge(t[i], t[i+1])
		}
		charge(t[len(t)-1], eventlog.End)
	})

	for _, e := range model.Sorted() {
		loss += s.Loss(e.From, e.To)
	}
	return loss
}
