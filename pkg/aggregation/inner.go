package aggregation

import (
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/transition"
)

// MemberStates maps every member activity to the states containing it,
// each with the absolute frequency of the state.
type MemberStates map[eventlog.Node]map[eventlog.Node]int

// NewMemberStates indexes states by their members. stateAbs gives the
// absolute frequency of each state; missing states count zero.
func NewMemberStates(states []eventlog.Node, stateAbs map[eventlog.Node]int) MemberStates {
	ms := make(MemberStates)
	for _, s := range states {
		for _, m := range s.Members() {
			if ms[m] == nil {
				ms[m] = make(map[eventlog.Node]int)
			}
			ms[m][s] = stateAbs[s]
		}
	}
	return ms
}

// IsMember reports whether n belongs to some state
func (ms MemberStates) IsMember(n eventlog.Node) bool {
	_, ok := ms[n]
	return ok
}

// Assign returns, in node order, the states a member's edges go to under
// h. Non-members have no states.
func (h Heuristic) Assign(member eventlog.Node, ms MemberStates) []eventlog.Node {
	states, ok := ms[member]
	if !ok {
		return nil
	}
	all := make([]eventlog.Node, 0, len(states))
	for s := range states {
		all = append(all, s)
	}
	eventlog.SortNodes(all)

	if h != Frequent {
		return all
	}
	best := all[0]
	for _, s := range all[1:] {
		if states[s] > states[best] {
			best = s
		}
	}
	return []eventlog.Node{best}
}

// Redirect returns a copy of the extended matrix m of the aggregated log in
// which every transition between a non-member x and a raw member event is
// also credited to x and the member's assigned states. Each redirection
// adds one to the absolute frequency; the case frequency grows once per
// case, and only if the case does not already walk that edge directly.
func Redirect(log *eventlog.Log, m transition.Matrix, ms MemberStates, h Heuristic) transition.Matrix {
	out := m.Clone()

	log.Each(func(_ string, t eventlog.Trace) {
		padded := make([]eventlog.Node, 0, len(t)+2)
		padded = append(padded, eventlog.Start)
		padded = append(padded, t...)
		padded = append(padded, eventlog.End)

		direct := make(transition.PairSet, len(padded))
		for i := 0; i+1 < len(padded); i++ {
			direct.Add(transition.Pair{From: padded[i], To: padded[i+1]})
		}
		counted := make(transition.PairSet)

		credit := func(p transition.Pair) {
			f := transition.Freq{Abs: 1}
			if !counted.Has(p) && !direct.Has(p) {
				f.Case = 1
				counted.Add(p)
			}
			out.Add(p, f)
		}

		for k := 1; k+1 < len(padded); k++ {
			member := padded[k]
			if !ms.IsMember(member) {
				continue
			}
			before, after := padded[k-1], padded[k+1]
			for _, s := range h.Assign(member, ms) {
				if !ms.IsMember(before) && before != s {
					credit(transition.Pair{From: before, To: s})
				}
				if !ms.IsMember(after) && after != s {
					credit(transition.Pair{From: s, To: after})
				}
			}
		}
	})
	return out
}

// CaseFrequencies counts, per node of the aggregated map, the cases it
// occurs in. A raw member event counts toward its assigned states instead
// of itself.
func CaseFrequencies(log *eventlog.Log, ms MemberStates, h Heuristic) map[eventlog.Node]int {
	freq := make(map[eventlog.Node]int)
	log.Each(func(_ string, t eventlog.Trace) {
		seen := make(eventlog.NodeSet)
		for _, e := range t {
			if ms.IsMember(e) {
				for _, s := range h.Assign(e, ms) {
					seen.Add(s)
				}
				continue
			}
			seen.Add(e)
		}
		for n := range seen {
			freq[n]++
		}
	})
	return freq
}

// MemberFrequencies breaks the frequency of state down by member for
// display: each member gets stateAbs plus its own raw frequency, if the
// heuristic assigns the member to this state.
func MemberFrequencies(state eventlog.Node, stateAbs int, rawAbs map[eventlog.Node]int, ms MemberStates, h Heuristic) map[eventlog.Node]int {
	members := state.Members()
	out := make(map[eventlog.Node]int, len(members))
	for _, m := range members {
		out[m] = stateAbs
		raw, ok := rawAbs[m]
		if !ok {
			continue
		}
		for _, s := range h.Assign(m, ms) {
			if s == state {
				out[m] += raw
				break
			}
		}
	}
	return out
}
