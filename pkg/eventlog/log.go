package eventlog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrEmptyTrace is returned when a case has no events
	ErrEmptyTrace = errors.New("eventlog: case has no events")

	// ErrSentinelEvent is returned when a trace contains Start or End
	ErrSentinelEvent = errors.New("eventlog: trace contains a start/end sentinel")

	// ErrInvalidLabel is returned when an activity label contains the
	// meta-state member separator
	ErrInvalidLabel = errors.New("eventlog: activity label contains the \\x1f separator")
)

// Trace is the ordered sequence of events of one case
type Trace []Node

// Log is an immutable event log: a mapping of case id to trace.
// Traces handed out by Trace and Each are shared and must not be modified.
type Log struct {
	traces     map[string]Trace
	cases      []string
	activities []Node
	events     int
}

// New builds a log from plain activity labels per case.
func New(traces map[string][]string) (*Log, error) {
	converted := make(map[string]Trace, len(traces))
	for id, labels := range traces {
		t := make(Trace, len(labels))
		for i, l := range labels {
			t[i] = Activity(l)
		}
		converted[id] = t
	}
	return newLog(converted)
}

// FromTraces builds a log from node traces. The traces are copied, so the
// caller keeps ownership of its slices.
func FromTraces(traces map[string]Trace) (*Log, error) {
	copied := make(map[string]Trace, len(traces))
	for id, t := range traces {
		copied[id] = slices.Clone(t)
	}
	return newLog(copied)
}

func newLog(traces map[string]Trace) (*Log, error) {
	l := &Log{
		traces: traces,
		cases:  make([]string, 0, len(traces)),
	}
	seen := make(NodeSet)
	for id, t := range traces {
		if len(t) == 0 {
			return nil, fmt.Errorf("case %q: %w", id, ErrEmptyTrace)
		}
		for _, e := range t {
			if e.IsSentinel() {
				return nil, fmt.Errorf("case %q: %w", id, ErrSentinelEvent)
			}
			if e.IsActivity() && strings.Contains(e.key, memberSep) {
				return nil, fmt.Errorf("case %q: %w: %q", id, ErrInvalidLabel, e.key)
			}
			seen.Add(e)
		}
		l.cases = append(l.cases, id)
		l.events += len(t)
	}
	slices.Sort(l.cases)
	l.activities = seen.Sorted()
	return l, nil
}

// Cases returns the case ids in sorted order
func (l *Log) Cases() []string { return slices.Clone(l.cases) }

// CaseCount returns the number of cases
func (l *Log) CaseCount() int { return len(l.cases) }

// EventCount returns the total number of events over all cases
func (l *Log) EventCount() int { return l.events }

// Trace returns the trace of a case, or nil if the case is unknown
func (l *Log) Trace(caseID string) Trace { return l.traces[caseID] }

// Activities returns the distinct events of the log in sorted order
func (l *Log) Activities() []Node { return slices.Clone(l.activities) }

// ActivitySet returns the distinct events as a set
func (l *Log) ActivitySet() NodeSet { return NewNodeSet(l.activities...) }

// Each calls fn for every case in sorted case order.
func (l *Log) Each(fn func(caseID string, t Trace)) {
	for _, id := range l.cases {
		fn(id, l.traces[id])
	}
}

// CaseFrequencies counts, per event, the number of cases containing it.
func (l *Log) CaseFrequencies() map[Node]int {
	freq := make(map[Node]int, len(l.activities))
	for _, id := range l.cases {
		seen := make(NodeSet)
		for _, e := range l.traces[id] {
			if !seen.Has(e) {
				seen.Add(e)
				freq[e]++
			}
		}
	}
	return freq
}
