package aggregation

import (
	"fmt"

	"github.com/dd0wney/procmap/pkg/cycles"
	"github.com/dd0wney/procmap/pkg/eventlog"
)

// Reconstruct rewrites every trace of log, replacing each run of events
// that equals a state's members (or, unless ordered, a rotation of them)
// with the state itself. A run is replaced only where the case returns to
// its first event, or continues a replaced run of the same state. Longer
// states are matched first. The source log is not modified.
func Reconstruct(log *eventlog.Log, states []eventlog.Node, ordered bool) (*eventlog.Log, error) {
	seqs := make([][]eventlog.Node, len(states))
	for i, s := range states {
		seqs[i] = s.Members()
	}
	m := cycles.NewMatcher(seqs, ordered)

	traces := make(map[string]eventlog.Trace, log.CaseCount())
	log.Each(func(caseID string, t eventlog.Trace) {
		out := make(eventlog.Trace, 0, len(t))
		m.Scan(t, func(idx, pos int, ok bool) {
			if ok {
				out = append(out, states[idx])
			} else {
				out = append(out, t[pos])
			}
		})
		traces[caseID] = out
	})

	agg, err := eventlog.FromTraces(traces)
	if err != nil {
		return nil, fmt.Errorf("rebuilding log: %w", err)
	}
	return agg, nil
}
