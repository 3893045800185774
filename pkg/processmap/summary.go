package processmap

import "github.com/dd0wney/procmap/pkg/graph"

// Summary describes the last discovered map and its log
type Summary struct {
	Cases      int
	Events     int
	Activities int
	Rates      graph.Rates
	Nodes      int
	Edges      int
	Imaginary  int
	MetaStates int
	Repairs    int
	Cycles     int
	Fitness    float64
}

// Summary counts the elements of the map and scores it against its log
func (pm *ProcessMap) Summary() (Summary, error) {
	g, log, s, err := pm.discovered()
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Cases:      log.CaseCount(),
		Events:     log.EventCount(),
		Activities: len(log.Activities()),
		Rates:      s.Rates(),
		Repairs:    len(g.Repairs()),
		Cycles:     len(g.CycleSearch()),
		Fitness:    g.Fitness(log),
	}
	for _, n := range g.NodeList() {
		sum.Nodes++
		if n.IsMetaState() {
			sum.MetaStates++
		}
	}
	for _, f := range g.Edges() {
		sum.Edges++
		if f.Imaginary() {
			sum.Imaginary++
		}
	}
	return sum, nil
}
