package processmap

import "github.com/dd0wney/procmap/pkg/aggregation"

// Param changes one setting. Params are applied by SetParams, which
// rejects the whole call if the result does not validate.
type Param func(*Settings)

// WithOptimize turns the rate optimizer on or off
func WithOptimize(on bool) Param {
	return func(s *Settings) { s.Optimize = on }
}

// WithAggregate turns meta-state aggregation on or off
func WithAggregate(on bool) Param {
	return func(s *Settings) { s.Aggregate = on }
}

// WithAggType selects outer, inner or combined aggregation
func WithAggType(mode aggregation.Mode) Param {
	return func(s *Settings) { s.AggType = mode }
}

// WithHeuristic selects how inner aggregation redirects member edges
func WithHeuristic(h aggregation.Heuristic) Param {
	return func(s *Settings) { s.Heuristic = h }
}

// WithLambda weighs complexity against loss in the optimizer
func WithLambda(lambda float64) Param {
	return func(s *Settings) { s.Lambda = lambda }
}

// WithStep spaces the optimizer grid by step
func WithStep(step float64) Param {
	return func(s *Settings) { s.Step = StepGrid(step) }
}

// WithGrid makes the optimizer evaluate exactly the given rates
func WithGrid(points ...float64) Param {
	return func(s *Settings) { s.Step = PointGrid(points...) }
}

// WithCycleRel sets the share of cases a cycle must occur in to become a
// meta-state
func WithCycleRel(rel float64) Param {
	return func(s *Settings) { s.CycleRel = rel }
}

// WithOrdered keeps rotations of a cycle apart
func WithOrdered(on bool) Param {
	return func(s *Settings) { s.Ordered = on }
}

// WithPreTraverse orders meta-state members by pre-order from Start
func WithPreTraverse(on bool) Param {
	return func(s *Settings) { s.PreTraverse = on }
}

// WithWorkers sets how many grid points are evaluated concurrently
func WithWorkers(n int) Param {
	return func(s *Settings) { s.Workers = n }
}

// WithColored renders in color or in gray
func WithColored(on bool) Param {
	return func(s *Settings) { s.Colored = on }
}

// WithCSV selects the case and activity columns of CSV logs
func WithCSV(caseColumn, activityColumn int, header bool) Param {
	return func(s *Settings) {
		s.Log.CaseColumn = caseColumn
		s.Log.ActivityColumn = activityColumn
		s.Log.Header = header
	}
}
