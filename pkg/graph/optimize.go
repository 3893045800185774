package graph

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/fitness"
	"github.com/dd0wney/procmap/pkg/logging"
	"github.com/dd0wney/procmap/pkg/parallel"
	"github.com/dd0wney/procmap/pkg/validation"
)

// Points returns the rate values of one grid axis. An explicit Grid is
// used as given; otherwise the axis runs 0, Step, 2*Step, ... up to 100 and
// always ends with 100. Generated points are rounded to nine decimals.
func (o OptimizeOptions) Points() ([]float64, error) {
	if len(o.Grid) > 0 {
		cv := validation.NewConfigValidator("OptimizeOptions")
		for i, v := range o.Grid {
			cv.Rate(fmt.Sprintf("Grid[%d]", i), v)
		}
		if err := cv.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRateOutOfRange, err)
		}
		return append([]float64(nil), o.Grid...), nil
	}

	if !(o.Step > 0) || math.IsInf(o.Step, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, o.Step)
	}
	var points []float64
	for i := 0; ; i++ {
		v := math.Round(float64(i)*o.Step*1e9) / 1e9
		if v >= 100 {
			break
		}
		points = append(points, v)
	}
	return append(points, 100), nil
}

// grid expands the axis points into (activity, path) pairs, activity rate
// varying slowest
func grid(points []float64) []Rates {
	out := make([]Rates, 0, len(points)*len(points))
	for _, a := range points {
		for _, p := range points {
			out = append(out, Rates{Activities: a, Paths: p})
		}
	}
	return out
}

// evaluation is the outcome of one grid point
type evaluation struct {
	rates Rates
	res   result
	loss  float64
	compl float64
}

type evaluator struct {
	log    *eventlog.Log
	in     input
	scorer *fitness.Scorer
	g      *Graph
}

func (e *evaluator) eval(r Rates) (evaluation, error) {
	res, err := discover(e.in, r.Activities, r.Paths, e.g.cfg.Conflicts)
	if err != nil {
		return evaluation{}, err
	}
	return evaluation{
		rates: r,
		res:   res,
		loss:  e.scorer.Fitness(e.log, res.edgeList()),
		compl: res.complexity(),
	}, nil
}

// Optimize searches the rate grid for the pair minimizing
//
//	(1-λ)·loss/maxLoss + λ·complexity/maxComplexity
//
// where loss is the replay fitness, complexity the average out-degree,
// maxLoss the loss at (0, 0) and maxComplexity the complexity at (100, 100).
// A zero normalizer drops its term. Ties go to the first point in grid
// order, so the result does not depend on opts.Workers. The graph is left
// at the optimum.
func (g *Graph) Optimize(log *eventlog.Log, opts OptimizeOptions) (best Rates, err error) {
	started := time.Now()
	defer func() { g.cfg.Metrics.RecordDiscovery("optimize", err, time.Since(started)) }()

	if err := validation.NewConfigValidator("OptimizeOptions").
		RangeFloat("Lambda", opts.Lambda, 0, 1).
		Validate(); err != nil {
		return Rates{}, fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	points, err := opts.Points()
	if err != nil {
		return Rates{}, err
	}

	logger := g.logger.With(logging.RunID(uuid.NewString()), logging.Operation("optimize"))
	timer := logging.StartTimer(logger, "optimize", logging.Count(len(points)*len(points)))

	in := logInput(log)
	e := &evaluator{log: log, in: in, scorer: fitness.NewScorer(log, in.matrix), g: g}

	bounds := make([]evaluation, 2)
	extremes := []Rates{{Activities: 0, Paths: 0}, {Activities: 100, Paths: 100}}
	err = parallel.Map(len(extremes), opts.Workers, func(i int) error {
		var err error
		bounds[i], err = e.eval(extremes[i])
		return err
	})
	if err != nil {
		timer.EndError(err)
		return Rates{}, err
	}
	maxLoss, maxCompl := bounds[0].loss, bounds[1].compl

	pairs := grid(points)
	evals := make([]evaluation, len(pairs))
	err = parallel.Map(len(pairs), opts.Workers, func(i int) error {
		var err error
		evals[i], err = e.eval(pairs[i])
		return err
	})
	if err != nil {
		timer.EndError(err)
		return Rates{}, err
	}
	g.cfg.Metrics.RecordGridPoints(len(pairs))

	cost := func(ev evaluation) float64 {
		c := 0.0
		if maxLoss != 0 {
			c += (1 - opts.Lambda) * ev.loss / maxLoss
		}
		if maxCompl != 0 {
			c += opts.Lambda * ev.compl / maxCompl
		}
		return c
	}

	bestIdx, bestCost := 0, cost(evals[0])
	for i := 1; i < len(evals); i++ {
		if c := cost(evals[i]); c < bestCost {
			bestIdx, bestCost = i, c
		}
	}
	opt := evals[bestIdx]

	g.commit(opt.res)
	g.cfg.Metrics.RecordOptimum(opt.rates.Activities, opt.rates.Paths)
	timer.End(
		logging.ActivityRate(opt.rates.Activities),
		logging.PathRate(opt.rates.Paths),
		logging.Float64("cost", bestCost),
		logging.Float64("loss", opt.loss),
		logging.Nodes(len(opt.res.nodes)),
		logging.Edges(len(opt.res.edges)),
	)
	return opt.rates, nil
}
