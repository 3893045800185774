// Command procmap discovers the process map of a CSV event log and writes
// it as Graphviz DOT or layered JSON.
//
//	procmap -log events.csv -config procmap.yaml -out map.dot
//	procmap -log events.csv -optimize=false -activities 80 -paths 20 | dot -Tpng > map.png
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/dd0wney/procmap/pkg/aggregation"
	"github.com/dd0wney/procmap/pkg/logging"
	"github.com/dd0wney/procmap/pkg/metrics"
	"github.com/dd0wney/procmap/pkg/processmap"
	"github.com/dd0wney/procmap/pkg/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Width(12)
)

type options struct {
	logPath    string
	configPath string
	outPath    string
	format     string
	metrics    string
	logLevel   string
	logFormat  string
	quiet      bool

	activities float64
	paths      float64
	optimize   bool
	aggregate  bool
	aggType    string
	heuristic  string
	lambda     float64
	step       float64
	workers    int
	colored    bool
}

// envOr returns the environment value of key, or def when it is unset
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parseFlags(args []string, stderr io.Writer) (options, map[string]bool, error) {
	var o options
	fs := flag.NewFlagSet("procmap", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.logPath, "log", "", "CSV event log (required)")
	fs.StringVar(&o.configPath, "config", envOr("PROCMAP_CONFIG", ""), "YAML settings file")
	fs.StringVar(&o.outPath, "out", "-", "Output file, - for stdout")
	fs.StringVar(&o.format, "format", "dot", "Output format: dot or json")
	fs.StringVar(&o.metrics, "metrics", "", "Write Prometheus metrics to this file, - for stderr")
	fs.StringVar(&o.logLevel, "log-level", envOr("PROCMAP_LOG_LEVEL", "warn"), "Log level: debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", envOr("PROCMAP_LOG_FORMAT", "json"), "Log format: json or console")
	fs.BoolVar(&o.quiet, "quiet", false, "Do not print the summary")

	// Overrides of the settings file, applied only when given
	fs.Float64Var(&o.activities, "activities", 100, "Activity rate in [0, 100]")
	fs.Float64Var(&o.paths, "paths", 0, "Path rate in [0, 100]")
	fs.BoolVar(&o.optimize, "optimize", true, "Search the rate grid for the optimal map")
	fs.BoolVar(&o.aggregate, "aggregate", false, "Aggregate significant cycles into meta-states")
	fs.StringVar(&o.aggType, "agg-type", "outer", "Aggregation: outer, inner or combine")
	fs.StringVar(&o.heuristic, "heuristic", "all", "Inner aggregation heuristic: all or frequent")
	fs.Float64Var(&o.lambda, "lambda", 0.5, "Optimizer weight of complexity against loss")
	fs.Float64Var(&o.step, "step", 10, "Optimizer grid step")
	fs.IntVar(&o.workers, "workers", 1, "Grid points evaluated concurrently")
	fs.BoolVar(&o.colored, "colored", true, "Render in color")

	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	if o.logPath == "" {
		return o, nil, errors.New("-log is required")
	}
	if o.format != "dot" && o.format != "json" {
		return o, nil, fmt.Errorf("unknown format %q", o.format)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return o, set, nil
}

// overrides turns the flags given on the command line into params
func overrides(o options, set map[string]bool) ([]processmap.Param, error) {
	var params []processmap.Param
	if set["optimize"] {
		params = append(params, processmap.WithOptimize(o.optimize))
	}
	if set["aggregate"] {
		params = append(params, processmap.WithAggregate(o.aggregate))
	}
	if set["agg-type"] {
		mode, err := aggregation.ParseMode(o.aggType)
		if err != nil {
			return nil, err
		}
		params = append(params, processmap.WithAggType(mode))
	}
	if set["heuristic"] {
		h, err := aggregation.ParseHeuristic(o.heuristic)
		if err != nil {
			return nil, err
		}
		params = append(params, processmap.WithHeuristic(h))
	}
	if set["lambda"] {
		params = append(params, processmap.WithLambda(o.lambda))
	}
	if set["step"] {
		params = append(params, processmap.WithStep(o.step))
	}
	if set["workers"] {
		params = append(params, processmap.WithWorkers(o.workers))
	}
	if set["colored"] {
		params = append(params, processmap.WithColored(o.colored))
	}
	return params, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, set, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(o.logFormat, stderr, level)
	if err != nil {
		return err
	}
	reg := metrics.NewRegistry()
	pm := processmap.NewWithConfig(processmap.Config{Logger: logger, Metrics: reg})

	if o.configPath != "" {
		s, err := processmap.LoadSettings(o.configPath)
		if err != nil {
			return err
		}
		if err := pm.SetSettings(s); err != nil {
			return err
		}
	}
	params, err := overrides(o, set)
	if err != nil {
		return err
	}
	if err := pm.SetParams(params...); err != nil {
		return err
	}
	if set["activities"] || set["paths"] {
		rates := pm.Rates()
		if set["activities"] {
			rates.Activities = o.activities
		}
		if set["paths"] {
			rates.Paths = o.paths
		}
		if err := pm.SetRates(rates.Activities, rates.Paths); err != nil {
			return err
		}
	}

	if err := pm.LoadLog(o.logPath); err != nil {
		return err
	}
	if err := pm.Update(); err != nil {
		return err
	}

	if err := writeOutput(pm, o, stdout); err != nil {
		return err
	}
	if !o.quiet {
		sum, err := pm.Summary()
		if err != nil {
			return err
		}
		fmt.Fprintln(stderr, summary(sum, pm.Settings()))
	}
	if o.metrics != "" {
		if err := writeMetrics(reg, o.metrics, stderr); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(pm *processmap.ProcessMap, o options, stdout io.Writer) (err error) {
	w := stdout
	if o.outPath != "-" {
		f, ferr := os.Create(o.outPath)
		if ferr != nil {
			return fmt.Errorf("create output: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if o.format == "json" {
		data, err := pm.RenderJSON(render.DefaultLayoutConfig())
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	}
	return pm.Render(w)
}

func writeMetrics(reg *metrics.Registry, path string, stderr io.Writer) (err error) {
	if path == "-" {
		return reg.WriteText(stderr)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return reg.WriteText(f)
}

func summary(sum processmap.Summary, s processmap.Settings) string {
	row := func(k, v string) string {
		return keyStyle.Render(k) + v
	}
	mode := "off"
	if s.Aggregate {
		mode = s.AggType.String()
	}
	lines := []string{
		titleStyle.Render("Process map"),
		"",
		row("Cases", fmt.Sprintf("%d", sum.Cases)),
		row("Events", fmt.Sprintf("%d", sum.Events)),
		row("Activities", fmt.Sprintf("%d", sum.Activities)),
		row("Rates", fmt.Sprintf("%.4g%% activities, %.4g%% paths", sum.Rates.Activities, sum.Rates.Paths)),
		row("Optimized", fmt.Sprintf("%v", s.Optimize)),
		row("Aggregated", mode),
		"",
		row("Nodes", fmt.Sprintf("%d (%d meta-states)", sum.Nodes, sum.MetaStates)),
		row("Edges", fmt.Sprintf("%d (%d imaginary, %d repairs)", sum.Edges, sum.Imaginary, sum.Repairs)),
		row("Cycles", fmt.Sprintf("%d", sum.Cycles)),
		row("Fitness", fmt.Sprintf("%.4f", sum.Fitness)),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func main() {
	// PROCMAP_* defaults may come from a .env file next to the log
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "procmap: %v\n", err)
		os.Exit(1)
	}
}
