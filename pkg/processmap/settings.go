package processmap

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/procmap/pkg/aggregation"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/graph"
	"github.com/dd0wney/procmap/pkg/validation"
)

// ErrInvalidSettings wraps every settings validation failure
var ErrInvalidSettings = errors.New("processmap: invalid settings")

// Grid is the optimizer search space: either a step between 0 and 100 or
// an explicit list of rates. In YAML it is written as a number or as a
// sequence of numbers.
type Grid struct {
	Step   float64   `validate:"gte=0"`
	Points []float64 `validate:"omitempty,dive,gte=0,lte=100"`
}

// StepGrid returns a grid of 0, step, 2*step, ... and 100
func StepGrid(step float64) Grid { return Grid{Step: step} }

// PointGrid returns a grid made of the given rates
func PointGrid(points ...float64) Grid {
	return Grid{Points: append([]float64(nil), points...)}
}

// UnmarshalYAML accepts a scalar step or a sequence of points
func (g *Grid) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var step float64
		if err := value.Decode(&step); err != nil {
			return fmt.Errorf("step: %w", err)
		}
		*g = Grid{Step: step}
	case yaml.SequenceNode:
		var points []float64
		if err := value.Decode(&points); err != nil {
			return fmt.Errorf("step: %w", err)
		}
		*g = Grid{Points: points}
	default:
		return fmt.Errorf("%w: line %d: step must be a number or a list of numbers",
			ErrInvalidSettings, value.Line)
	}
	return nil
}

// MarshalYAML writes the points when set, the step otherwise
func (g Grid) MarshalYAML() (any, error) {
	if len(g.Points) > 0 {
		return g.Points, nil
	}
	return g.Step, nil
}

// LogSettings selects the CSV columns of an event log file
type LogSettings struct {
	CaseColumn     int    `yaml:"case_column" validate:"gte=0"`
	ActivityColumn int    `yaml:"activity_column" validate:"gte=0"`
	Delimiter      string `yaml:"delimiter"`
	Header         bool   `yaml:"header"`
}

// CSVOptions converts the settings into reader options
func (s LogSettings) CSVOptions() eventlog.CSVOptions {
	opts := eventlog.CSVOptions{
		CaseColumn:     s.CaseColumn,
		ActivityColumn: s.ActivityColumn,
		Header:         s.Header,
	}
	if s.Delimiter != "" {
		opts.Comma, _ = utf8.DecodeRuneInString(s.Delimiter)
	}
	return opts
}

// Settings controls how a process map is discovered and rendered
type Settings struct {
	ActivityRate float64               `yaml:"activity_rate" validate:"gte=0,lte=100"`
	PathRate     float64               `yaml:"path_rate" validate:"gte=0,lte=100"`
	Optimize     bool                  `yaml:"optimize"`
	Aggregate    bool                  `yaml:"aggregate"`
	AggType      aggregation.Mode      `yaml:"agg_type"`
	Heuristic    aggregation.Heuristic `yaml:"heuristic"`
	Lambda       float64               `yaml:"lambda" validate:"gte=0,lte=1"`
	Step         Grid                  `yaml:"step"`
	CycleRel     float64               `yaml:"cycle_rel" validate:"gte=0,lte=1"`
	Ordered      bool                  `yaml:"ordered"`
	PreTraverse  bool                  `yaml:"pre_traverse"`
	Workers      int                   `yaml:"workers" validate:"gte=0,lte=1024"`
	Colored      bool                  `yaml:"colored"`
	Log          LogSettings           `yaml:"log"`
}

// DefaultSettings returns the settings of a fresh process map: all
// activities, the most significant paths, optimization on, aggregation
// off.
func DefaultSettings() Settings {
	return Settings{
		ActivityRate: 100,
		PathRate:     0,
		Optimize:     true,
		Aggregate:    false,
		AggType:      aggregation.Outer,
		Heuristic:    aggregation.All,
		Lambda:       0.5,
		Step:         StepGrid(10),
		CycleRel:     0.5,
		Workers:      1,
		Colored:      true,
		Log: LogSettings{
			CaseColumn:     0,
			ActivityColumn: 1,
			Delimiter:      ",",
			Header:         true,
		},
	}
}

// Validate checks field ranges and the rules that span fields
func (s Settings) Validate() error {
	if err := validation.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	v := validation.NewConfigValidator("Settings").
		When(len(s.Step.Points) == 0, func(cv *validation.ConfigValidator) {
			cv.PositiveFinite("Step", s.Step.Step)
		}).
		Custom("AggType", func() error {
			_, err := s.AggType.MarshalText()
			return err
		}).
		Custom("Heuristic", func() error {
			_, err := s.Heuristic.MarshalText()
			return err
		}).
		Custom("Log", func() error {
			if s.Log.CaseColumn == s.Log.ActivityColumn {
				return fmt.Errorf("case and activity columns are both %d", s.Log.CaseColumn)
			}
			if utf8.RuneCountInString(s.Log.Delimiter) > 1 {
				return fmt.Errorf("delimiter %q is longer than one character", s.Log.Delimiter)
			}
			return nil
		})
	if err := v.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Rates returns the activity and path rates
func (s Settings) Rates() graph.Rates {
	return graph.Rates{Activities: s.ActivityRate, Paths: s.PathRate}
}

// OptimizeOptions returns the optimizer options the settings describe
func (s Settings) OptimizeOptions() graph.OptimizeOptions {
	return graph.OptimizeOptions{
		Lambda:  s.Lambda,
		Step:    s.Step.Step,
		Grid:    append([]float64(nil), s.Step.Points...),
		Workers: s.Workers,
	}
}

// AggregateOptions returns the aggregation options the settings describe
func (s Settings) AggregateOptions() graph.AggregateOptions {
	opts := graph.DefaultAggregateOptions()
	opts.Mode = s.AggType
	opts.Heuristic = s.Heuristic
	opts.Rel = s.CycleRel
	opts.Ordered = s.Ordered
	opts.PreTraverse = s.PreTraverse
	return opts
}

// ParseSettings decodes YAML on top of the defaults and validates the result
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadSettings reads and validates a YAML settings file
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return ParseSettings(data)
}
