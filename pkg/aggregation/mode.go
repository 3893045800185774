// Package aggregation rewrites event logs and transition matrices so that
// meta-states stand in for the cycles they represent.
package aggregation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned for an unrecognised aggregation type
	ErrUnknownMode = errors.New("aggregation: unknown aggregation type")

	// ErrUnknownHeuristic is returned for an unrecognised redirect heuristic
	ErrUnknownHeuristic = errors.New("aggregation: unknown heuristic")
)

// Mode selects how meta-states enter the process map
type Mode int

const (
	// Outer rediscovers the map on the rewritten log
	Outer Mode = iota
	// Inner redirects the edges of member activities onto their states
	Inner
	// Combine runs Outer, then Inner on the states that survived it
	Combine
)

var modeNames = map[Mode]string{
	Outer:   "outer",
	Inner:   "inner",
	Combine: "combine",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "outer", "inner" or "combine"
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	if _, ok := modeNames[m]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Heuristic selects which states a member activity's edges are redirected to
type Heuristic int

const (
	// All redirects to every state containing the activity
	All Heuristic = iota
	// Frequent redirects only to the most frequent containing state
	Frequent
)

var heuristicNames = map[Heuristic]string{
	All:      "all",
	Frequent: "frequent",
}

func (h Heuristic) String() string {
	if s, ok := heuristicNames[h]; ok {
		return s
	}
	return fmt.Sprintf("Heuristic(%d)", int(h))
}

// ParseHeuristic parses "all" or "frequent"
func ParseHeuristic(s string) (Heuristic, error) {
	for h, name := range heuristicNames {
		if strings.EqualFold(s, name) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownHeuristic, s)
}

// MarshalText implements encoding.TextMarshaler
func (h Heuristic) MarshalText() ([]byte, error) {
	if _, ok := heuristicNames[h]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHeuristic, int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (h *Heuristic) UnmarshalText(text []byte) error {
	v, err := ParseHeuristic(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}
