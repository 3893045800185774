package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/procmap/pkg/aggregation"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/processmap"
)

func newExplorer(t *testing.T) model {
	t.Helper()
	l, err := eventlog.New(map[string][]string{
		"1": {"A", "B", "C"},
		"2": {"A", "C"},
		"3": {"A", "B", "C"},
	})
	if err != nil {
		t.Fatal(err)
	}
	pm := processmap.New()
	if err := pm.SetLog(l); err != nil {
		t.Fatal(err)
	}
	if err := pm.SetParams(processmap.WithOptimize(false)); err != nil {
		t.Fatal(err)
	}
	if err := pm.SetRates(100, 100); err != nil {
		t.Fatal(err)
	}
	return initialModel(pm)
}

// settle runs the pending command and feeds its message back
func settle(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(model)
}

func TestInitDiscoversMap(t *testing.T) {
	m := newExplorer(t)
	m = settle(t, m, m.Init())

	if m.busy {
		t.Error("model still busy after discovery")
	}
	if m.summary.Nodes != 3 || m.summary.Edges != 5 {
		t.Errorf("summary = %+v, want 3 nodes and 5 edges", m.summary)
	}
	if got := len(m.nodeTable.Rows()); got != 3 {
		t.Errorf("node rows = %d, want 3", got)
	}
	if got := len(m.edgeTable.Rows()); got != 5 {
		t.Errorf("edge rows = %d, want 5", got)
	}
}

func TestRateKeysRediscover(t *testing.T) {
	m := newExplorer(t)
	m = settle(t, m, m.Init())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	m = next.(model)
	if !m.busy {
		t.Fatal("rate change did not start a discovery")
	}
	m = settle(t, m, cmd)

	if r := m.pm.Rates(); r.Activities != 100 || r.Paths != 95 {
		t.Errorf("rates = %+v, want 100/95", r)
	}

	// Rates stay inside [0, 100]
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = settle(t, next.(model), cmd)
	if r := m.pm.Rates(); r.Activities != 100 {
		t.Errorf("activity rate = %v, want 100", r.Activities)
	}
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	m := newExplorer(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if cmd != nil {
		t.Error("busy model started another discovery")
	}
	if r := next.(model).pm.Rates(); r.Activities != 100 {
		t.Errorf("activity rate = %v, want 100", r.Activities)
	}
}

func TestAggregationKeys(t *testing.T) {
	m := newExplorer(t)
	m = settle(t, m, m.Init())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	m = settle(t, next.(model), cmd)
	if !m.pm.Settings().Aggregate {
		t.Error("aggregation not enabled")
	}

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	m = settle(t, next.(model), cmd)
	if got := m.pm.Settings().AggType; got != aggregation.Inner {
		t.Errorf("agg type = %v, want inner", got)
	}
}

func TestNextMode(t *testing.T) {
	tests := []struct {
		in, want aggregation.Mode
	}{
		{aggregation.Outer, aggregation.Inner},
		{aggregation.Inner, aggregation.Combine},
		{aggregation.Combine, aggregation.Outer},
	}
	for _, tt := range tests {
		if got := nextMode(tt.in); got != tt.want {
			t.Errorf("nextMode(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestViews(t *testing.T) {
	m := newExplorer(t)
	m = settle(t, m, m.Init())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(model)

	if !strings.Contains(m.View(), "Fitness") {
		t.Error("dashboard missing fitness")
	}

	for range viewCount - 1 {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(model)
	}
	if m.currentView != graphView {
		t.Fatalf("current view = %d, want layers", m.currentView)
	}
	out := m.View()
	if !strings.Contains(out, "Layers from start") || !strings.Contains(out, "A") {
		t.Errorf("layers view:\n%s", out)
	}
}
