// Command tui explores the process map of a CSV event log interactively.
// The rates are adjusted from the keyboard and the map is rediscovered in
// the background after every change.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/procmap/pkg/aggregation"
	"github.com/dd0wney/procmap/pkg/eventlog"
	"github.com/dd0wney/procmap/pkg/graph"
	"github.com/dd0wney/procmap/pkg/logging"
	"github.com/dd0wney/procmap/pkg/processmap"
	"github.com/dd0wney/procmap/pkg/render"
	"github.com/dd0wney/procmap/pkg/transition"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	graphBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	dashboardView view = iota
	nodesView
	edgesView
	graphView
	viewCount
)

var tabs = []string{"Dashboard", "Nodes", "Edges", "Layers"}

// rateStep is how much one key press moves a rate
const rateStep = 5

type keyMap struct {
	Tab          key.Binding
	ShiftTab     key.Binding
	MoreActs     key.Binding
	FewerActs    key.Binding
	MorePaths    key.Binding
	FewerPaths   key.Binding
	Optimize     key.Binding
	Aggregate    key.Binding
	AggType      key.Binding
	Up           key.Binding
	Down         key.Binding
	Quit         key.Binding
	ToggleLegend key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	MoreActs: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "more activities"),
	),
	FewerActs: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "fewer activities"),
	),
	MorePaths: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "more paths"),
	),
	FewerPaths: key.NewBinding(
		key.WithKeys("-", "_"),
		key.WithHelp("-", "fewer paths"),
	),
	Optimize: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "optimize"),
	),
	Aggregate: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "toggle aggregation"),
	),
	AggType: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "aggregation type"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	ToggleLegend: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.MoreActs, k.FewerActs, k.MorePaths, k.FewerPaths, k.ToggleLegend, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.MoreActs, k.FewerActs, k.MorePaths, k.FewerPaths},
		{k.Optimize, k.Aggregate, k.AggType},
		{k.Up, k.Down, k.Quit},
	}
}

// updatedMsg carries the outcome of a background discovery. The view
// reads only this snapshot because Update holds the map while it runs.
type updatedMsg struct {
	summary  processmap.Summary
	settings processmap.Settings
	graph    *graph.Graph
	elapsed  time.Duration
	err      error
}

type model struct {
	pm          *processmap.ProcessMap
	currentView view
	nodeTable   table.Model
	edgeTable   table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	busy        bool
	message     string
	messageErr  bool
	summary     processmap.Summary
	settings    processmap.Settings
	graph       *graph.Graph
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func initialModel(pm *processmap.ProcessMap) model {
	return model{
		pm:          pm,
		currentView: dashboardView,
		nodeTable: newTable([]table.Column{
			{Title: "Node", Width: 24},
			{Title: "Abs", Width: 8},
			{Title: "Case", Width: 8},
			{Title: "Members", Width: 30},
		}),
		edgeTable: newTable([]table.Column{
			{Title: "From", Width: 20},
			{Title: "To", Width: 20},
			{Title: "Abs", Width: 8},
			{Title: "Case", Width: 8},
			{Title: "Kind", Width: 12},
		}),
		help:     help.New(),
		keys:     keys,
		busy:     true,
		settings: pm.Settings(),
	}
}

// discover reruns the pipeline off the UI goroutine
func discover(pm *processmap.ProcessMap) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		if err := pm.Update(); err != nil {
			return updatedMsg{err: err}
		}
		sum, err := pm.Summary()
		return updatedMsg{
			summary:  sum,
			settings: pm.Settings(),
			graph:    pm.Graph(),
			elapsed:  time.Since(start),
			err:      err,
		}
	}
}

func (m model) Init() tea.Cmd {
	return discover(m.pm)
}

func clamp(rate float64) float64 {
	return min(max(rate, 0), 100)
}

// change applies fn to the process map and rediscovers it. Changes made
// while a discovery is running are ignored.
func (m model) change(fn func(pm *processmap.ProcessMap) error) (model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if err := fn(m.pm); err != nil {
		m.message, m.messageErr = err.Error(), true
		return m, nil
	}
	m.busy = true
	m.message, m.messageErr = "Discovering...", false
	return m, discover(m.pm)
}

func (m model) shiftRates(dActs, dPaths float64) (model, tea.Cmd) {
	return m.change(func(pm *processmap.ProcessMap) error {
		r := pm.Rates()
		if err := pm.SetParams(processmap.WithOptimize(false)); err != nil {
			return err
		}
		return pm.SetRates(clamp(r.Activities+dActs), clamp(r.Paths+dPaths))
	})
}

func nextMode(mode aggregation.Mode) aggregation.Mode {
	switch mode {
	case aggregation.Outer:
		return aggregation.Inner
	case aggregation.Inner:
		return aggregation.Combine
	default:
		return aggregation.Outer
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case updatedMsg:
		m.busy = false
		if msg.err != nil {
			m.message, m.messageErr = msg.err.Error(), true
			return m, nil
		}
		m.summary, m.settings, m.graph = msg.summary, msg.settings, msg.graph
		m.message = fmt.Sprintf("Map discovered in %s", msg.elapsed.Round(time.Millisecond))
		m.messageErr = false
		m.refreshTables()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.currentView = (m.currentView + viewCount - 1) % viewCount
			return m, nil
		case key.Matches(msg, m.keys.ToggleLegend):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.MoreActs):
			return m.shiftRates(rateStep, 0)
		case key.Matches(msg, m.keys.FewerActs):
			return m.shiftRates(-rateStep, 0)
		case key.Matches(msg, m.keys.MorePaths):
			return m.shiftRates(0, rateStep)
		case key.Matches(msg, m.keys.FewerPaths):
			return m.shiftRates(0, -rateStep)
		case key.Matches(msg, m.keys.Optimize):
			return m.change(func(pm *processmap.ProcessMap) error {
				return pm.SetParams(processmap.WithOptimize(true))
			})
		case key.Matches(msg, m.keys.Aggregate):
			return m.change(func(pm *processmap.ProcessMap) error {
				s := pm.Settings()
				return pm.SetParams(processmap.WithOptimize(false), processmap.WithAggregate(!s.Aggregate))
			})
		case key.Matches(msg, m.keys.AggType):
			return m.change(func(pm *processmap.ProcessMap) error {
				s := pm.Settings()
				return pm.SetParams(processmap.WithOptimize(false), processmap.WithAggType(nextMode(s.AggType)))
			})
		}
	}

	// Update focused component
	switch m.currentView {
	case nodesView:
		m.nodeTable, cmd = m.nodeTable.Update(msg)
	case edgesView:
		m.edgeTable, cmd = m.edgeTable.Update(msg)
	}
	return m, cmd
}

func (m *model) refreshTables() {
	g := m.graph
	if g == nil {
		return
	}

	stats := g.Nodes()
	nodeRows := make([]table.Row, 0, len(stats))
	for _, n := range g.NodeList() {
		s := stats[n]
		nodeRows = append(nodeRows, table.Row{
			n.String(),
			strconv.Itoa(s.Abs),
			strconv.Itoa(s.Case),
			formatMembers(n, s),
		})
	}
	m.nodeTable.SetRows(nodeRows)

	repaired := make(map[transition.Pair]string)
	for _, a := range g.Repairs() {
		repaired[a.Pair] = "repair/" + a.Kind.String()
	}
	edges := g.Edges()
	edgeRows := make([]table.Row, 0, len(edges))
	for _, p := range g.EdgeList() {
		f := edges[p]
		kind := "observed"
		if f.Imaginary() {
			kind = "imaginary"
		}
		if k, ok := repaired[p]; ok {
			kind = k
		}
		edgeRows = append(edgeRows, table.Row{
			p.From.String(),
			p.To.String(),
			strconv.Itoa(f.Abs),
			strconv.Itoa(f.Case),
			kind,
		})
	}
	m.edgeTable.SetRows(edgeRows)
}

func formatMembers(n eventlog.Node, s graph.NodeStats) string {
	if !n.IsMetaState() {
		return ""
	}
	parts := make([]string, 0, n.Len())
	for _, member := range n.Members() {
		if f, ok := s.Members[member]; ok {
			parts = append(parts, fmt.Sprintf("%s: %d", member.Label(), f))
		} else {
			parts = append(parts, member.Label())
		}
	}
	return strings.Join(parts, ", ")
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("procmap - process map explorer"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case dashboardView:
		s.WriteString(m.renderDashboard())
	case nodesView:
		s.WriteString(m.renderTable("Nodes", m.nodeTable))
	case edgesView:
		s.WriteString(m.renderTable("Edges", m.edgeTable))
	case graphView:
		s.WriteString(m.renderLayers())
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m model) renderTabs() string {
	rendered := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		if view(i) == m.currentView {
			rendered = append(rendered, activeTabStyle.Render(tab))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) renderDashboard() string {
	sum := m.summary
	settings := m.settings

	aggregated := "off"
	if settings.Aggregate {
		aggregated = settings.AggType.String()
	}

	logContent := fmt.Sprintf(`Event log
━━━━━━━━━━━━━━━
Cases:       %d
Events:      %d
Activities:  %d

Rates
━━━━━━━━━━━━━━━
Activities:  %.4g%%
Paths:       %.4g%%
Optimized:   %v
Aggregation: %s`,
		sum.Cases,
		sum.Events,
		sum.Activities,
		sum.Rates.Activities,
		sum.Rates.Paths,
		settings.Optimize,
		aggregated,
	)

	mapContent := fmt.Sprintf(`Map
━━━━━━━━━━━━━━━
Nodes:       %d
Meta-states: %d
Edges:       %d
Imaginary:   %d
Repairs:     %d
Cycles:      %d

Replay
━━━━━━━━━━━━━━━
Fitness:     %.4f`,
		sum.Nodes,
		sum.MetaStates,
		sum.Edges,
		sum.Imaginary,
		sum.Repairs,
		sum.Cycles,
		sum.Fitness,
	)

	return contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(logContent),
		statsBoxStyle.Render(mapContent),
	))
}

func (m model) renderTable(title string, t table.Model) string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(title))
	s.WriteString("\n\n")
	s.WriteString(t.View())
	return contentStyle.Render(s.String())
}

func (m model) renderLayers() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("Layers from start"))
	s.WriteString("\n\n")

	g := m.graph
	if g == nil {
		s.WriteString(graphBoxStyle.Render("No map discovered yet"))
		return contentStyle.Render(s.String())
	}

	var layers strings.Builder
	for i, level := range render.Layers(g) {
		names := make([]string, len(level))
		for j, n := range level {
			names[j] = n.String()
		}
		if i > 0 {
			layers.WriteString("   │\n")
		}
		fmt.Fprintf(&layers, "%2d ◉ %s\n", i, strings.Join(names, "  "))
	}
	s.WriteString(graphBoxStyle.Render(strings.TrimRight(layers.String(), "\n")))
	return contentStyle.Render(s.String())
}

func main() {
	var (
		configPath = flag.String("config", "", "YAML settings file")
		logLevel   = flag.String("log-level", "error", "Log level written to tui.log")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tui [-config procmap.yaml] events.csv")
		os.Exit(2)
	}

	// The screen belongs to the TUI, so logs go to a file
	logFile, err := os.Create("tui.log")
	if err != nil {
		log.Fatalf("Failed to create log file: %v", err)
	}
	defer logFile.Close()
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}

	pm := processmap.NewWithConfig(processmap.Config{Logger: logging.NewJSONLogger(logFile, level)})
	if *configPath != "" {
		s, err := processmap.LoadSettings(*configPath)
		if err != nil {
			log.Fatalf("Failed to load settings: %v", err)
		}
		if err := pm.SetSettings(s); err != nil {
			log.Fatalf("Invalid settings: %v", err)
		}
	}
	if err := pm.LoadLog(flag.Arg(0)); err != nil {
		log.Fatalf("Failed to load event log: %v", err)
	}

	p := tea.NewProgram(initialModel(pm), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
