package tui

import (
	"time"

	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/refresh"
	"deadlock-tracker/internal/service"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

type Session = refresh.Session[*service.Leaderboard]

type PanelSnapshot = refresh.Snapshot[*service.Leaderboard]

// Panel pairs a panel definition with its refresh session.
type Panel struct {
	Definition config.PanelDefinition
	Session    *Session
}

// PanelsFromRegistry lists the registry's panels in definition order.
func PanelsFromRegistry(reg *service.PanelRegistry) []Panel {
	defs := reg.Definitions()
	out := make([]Panel, 0, len(defs))
	for _, def := range defs {
		if s, ok := reg.Get(def.Key); ok {
			out = append(out, Panel{Definition: def, Session: s})
		}
	}
	return out
}

type Options struct {
	NoColor      bool
	TickInterval time.Duration
	Logger       zerolog.Logger
}

// Model renders the leaderboard panels and their refresh progress.
type Model struct {
	panels       []Panel
	snapshots    []PanelSnapshot
	presets      []int
	focus        int
	table        table.Model
	bar          progress.Model
	tickInterval time.Duration
	now          time.Time
	width        int
	noColor      bool
	status       string
	logger       zerolog.Logger
}

func NewModel(panels []Panel, opts Options) Model {
	tickInterval := opts.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}
	t := table.New(
		table.WithColumns(columnsForWidth(0)),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
	)
	t.SetStyles(tableStyles(opts.NoColor))

	barOpts := []progress.Option{progress.WithoutPercentage(), progress.WithWidth(40)}
	if opts.NoColor {
		barOpts = append(barOpts, progress.WithSolidFill("7"))
	} else {
		barOpts = append(barOpts, progress.WithDefaultGradient())
	}

	m := Model{
		panels:       panels,
		snapshots:    make([]PanelSnapshot, len(panels)),
		presets:      make([]int, len(panels)),
		table:        t,
		bar:          progress.New(barOpts...),
		tickInterval: tickInterval,
		now:          time.Now(),
		noColor:      opts.NoColor,
		logger:       opts.Logger,
	}
	return m.refreshSnapshots()
}

func (m Model) Init() tea.Cmd {
	return tick(m.tickInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-6, 1))
		m.table.SetColumns(columnsForWidth(typed.Width))
		m.bar.Width = max(min(typed.Width-24, 60), 10)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	case tickMsg:
		m.now = time.Time(typed)
		return m.refreshSnapshots(), tick(m.tickInterval)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "right", "l":
		if len(m.panels) > 0 {
			m.focus = (m.focus + 1) % len(m.panels)
		}
	case "shift+tab", "left", "h":
		if len(m.panels) > 0 {
			m.focus = (m.focus - 1 + len(m.panels)) % len(m.panels)
		}
	case "r":
		m = m.refreshFocused()
	case "f":
		m = m.cycleFilters()
	case "up", "k", "down", "j", "pgup", "pgdown":
		var cmd tea.Cmd
		m.table.Focus()
		m.table, cmd = m.table.Update(msg)
		m.table.Blur()
		return m, cmd
	}
	return m.refreshSnapshots(), nil
}

func (m Model) focused() (Panel, bool) {
	if m.focus < 0 || m.focus >= len(m.panels) {
		return Panel{}, false
	}
	return m.panels[m.focus], true
}

func (m Model) refreshFocused() Model {
	p, ok := m.focused()
	if !ok {
		return m
	}
	if err := p.Session.Refresh(); err != nil {
		m.status = "refresh failed: " + err.Error()
		m.logger.Warn().Err(err).Str("panel", p.Definition.Key).Msg("refresh failed")
		return m
	}
	m.status = "refreshing " + p.Definition.Title
	return m
}

func (m Model) cycleFilters() Model {
	p, ok := m.focused()
	if !ok {
		return m
	}
	next := (m.presets[m.focus] + 1) % len(presets)
	preset := presets[next]
	changed, err := p.Session.SetFilters(preset.Range(m.now))
	if err != nil {
		m.status = "filter failed: " + err.Error()
		m.logger.Warn().Err(err).Str("panel", p.Definition.Key).Msg("filter change failed")
		return m
	}
	m.presets[m.focus] = next
	m.status = p.Definition.Title + ": " + preset.Label
	m.logger.Info().Str("panel", p.Definition.Key).Str("preset", preset.Label).Bool("changed", changed).Msg("filters applied")
	return m
}

// refreshSnapshots advances every session to m.now and rebuilds the table for
// the focused panel.
func (m Model) refreshSnapshots() Model {
	for i, p := range m.panels {
		m.snapshots[i] = p.Session.Tick(m.now)
	}
	if snap, ok := m.focusedSnapshot(); ok && snap.HasData {
		m.table.SetRows(rowsForLeaderboard(snap.Data))
	} else {
		m.table.SetRows([]table.Row{})
	}
	return m
}

func (m Model) focusedSnapshot() (PanelSnapshot, bool) {
	if m.focus < 0 || m.focus >= len(m.snapshots) {
		return PanelSnapshot{}, false
	}
	return m.snapshots[m.focus], true
}

func (m Model) View() string {
	if len(m.panels) == 0 {
		return stylize("No panels configured.", m.noColor, lipgloss.Color("244")) + "\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		renderTabs(m),
		renderPanelLine(m),
		renderProgress(m),
		m.table.View(),
		renderFooter(m),
	)
}

// tickMsg carries a frame tick.
type tickMsg time.Time

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}
