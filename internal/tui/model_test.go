package tui

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/domain"
	"deadlock-tracker/internal/ranking"
	"deadlock-tracker/internal/refresh"
	"deadlock-tracker/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) Fetch(_ context.Context, filters domain.DateRange) (*service.Leaderboard, error) {
	f.calls.Add(1)
	return &service.Leaderboard{
		Entity:  domain.EntityHero,
		Mode:    ranking.ModeWinrate,
		Filters: filters,
		Entries: []service.LeaderboardRow{
			{JoinedEntry: ranking.JoinedEntry{RankedEntry: ranking.RankedEntry{Rank: 1, ID: 13, Wins: 8, Matches: 10, Winrate: 0.8}}, Name: "Haze", PickRate: 0.5},
			{JoinedEntry: ranking.JoinedEntry{RankedEntry: ranking.RankedEntry{Rank: 2, ID: 6, Wins: 4, Matches: 10, Winrate: 0.4}}, Name: "Abrams", PickRate: 0.5},
		},
		TotalMatches: 20,
	}, nil
}

func newTestModel(t *testing.T, n int) (Model, []*countingFetcher) {
	t.Helper()
	panels := make([]Panel, n)
	fetchers := make([]*countingFetcher, n)
	for i := range panels {
		f := &countingFetcher{}
		def := config.PanelDefinition{Key: "panel-" + string(rune('a'+i)), Title: "Panel " + string(rune('A'+i)), Entity: "hero", Mode: "winrate"}
		s := refresh.NewSession[*service.Leaderboard](def.Key, f.Fetch, zerolog.Nop())
		t.Cleanup(s.Close)
		if err := s.Start(domain.DateRange{}); err != nil {
			t.Fatalf("start: %v", err)
		}
		panels[i] = Panel{Definition: def, Session: s}
		fetchers[i] = f
	}
	return NewModel(panels, Options{NoColor: true, TickInterval: time.Millisecond, Logger: zerolog.Nop()}), fetchers
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func waitForData(t *testing.T, m Model) Model {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		m = update(t, m, tickMsg(time.Now()))
		if snap, ok := m.focusedSnapshot(); ok && snap.HasData {
			return m
		}
		if time.Now().After(deadline) {
			t.Fatalf("panel never loaded")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestModelRendersFocusedLeaderboard(t *testing.T) {
	m, _ := newTestModel(t, 2)
	m = waitForData(t, m)

	if rows := m.table.Rows(); len(rows) != 2 || rows[0][1] != "Haze" || rows[0][2] != "80.0%" {
		t.Fatalf("unexpected rows %v", rows)
	}
	view := m.View()
	if !strings.Contains(view, "Panel A") || !strings.Contains(view, "20 matches") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	if snap, _ := m.focusedSnapshot(); snap.IsRefreshing && renderProgress(m) == "" {
		t.Fatalf("expected a progress bar while the animation runs")
	}
}

func TestModelFocusWraps(t *testing.T) {
	m, _ := newTestModel(t, 3)
	m = update(t, m, key("tab"))
	m = update(t, m, key("tab"))
	m = update(t, m, key("tab"))
	if m.focus != 0 {
		t.Fatalf("expected focus to wrap to 0, got %d", m.focus)
	}
	m = update(t, m, key("shift+tab"))
	if m.focus != 2 {
		t.Fatalf("expected focus to wrap to 2, got %d", m.focus)
	}
}

func TestModelRefreshOnlyFocusedPanel(t *testing.T) {
	m, fetchers := newTestModel(t, 2)
	m = waitForData(t, m)
	m = update(t, m, key("tab"))
	m = update(t, m, key("r"))

	deadline := time.Now().Add(2 * time.Second)
	for fetchers[1].calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("focused panel was not refreshed")
		}
		time.Sleep(time.Millisecond)
	}
	if got := fetchers[0].calls.Load(); got != 1 {
		t.Fatalf("unfocused panel fetched %d times", got)
	}
}

func TestModelCyclesDateRangePresets(t *testing.T) {
	m, _ := newTestModel(t, 1)
	m = update(t, m, key("f"))

	filters := m.panels[0].Session.Snapshot().Filters
	if filters.MinUnixTimestamp == nil || filters.MaxUnixTimestamp != nil {
		t.Fatalf("expected a lower bound only, got %s", filters.Signature())
	}
	if !strings.Contains(m.View(), "last 7 days") {
		t.Fatalf("expected preset label in view:\n%s", m.View())
	}

	m = update(t, m, key("f"))
	m = update(t, m, key("f"))
	if !m.panels[0].Session.Snapshot().Filters.IsZero() {
		t.Fatalf("expected presets to cycle back to all time")
	}
}

func TestModelQuits(t *testing.T) {
	m, _ := newTestModel(t, 1)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatalf("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestPresetRangeTruncatesToHour(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 35, 0, 0, time.UTC)
	r := presets[1].Range(now)
	want := time.Date(2025, 3, 3, 14, 0, 0, 0, time.UTC).Unix()
	if r.MinUnixTimestamp == nil || *r.MinUnixTimestamp != want {
		t.Fatalf("unexpected range %s", r.Signature())
	}
	if !presets[0].Range(now).IsZero() {
		t.Fatalf("all time must be unbounded")
	}
}
