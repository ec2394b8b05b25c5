package tui

import (
	"fmt"
	"strconv"
	"strings"

	"deadlock-tracker/internal/ranking"
	"deadlock-tracker/internal/service"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		return styles
	}
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229"))
	return styles
}

func columnsForWidth(width int) []table.Column {
	name := 18
	if width > 80 {
		name = min(width-62, 32)
	}
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Name", Width: name},
		{Title: "Win %", Width: 8},
		{Title: "Matches", Width: 10},
		{Title: "Pick %", Width: 8},
		{Title: "WR #", Width: 6},
	}
}

func rowsForLeaderboard(lb *service.Leaderboard) []table.Row {
	if lb == nil {
		return []table.Row{}
	}
	rows := make([]table.Row, 0, len(lb.Entries))
	for _, e := range lb.Entries {
		wr := "-"
		if e.WinrateRank != nil {
			wr = strconv.Itoa(*e.WinrateRank)
		} else if lb.Mode == ranking.ModeWinrate {
			wr = strconv.Itoa(e.Rank)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(e.Rank),
			e.Name,
			formatPercent(e.Winrate),
			strconv.FormatInt(e.Matches, 10),
			formatPercent(e.PickRate),
			wr,
		})
	}
	return rows
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func renderTabs(m Model) string {
	parts := make([]string, len(m.panels))
	for i, p := range m.panels {
		label := " " + p.Definition.Title + " "
		if i == m.focus {
			parts[i] = stylizeStyle(label, m.noColor, lipgloss.NewStyle().Bold(true).Reverse(true))
		} else {
			parts[i] = stylize(label, m.noColor, lipgloss.Color("244"))
		}
	}
	return strings.Join(parts, " ")
}

func renderPanelLine(m Model) string {
	snap, ok := m.focusedSnapshot()
	if !ok {
		return ""
	}
	line := "Filters: " + presets[m.presets[m.focus]].Label + " | " + snap.Phase.String()
	if snap.HasData && snap.Data != nil {
		line += " | " + strconv.FormatInt(snap.Data.TotalMatches, 10) + " matches"
	}
	if snap.UpdatedAt != nil {
		line += " | updated " + snap.UpdatedAt.Local().Format("15:04:05")
	}
	return stylize(line, m.noColor, lipgloss.Color("33"))
}

func renderProgress(m Model) string {
	snap, ok := m.focusedSnapshot()
	if !ok || !snap.IsRefreshing {
		return ""
	}
	return m.bar.ViewAs(snap.Progress/100) + fmt.Sprintf(" %3.0f%%", snap.Progress)
}

func renderFooter(m Model) string {
	var lines []string
	if snap, ok := m.focusedSnapshot(); ok && snap.Error != "" {
		lines = append(lines, stylize("Error: "+snap.Error, m.noColor, lipgloss.Color("196")))
	}
	help := "tab: next panel | r: refresh | f: date range | q: quit"
	if m.status != "" {
		help = m.status + " | " + help
	}
	lines = append(lines, stylize(help, m.noColor, lipgloss.Color("240")))
	return strings.Join(lines, "\n")
}

func stylize(text string, noColor bool, color lipgloss.Color) string {
	return stylizeStyle(text, noColor, lipgloss.NewStyle().Foreground(color))
}

func stylizeStyle(text string, noColor bool, style lipgloss.Style) string {
	if noColor {
		return text
	}
	return style.Render(text)
}
