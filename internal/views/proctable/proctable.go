// Package proctable renders the process snapshot as a navigable table.
package proctable

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/theme"
)

const (
	colPID     = 8
	colUser    = 12
	colName    = 18
	colCPU     = 8
	colMem     = 8
	colState   = 6
	colStarted = 16
	minCommand = 20

	// chrome is the height used by everything around the table.
	chrome = 12
)

// Model wraps a bubbles table of processes.
type Model struct {
	table table.Model
	pids  []int
}

// New creates an empty, focused table.
func New() Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(theme.ColorBright).
		Background(theme.ColorAccent).
		Bold(true)
	t.SetStyles(s)

	return Model{table: t}
}

func columns(width int) []table.Column {
	fixed := colPID + colUser + colName + colCPU + colMem + colState + colStarted
	cmdWidth := width - fixed - 16
	if cmdWidth < minCommand {
		cmdWidth = minCommand
	}
	return []table.Column{
		{Title: "PID", Width: colPID},
		{Title: "User", Width: colUser},
		{Title: "Name", Width: colName},
		{Title: "CPU%", Width: colCPU},
		{Title: "MEM%", Width: colMem},
		{Title: "State", Width: colState},
		{Title: "Started", Width: colStarted},
		{Title: "Command", Width: cmdWidth},
	}
}

// SetSize resizes the table to the terminal.
func (m *Model) SetSize(width, height int) {
	m.table.SetColumns(columns(width))
	h := height - chrome
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
}

// SetProcesses replaces the rows. now anchors the relative start times.
func (m *Model) SetProcesses(procs []client.ProcessRecord, now time.Time) {
	rows := make([]table.Row, 0, len(procs))
	m.pids = make([]int, 0, len(procs))
	for _, p := range procs {
		rows = append(rows, Row(p, now))
		m.pids = append(m.pids, p.PID)
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Row renders one process. Usage cells are colored by severity.
func Row(p client.ProcessRecord, now time.Time) table.Row {
	return table.Row{
		strconv.Itoa(p.PID),
		processes.SanitizeCommand(p.User),
		processes.SanitizeCommand(p.Name),
		usageCell(p.CPUPercent),
		usageCell(p.MemoryPercent),
		p.State,
		processes.RelativeTime(p.StartedAt, now),
		processes.SanitizeCommand(p.Command),
	}
}

func usageCell(pct float64) string {
	tier := processes.Severity(pct)
	return lipgloss.NewStyle().Foreground(theme.SeverityColor(tier.String())).
		Render(fmt.Sprintf("%.1f", pct))
}

// SelectedPID returns the pid under the cursor.
func (m Model) SelectedPID() (int, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.pids) {
		return 0, false
	}
	return m.pids[c], true
}

// Len returns the number of rows.
func (m Model) Len() int {
	return len(m.pids)
}

// Update forwards navigation keys to the table.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table, or a placeholder when empty.
func (m Model) View(loaded bool) string {
	if len(m.pids) == 0 {
		msg := "  Loading processes..."
		if loaded {
			msg = "  No processes match the current filters"
		}
		return theme.StyleDimmed.Render(msg)
	}
	return m.table.View()
}

// StatsRow renders the summary counts above the table.
func StatsRow(s processes.Stats, width int) string {
	statStyle := lipgloss.NewStyle().Padding(0, 1)
	parts := []string{
		statStyle.Foreground(theme.ColorBright).Render(fmt.Sprintf("Total: %d", s.Total)),
		statStyle.Foreground(theme.ColorRunning).Render(fmt.Sprintf("Running: %d", s.Running)),
		statStyle.Foreground(theme.ColorSleeping).Render(fmt.Sprintf("Sleeping: %d", s.Sleeping)),
		statStyle.Foreground(theme.ColorDimmed).Render(fmt.Sprintf("Other: %d", s.Other)),
		statStyle.Foreground(theme.UsageBarColor(s.CPUSum)).Render(fmt.Sprintf("CPU: %.1f%%", s.CPUSum)),
		statStyle.Foreground(theme.UsageBarColor(s.MemSum)).Render(fmt.Sprintf("MEM: %.1f%%", s.MemSum)),
	}
	content := strings.Join(parts, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render("|"))
	if width < 40 {
		width = 40
	}
	return lipgloss.NewStyle().
		Width(width).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
