// Package logs renders the service log tail and the restart confirmation.
package logs

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/theme"
)

// DefaultLines is how many log lines are requested per fetch.
const DefaultLines = 100

const chrome = 8

// Model is the log screen state.
type Model struct {
	// Services lists the services whose logs can be tailed.
	Services []string
	// Restartable is the subset that can be restarted.
	Restartable []string
	selected    int

	Lines     []string
	Err       string
	Loading   bool
	FetchedAt time.Time

	vp viewport.Model
}

// New creates a log screen for the given services.
func New(services, restartable []string) Model {
	return Model{
		Services:    services,
		Restartable: restartable,
		vp:          viewport.New(80, 10),
	}
}

// Selected returns the highlighted service, or "" when none are configured.
func (m Model) Selected() string {
	if len(m.Services) == 0 {
		return ""
	}
	return m.Services[m.selected]
}

// CanRestart reports whether the selected service is allow-listed for restart.
func (m Model) CanRestart() bool {
	sel := m.Selected()
	for _, s := range m.Restartable {
		if s == sel {
			return true
		}
	}
	return false
}

// Next selects the following service and drops the lines of the previous one.
func (m *Model) Next() {
	if len(m.Services) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.Services)
	m.clear()
}

// Prev selects the preceding service.
func (m *Model) Prev() {
	if len(m.Services) == 0 {
		return
	}
	m.selected = (m.selected - 1 + len(m.Services)) % len(m.Services)
	m.clear()
}

func (m *Model) clear() {
	m.Lines = nil
	m.Err = ""
	m.vp.SetContent("")
}

// SetLines replaces the tail and scrolls to the newest line.
func (m *Model) SetLines(lines []string, at time.Time) {
	m.Lines = lines
	m.Err = ""
	m.Loading = false
	m.FetchedAt = at
	clean := make([]string, len(lines))
	for i, l := range lines {
		clean[i] = processes.SanitizeCommand(l)
	}
	m.vp.SetContent(strings.Join(clean, "\n"))
	m.vp.GotoBottom()
}

// SetSize fits the viewport to the terminal.
func (m *Model) SetSize(width, height int) {
	h := height - chrome
	if h < 3 {
		h = 3
	}
	m.vp.Width = width - 2
	m.vp.Height = h
}

// ScrollUp moves the viewport toward older lines.
func (m *Model) ScrollUp(n int) { m.vp.LineUp(n) }

// ScrollDown moves the viewport toward newer lines.
func (m *Model) ScrollDown(n int) { m.vp.LineDown(n) }

// View renders the tab strip and the tail.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render(" LOGS ") + " " + m.tabs() + "\n\n")

	switch {
	case len(m.Services) == 0:
		b.WriteString(theme.StyleDimmed.Render(" No services configured."))
		return b.String()
	case m.Err != "":
		b.WriteString(" " + theme.StyleError.Render(m.Err) + "\n")
	case m.Loading && len(m.Lines) == 0:
		b.WriteString(theme.StyleDimmed.Render(" Loading logs...") + "\n")
	case len(m.Lines) == 0:
		b.WriteString(theme.StyleDimmed.Render(" No log lines.") + "\n")
	default:
		b.WriteString(m.vp.View() + "\n")
	}

	footer := fmt.Sprintf(" %d lines", len(m.Lines))
	if !m.FetchedAt.IsZero() {
		footer += "  fetched " + m.FetchedAt.Format("15:04:05")
	}
	if m.CanRestart() {
		footer += "  R:restart " + m.Selected()
	}
	b.WriteString(theme.StyleDimmed.Render(footer))
	return b.String()
}

func (m Model) tabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).Background(theme.ColorAccent).Padding(0, 1)
	idle := lipgloss.NewStyle().Foreground(theme.ColorDimmed).Padding(0, 1)
	parts := make([]string, len(m.Services))
	for i, s := range m.Services {
		if i == m.selected {
			parts[i] = active.Render(s)
		} else {
			parts[i] = idle.Render(s)
		}
	}
	return strings.Join(parts, "")
}

// Confirm renders the restart confirmation dialog.
func Confirm(service string) string {
	inner := theme.StyleHeader.Render("Restart service") + "\n\n" +
		"Restart " + lipgloss.NewStyle().Foreground(theme.ColorWarning).Bold(true).Render(service) + "?\n\n" +
		theme.StyleDimmed.Render("[y] restart  [n/esc] cancel")
	return theme.StyleBorder.Padding(1, 2).Render(inner)
}
