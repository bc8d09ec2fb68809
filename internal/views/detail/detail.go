// Package detail renders the process info flyout overlay.
package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/theme"
)

const (
	panelWidth = 72
	barWidth   = 20
	labelWidth = 14
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)
)

// Model holds the state for the detail overlay.
type Model struct {
	Process *client.ProcessRecord
	// Err is shown instead of the process when the lookup failed.
	Err error
	Now time.Time
}

// New creates a detail model for the given process.
func New(p client.ProcessRecord, now time.Time) Model {
	return Model{Process: &p, Now: now}
}

// NotFound creates a detail model reporting a failed lookup.
func NotFound(err error) Model {
	return Model{Err: err}
}

// View renders the detail panel. Returns an empty string if nothing is set.
func (m Model) View() string {
	if m.Err != nil {
		inner := styleTitle.Render("Process detail") + "\n" +
			theme.StyleError.Render(m.Err.Error()) + "\n\n" +
			styleFooter.Render("[esc] close")
		return stylePanel.Width(panelWidth).Render(inner)
	}
	if m.Process == nil {
		return ""
	}
	return stylePanel.Width(panelWidth).Render(m.renderInner(*m.Process))
}

func (m Model) renderInner(p client.ProcessRecord) string {
	var b strings.Builder

	b.WriteString(styleTitle.Render(fmt.Sprintf("Process %d: %s", p.PID, processes.SanitizeCommand(p.Name))) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "PID", fmt.Sprintf("%d", p.PID))
	writeRow(&b, "User", processes.SanitizeCommand(p.User))
	writeRow(&b, "State", lipgloss.NewStyle().Foreground(theme.StateColor(p.State)).Render(p.State))

	b.WriteString("\n")

	writeRow(&b, "CPU", usage(p.CPUPercent))
	writeRow(&b, "Memory", usage(p.MemoryPercent))
	if p.MemoryRSSMB != nil {
		writeRow(&b, "RSS", fmt.Sprintf("%.1f MB", *p.MemoryRSSMB))
	}

	b.WriteString("\n")

	writeRow(&b, "Started", processes.RelativeTime(p.StartedAt, m.Now))
	if p.Time != "" {
		writeRow(&b, "CPU Time", p.Time)
	}

	b.WriteString("\n")
	b.WriteString(styleLabel.Render("Command:") + "\n")
	for _, line := range wrap(processes.SanitizeCommand(p.Command), panelWidth-6) {
		b.WriteString("  " + styleValue.Render(line) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styleFooter.Render("[esc] close"))
	return b.String()
}

func usage(pct float64) string {
	tier := processes.Severity(pct)
	color := theme.SeverityColor(tier.String())
	return renderBar(pct/100, barWidth, color) + " " +
		lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%.1f%% (%s)", pct, tier))
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}

func renderBar(pct float64, width int, color lipgloss.Color) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	filled := int(pct * float64(width))
	empty := width - filled
	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

// wrap splits s into lines of at most width runes.
func wrap(s string, width int) []string {
	if s == "" {
		return []string{"-"}
	}
	r := []rune(s)
	var lines []string
	for len(r) > width {
		lines = append(lines, string(r[:width]))
		r = r[width:]
	}
	return append(lines, string(r))
}
