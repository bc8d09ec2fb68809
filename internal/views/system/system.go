// Package system renders the host overview: CPU, memory, disks and uptime.
package system

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/theme"
)

const barWidth = 30

// Model holds the last fetched system status.
type Model struct {
	Status  *client.SystemStatus
	Err     string
	Loading bool
	// FetchedAt is when Status arrived.
	FetchedAt time.Time
}

// View renders the overview.
func (m Model) View(width int, now time.Time) string {
	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render(" SYSTEM ") + "\n\n")

	if m.Err != "" {
		b.WriteString(" " + theme.StyleError.Render(m.Err) + "\n\n")
	}
	if m.Status == nil {
		if m.Loading {
			b.WriteString(theme.StyleDimmed.Render(" Loading system status..."))
		} else if m.Err == "" {
			b.WriteString(theme.StyleDimmed.Render(" No data yet. Press r to refresh."))
		}
		return b.String()
	}

	s := m.Status
	if s.Hostname != "" {
		row(&b, "Host", s.Hostname)
	}
	row(&b, "Uptime", FormatUptime(s.Uptime))
	if len(s.LoadAvg) > 0 {
		parts := make([]string, len(s.LoadAvg))
		for i, l := range s.LoadAvg {
			parts[i] = fmt.Sprintf("%.2f", l)
		}
		row(&b, "Load", strings.Join(parts, " "))
	}
	b.WriteString("\n")
	row(&b, "CPU", bar(s.CPU.Percent)+fmt.Sprintf(" %.1f%% of %d cores", s.CPU.Percent, s.CPU.Count))
	row(&b, "Memory", bar(s.Memory.Percent)+fmt.Sprintf(" %.1f%% (%s / %s)",
		s.Memory.Percent, FormatBytes(s.Memory.Used), FormatBytes(s.Memory.Total)))
	b.WriteString("\n")

	if len(s.Disk) > 0 {
		b.WriteString(diskTable(s.Disk, width) + "\n")
	}
	if !m.FetchedAt.IsZero() {
		age := now.Sub(m.FetchedAt).Truncate(time.Second)
		b.WriteString(theme.StyleDimmed.Render(fmt.Sprintf(" updated %s ago", age)))
	}
	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(" " + theme.StyleDimmed.Width(10).Render(label) + value + "\n")
}

func bar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * barWidth)
	return lipgloss.NewStyle().Foreground(theme.UsageBarColor(pct)).
		Render(strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled))
}

func diskTable(disks []client.DiskStatus, width int) string {
	mountW := 20
	if width > 80 {
		mountW = width - 60
	}
	cols := []table.Column{
		{Title: "Mount", Width: mountW},
		{Title: "Device", Width: 14},
		{Title: "FS", Width: 6},
		{Title: "Used", Width: 9},
		{Title: "Total", Width: 9},
		{Title: "Use%", Width: 6},
	}
	rows := make([]table.Row, len(disks))
	for i, d := range disks {
		rows[i] = table.Row{
			d.Mountpoint,
			d.Device,
			d.Fstype,
			FormatBytes(d.Used),
			FormatBytes(d.Total),
			fmt.Sprintf("%.1f", d.Percent),
		}
	}

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(len(rows)+2),
		table.WithStyles(s),
	)
	return t.View()
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatUptime renders seconds as "3d 4h 12m".
func FormatUptime(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}
