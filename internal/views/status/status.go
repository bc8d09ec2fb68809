package status

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Username    string
	Role        string
	AutoRefresh bool
	Interval    time.Duration
	Loading     bool
	Pagination  string
	Status      processes.Status
	Now         time.Time
	Width       int
}

// New creates a status bar model.
func New() Model {
	return Model{}
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")

	user := theme.StyleDimmed.Render("not signed in")
	if m.Username != "" {
		user = lipgloss.NewStyle().Foreground(theme.ColorBright).Render(m.Username)
		if m.Role != "" {
			user += theme.StyleDimmed.Render(" (" + m.Role + ")")
		}
	}

	var refresh string
	if m.AutoRefresh {
		refresh = lipgloss.NewStyle().Foreground(theme.ColorHealthy).
			Render(fmt.Sprintf("● Auto-refresh %s", m.Interval))
	} else {
		refresh = theme.StyleDimmed.Render("○ Auto-refresh off")
	}

	content := user + sep + refresh
	if m.Pagination != "" {
		content += sep + "Showing " + m.Pagination
	}
	if m.Loading {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorInfo).Render("loading…")
	}
	if msg := m.statusLine(); msg != "" {
		content += sep + msg
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) statusLine() string {
	if m.Status.Expired(m.Now) {
		return ""
	}
	var color lipgloss.Color
	switch m.Status.Kind {
	case processes.StatusOK:
		color = theme.ColorSuccess
	case processes.StatusError:
		color = theme.ColorError
	default:
		color = theme.ColorInfo
	}
	return lipgloss.NewStyle().Foreground(color).Render(m.Status.Message)
}
