// Package theme provides the Lip Gloss color palette and reusable styles
// for the sysdash TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Severity colors for CPU and memory usage.
var (
	ColorLow    = lipgloss.Color("#22c55e")
	ColorMedium = lipgloss.Color("#d97706")
	ColorHigh   = lipgloss.Color("#dc2626")
)

// Process state colors.
var (
	ColorRunning  = lipgloss.Color("#3b82f6")
	ColorSleeping = lipgloss.Color("#6b7280")
	ColorZombie   = lipgloss.Color("#a855f7")
	ColorStopped  = lipgloss.Color("#854d0e")
)

// Status line colors.
var (
	ColorInfo    = lipgloss.Color("#06b6d4")
	ColorSuccess = lipgloss.Color("#16a34a")
	ColorError   = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorAccent  = lipgloss.Color("#7c3aed")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// SeverityColor returns the color for a tier name ("low", "medium", "high").
func SeverityColor(tier string) lipgloss.Color {
	switch tier {
	case "high":
		return ColorHigh
	case "medium":
		return ColorMedium
	default:
		return ColorLow
	}
}

// StateColor returns the color for a ps-style state code.
func StateColor(state string) lipgloss.Color {
	if state == "" {
		return ColorDimmed
	}
	switch state[0] {
	case 'R', 'r':
		return ColorRunning
	case 'S', 's', 'I', 'D':
		return ColorSleeping
	case 'Z', 'z':
		return ColorZombie
	case 'T', 't':
		return ColorStopped
	default:
		return ColorDimmed
	}
}

// UsageBarColor returns the color for a 0-100 usage percentage, using the
// same bands as process severity.
func UsageBarColor(pct float64) lipgloss.Color {
	switch {
	case pct >= 50:
		return ColorHigh
	case pct >= 10:
		return ColorMedium
	default:
		return ColorLow
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
		Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
		Foreground(ColorError)
)
