// Package filterbar shows the active process filters and the inline editor
// used to change one of them.
package filterbar

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/processes"
	"github.com/adminui/sysdash/internal/theme"
)

// Model is the filter bar.
type Model struct {
	input  textinput.Model
	field  processes.Field
	active bool
	// Err is the last validation message; cleared when editing starts.
	Err string
}

// New creates an idle filter bar.
func New() Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 24
	return Model{input: ti}
}

// Editing reports whether the inline editor has focus.
func (m Model) Editing() bool {
	return m.active
}

// Field returns the field being edited.
func (m Model) Field() processes.Field {
	return m.field
}

// Value returns the raw editor contents.
func (m Model) Value() string {
	return m.input.Value()
}

// Begin opens the editor for field, prefilled with its current value.
func (m *Model) Begin(field processes.Field, f processes.FilterState) tea.Cmd {
	m.field = field
	m.active = true
	m.Err = ""
	m.input.Prompt = label(field) + ": "
	m.input.Placeholder = placeholder(field)
	m.input.SetValue(current(field, f))
	m.input.CursorEnd()
	return m.input.Focus()
}

// End closes the editor.
func (m *Model) End() {
	m.active = false
	m.input.Blur()
}

// Update forwards typing to the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.active {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the filters and, while editing, the editor.
func (m Model) View(f processes.FilterState) string {
	key := theme.StyleDimmed
	val := lipgloss.NewStyle().Foreground(theme.ColorBright)

	user := "any"
	if f.User != "" {
		user = f.User
	}
	line := key.Render("sort ") + val.Render(string(f.SortBy)) + "  " +
		key.Render("user ") + val.Render(user) + "  " +
		key.Render("cpu≥ ") + val.Render(formatPct(f.MinCPU)) + "  " +
		key.Render("mem≥ ") + val.Render(formatPct(f.MinMem)) + "  " +
		key.Render("limit ") + val.Render(strconv.Itoa(f.Limit))

	if m.active {
		line += "   " + m.input.View()
	}
	if m.Err != "" {
		line += "   " + theme.StyleError.Render(m.Err)
	}
	return " " + line
}

func label(field processes.Field) string {
	switch field {
	case processes.FieldUser:
		return "user"
	case processes.FieldMinCPU:
		return "min cpu %"
	case processes.FieldMinMem:
		return "min mem %"
	case processes.FieldLimit:
		return "limit"
	default:
		return field.String()
	}
}

func placeholder(field processes.Field) string {
	switch field {
	case processes.FieldUser:
		return "username (empty = all)"
	case processes.FieldMinCPU, processes.FieldMinMem:
		return "0-100"
	case processes.FieldLimit:
		return fmt.Sprintf("%d-%d", processes.MinLimit, processes.MaxLimit)
	default:
		return ""
	}
}

func current(field processes.Field, f processes.FilterState) string {
	switch field {
	case processes.FieldUser:
		return f.User
	case processes.FieldMinCPU:
		return pctValue(f.MinCPU)
	case processes.FieldMinMem:
		return pctValue(f.MinMem)
	case processes.FieldLimit:
		return strconv.Itoa(f.Limit)
	case processes.FieldSortBy:
		return string(f.SortBy)
	default:
		return ""
	}
}

func pctValue(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPct(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
