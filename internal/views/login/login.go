// Package login renders the sign-in form.
package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/adminui/sysdash/internal/theme"
)

// Model is the email/password form.
type Model struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	// Busy is set while a login request is in flight.
	Busy bool
	// Err is the last failure, shown under the form.
	Err string
	// Notice is an informational line, e.g. after the session expired.
	Notice string
}

// New creates an empty form focused on the email field.
func New() Model {
	email := textinput.New()
	email.Placeholder = "admin@example.com"
	email.Prompt = "Email:    "
	email.CharLimit = 254
	email.Width = 32
	email.Focus()

	pw := textinput.New()
	pw.Prompt = "Password: "
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 128
	pw.Width = 32

	return Model{email: email, password: pw}
}

// Credentials returns the trimmed email and the raw password.
func (m Model) Credentials() (email, password string) {
	return strings.TrimSpace(m.email.Value()), m.password.Value()
}

// Ready reports whether both fields are filled.
func (m Model) Ready() bool {
	email, pw := m.Credentials()
	return email != "" && pw != ""
}

// NextField moves focus between email and password.
func (m *Model) NextField() tea.Cmd {
	m.focus = (m.focus + 1) % 2
	if m.focus == 0 {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

// OnPassword reports whether the password field has focus.
func (m Model) OnPassword() bool {
	return m.focus == 1
}

// Reset clears the password, keeping the email for convenience.
func (m *Model) Reset() {
	m.password.SetValue("")
	m.Busy = false
	if m.focus == 1 {
		m.NextField()
	}
}

// Update forwards typing to the focused field.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// View renders the form centered in width x height.
func (m Model) View(baseURL string, width, height int) string {
	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render("sysdash: sign in") + "\n")
	b.WriteString(theme.StyleDimmed.Render(baseURL) + "\n\n")
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n\n")

	switch {
	case m.Busy:
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorInfo).Render("Signing in...") + "\n")
	case m.Err != "":
		b.WriteString(theme.StyleError.Render(m.Err) + "\n")
	case m.Notice != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(m.Notice) + "\n")
	}
	b.WriteString(theme.StyleDimmed.Render("tab:switch field  enter:sign in  ctrl+c:quit"))

	panel := theme.StyleBorder.Padding(1, 2).Render(b.String())
	if width == 0 || height == 0 {
		return panel
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}
