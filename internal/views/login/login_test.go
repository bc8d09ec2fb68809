package login

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestCredentialsFlow(t *testing.T) {
	m := New()
	assert.False(t, m.Ready())

	m = typeText(m, " admin@example.com ")
	m.NextField()
	assert.True(t, m.OnPassword())
	m = typeText(m, "admin123")

	email, pw := m.Credentials()
	assert.Equal(t, "admin@example.com", email)
	assert.Equal(t, "admin123", pw)
	assert.True(t, m.Ready())
}

func TestResetKeepsEmail(t *testing.T) {
	m := New()
	m = typeText(m, "viewer@example.com")
	m.NextField()
	m = typeText(m, "secret")
	m.Busy = true

	m.Reset()
	email, pw := m.Credentials()
	assert.Equal(t, "viewer@example.com", email)
	assert.Empty(t, pw)
	assert.False(t, m.Busy)
	assert.False(t, m.OnPassword())
}

func TestViewHidesPassword(t *testing.T) {
	m := New()
	m.NextField()
	m = typeText(m, "hunter2")
	m.Err = "Invalid credentials"

	v := m.View("http://localhost:3000", 0, 0)
	assert.NotContains(t, v, "hunter2")
	assert.Contains(t, v, "Invalid credentials")
	assert.Contains(t, v, "http://localhost:3000")
}
