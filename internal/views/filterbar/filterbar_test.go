package filterbar

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/adminui/sysdash/internal/processes"
)

func TestBeginPrefillsCurrentValue(t *testing.T) {
	f := processes.DefaultFilters()
	f.MinCPU = 12.5

	m := New()
	m.Begin(processes.FieldMinCPU, f)
	assert.True(t, m.Editing())
	assert.Equal(t, processes.FieldMinCPU, m.Field())
	assert.Equal(t, "12.5", m.Value())

	m.Begin(processes.FieldUser, f)
	assert.Equal(t, "", m.Value())
}

func TestTypingUpdatesValue(t *testing.T) {
	m := New()
	m.Begin(processes.FieldUser, processes.DefaultFilters())
	for _, r := range "root" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	assert.Equal(t, "root", m.Value())

	m.End()
	assert.False(t, m.Editing())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, "root", m.Value(), "idle editor ignores keys")
}

func TestViewShowsFilters(t *testing.T) {
	f := processes.DefaultFilters()
	f.User = "www-data"
	f.MinMem = 5

	m := New()
	m.Err = "invalid user"
	v := m.View(f)
	assert.Contains(t, v, "cpu")
	assert.Contains(t, v, "www-data")
	assert.Contains(t, v, "5%")
	assert.Contains(t, v, "100")
	assert.Contains(t, v, "invalid user")
}
