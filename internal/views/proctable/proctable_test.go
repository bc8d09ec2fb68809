package proctable

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adminui/sysdash/internal/client"
	"github.com/adminui/sysdash/internal/processes"
)

func sample() []client.ProcessRecord {
	return []client.ProcessRecord{
		{PID: 1, Name: "init", User: "root", Command: "/sbin/init", CPUPercent: 0.1, State: "S"},
		{PID: 42, Name: "nginx", User: "www-data", Command: "nginx: worker \x1b[31mprocess", CPUPercent: 55, State: "R"},
	}
}

func TestRowSanitizesCommand(t *testing.T) {
	now := time.Now()
	row := Row(sample()[1], now)
	assert.Equal(t, "42", row[0])
	assert.Equal(t, "nginx: worker process", row[7])
	assert.Equal(t, "-", row[6])
}

func TestSelectionFollowsCursor(t *testing.T) {
	m := New()
	m.SetSize(140, 40)
	m.SetProcesses(sample(), time.Now())
	require.Equal(t, 2, m.Len())

	pid, ok := m.SelectedPID()
	require.True(t, ok)
	assert.Equal(t, 1, pid)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	pid, ok = m.SelectedPID()
	require.True(t, ok)
	assert.Equal(t, 42, pid)
}

func TestCursorClampedWhenSnapshotShrinks(t *testing.T) {
	m := New()
	m.SetProcesses(sample(), time.Now())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})

	m.SetProcesses(sample()[:1], time.Now())
	pid, ok := m.SelectedPID()
	require.True(t, ok)
	assert.Equal(t, 1, pid)
}

func TestEmptyView(t *testing.T) {
	m := New()
	_, ok := m.SelectedPID()
	assert.False(t, ok)
	assert.Contains(t, m.View(false), "Loading processes")
	assert.Contains(t, m.View(true), "No processes match")
}

func TestStatsRow(t *testing.T) {
	v := StatsRow(processes.Stats{Total: 4, Running: 1, Sleeping: 2, Other: 1, CPUSum: 12.5, MemSum: 3}, 140)
	assert.Contains(t, v, "Total: 4")
	assert.Contains(t, v, "Running: 1")
	assert.Contains(t, v, "CPU: 12.5%")
}
