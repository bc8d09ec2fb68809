package logs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelection(t *testing.T) {
	m := New([]string{"nginx", "sshd", "redis"}, []string{"nginx", "redis"})
	assert.Equal(t, "nginx", m.Selected())
	assert.True(t, m.CanRestart())

	m.Next()
	assert.Equal(t, "sshd", m.Selected())
	assert.False(t, m.CanRestart())

	m.Prev()
	m.Prev()
	assert.Equal(t, "redis", m.Selected())
}

func TestSwitchingServiceDropsLines(t *testing.T) {
	m := New([]string{"nginx", "sshd"}, nil)
	m.SetLines([]string{"a", "b"}, time.Now())
	m.Err = "boom"
	m.Next()
	assert.Empty(t, m.Lines)
	assert.Empty(t, m.Err)
}

func TestEmptyServices(t *testing.T) {
	m := New(nil, nil)
	assert.Equal(t, "", m.Selected())
	m.Next()
	assert.Contains(t, m.View(), "No services configured")
}

func TestViewShowsLines(t *testing.T) {
	m := New([]string{"nginx"}, []string{"nginx"})
	m.SetSize(100, 30)
	m.SetLines([]string{"GET / 200", "GET /health 200"}, time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC))

	v := m.View()
	assert.Contains(t, v, "GET /health 200")
	assert.Contains(t, v, "2 lines")
	assert.Contains(t, v, "09:30:00")
	assert.Contains(t, v, "R:restart nginx")
}

func TestConfirm(t *testing.T) {
	assert.Contains(t, Confirm("redis"), "redis")
}
