package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adminui/sysdash/internal/client"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{8 * 1024 * 1024 * 1024, "8.0 GiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "0m", FormatUptime(30))
	assert.Equal(t, "5m", FormatUptime(300))
	assert.Equal(t, "2h 0m", FormatUptime(7200))
	assert.Equal(t, "1d 1h 1m", FormatUptime(86400+3600+60))
}

func TestViewStates(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Contains(t, Model{Loading: true}.View(100, now), "Loading")
	assert.Contains(t, Model{}.View(100, now), "No data yet")
	assert.Contains(t, Model{Err: "HTTP 500"}.View(100, now), "HTTP 500")

	m := Model{
		Status: &client.SystemStatus{
			Hostname: "web-01",
			CPU:      client.CPUStatus{Percent: 42, Count: 8},
			Memory:   client.MemoryStatus{Total: 16 << 30, Used: 4 << 30, Percent: 25},
			Disk:     []client.DiskStatus{{Device: "/dev/sda1", Mountpoint: "/", Fstype: "ext4", Total: 100 << 30, Used: 50 << 30, Percent: 50}},
			Uptime:   3600,
		},
		FetchedAt: now.Add(-2 * time.Second),
	}
	v := m.View(100, now)
	for _, want := range []string{"web-01", "1h 0m", "8 cores", "4.0 GiB / 16.0 GiB", "/dev/sda1", "ext4", "updated 2s ago"} {
		assert.Contains(t, v, want)
	}
}
