// Package client talks to the dashboard REST API. Types mirror the backend wire
// format without importing backend packages.
package client

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
}

// User is the identity returned by GET /api/auth/me.
type User struct {
	UserID      int      `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission reports whether the user was granted perm.
func (u User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// CPUStatus is the cpu block of the system status.
type CPUStatus struct {
	Percent float64 `json:"percent"`
	Count   int     `json:"count"`
}

// MemoryStatus is the memory block of the system status.
type MemoryStatus struct {
	Total     uint64  `json:"total"`
	Available uint64  `json:"available"`
	Used      uint64  `json:"used"`
	Percent   float64 `json:"percent"`
}

// DiskStatus describes one mounted filesystem.
type DiskStatus struct {
	Device     string  `json:"device"`
	Mountpoint string  `json:"mountpoint"`
	Fstype     string  `json:"fstype"`
	Total      uint64  `json:"total"`
	Used       uint64  `json:"used"`
	Free       uint64  `json:"free"`
	Percent    float64 `json:"percent"`
}

// SystemStatus is returned by GET /api/system/status.
type SystemStatus struct {
	Hostname  string       `json:"hostname,omitempty"`
	CPU       CPUStatus    `json:"cpu"`
	Memory    MemoryStatus `json:"memory"`
	Disk      []DiskStatus `json:"disk"`
	Uptime    float64      `json:"uptime"` // seconds
	LoadAvg   []float64    `json:"load_avg,omitempty"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
}

// RestartRequest is the body of POST /api/services/restart.
type RestartRequest struct {
	ServiceName string `json:"service_name"`
}

// RestartResult is returned by a service restart.
type RestartResult struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Before  string `json:"before"`
	After   string `json:"after"`
}

// LogsResponse is returned by GET /api/logs/{service}.
type LogsResponse struct {
	Status         string     `json:"status"`
	Service        string     `json:"service"`
	LinesRequested int        `json:"lines_requested"`
	LinesReturned  int        `json:"lines_returned"`
	Logs           []string   `json:"logs"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
}

// ProcessRecord is one row of a process snapshot.
type ProcessRecord struct {
	PID           int        `json:"pid"`
	Name          string     `json:"name"`
	User          string     `json:"user"`
	Command       string     `json:"command"`
	CPUPercent    float64    `json:"cpu_percent"`
	MemoryPercent float64    `json:"memory_percent"`
	MemoryRSSMB   *float64   `json:"memory_rss_mb,omitempty"`
	State         string     `json:"state"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	Time          string     `json:"time,omitempty"`
}

// UnmarshalJSON also accepts the older "mem_percent" and "stat" keys.
func (p *ProcessRecord) UnmarshalJSON(data []byte) error {
	type plain ProcessRecord
	aux := struct {
		*plain
		MemPercent *float64 `json:"mem_percent"`
		Stat       *string  `json:"stat"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.MemPercent != nil && p.MemoryPercent == 0 {
		p.MemoryPercent = *aux.MemPercent
	}
	if aux.Stat != nil && p.State == "" {
		p.State = *aux.Stat
	}
	return nil
}

// ProcessFilters echoes the filters the backend applied.
type ProcessFilters struct {
	User   string   `json:"user,omitempty"`
	MinCPU *float64 `json:"min_cpu,omitempty"`
	MinMem *float64 `json:"min_mem,omitempty"`
}

// ProcessSnapshot is the full response of one GET /api/processes.
type ProcessSnapshot struct {
	Processes         []ProcessRecord `json:"processes"`
	TotalCount        int             `json:"total_count"`
	ReturnedProcesses int             `json:"returned_processes"`
	TotalProcesses    int             `json:"total_processes"`
	SortBy            string          `json:"sort_by,omitempty"`
	Filters           *ProcessFilters `json:"filters,omitempty"`
	Timestamp         *time.Time      `json:"timestamp,omitempty"`

	// FetchedAt is set by the client when the response arrives.
	FetchedAt time.Time `json:"-"`
}

// ProcessQuery holds the query parameters for GET /api/processes.
type ProcessQuery struct {
	SortBy string
	Limit  int
	User   string
	MinCPU float64
	MinMem float64
}

// Encode renders q as a query string in a fixed order. sort_by and limit are
// always sent; the filters only when they narrow the result.
func (q ProcessQuery) Encode() string {
	var b strings.Builder
	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	add("sort_by", q.SortBy)
	add("limit", strconv.Itoa(q.Limit))
	if q.User != "" {
		add("user", q.User)
	}
	if q.MinCPU > 0 {
		add("min_cpu", strconv.FormatFloat(q.MinCPU, 'f', -1, 64))
	}
	if q.MinMem > 0 {
		add("min_mem", strconv.FormatFloat(q.MinMem, 'f', -1, 64))
	}
	return b.String()
}
