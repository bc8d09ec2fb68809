package devserver

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/adminui/sysdash/internal/client"
)

// Process is one listed process plus the cumulative CPU time used for
// sort_by=time.
type Process struct {
	client.ProcessRecord
	CPUTime time.Duration
}

// Source supplies the data the stub backend serves.
type Source interface {
	Processes(ctx context.Context) ([]Process, error)
	System(ctx context.Context) (client.SystemStatus, error)
}

// HostSource reads the local machine through gopsutil.
type HostSource struct{}

func (HostSource) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Exited between listing and inspection.
			continue
		}
		user, _ := p.UsernameWithContext(ctx)
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		cmdline, _ := p.CmdlineWithContext(ctx)
		if cmdline == "" {
			cmdline = name
		}

		rec := client.ProcessRecord{
			PID:           int(p.Pid),
			Name:          name,
			User:          user,
			Command:       cmdline,
			CPUPercent:    round1(cpuPct),
			MemoryPercent: round1(float64(memPct)),
		}
		if statuses, err := p.StatusWithContext(ctx); err == nil && len(statuses) > 0 {
			rec.State = stateCode(statuses[0])
		}
		if info, err := p.MemoryInfoWithContext(ctx); err == nil && info != nil {
			rss := round1(float64(info.RSS) / (1 << 20))
			rec.MemoryRSSMB = &rss
		}
		if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
			started := time.UnixMilli(ms)
			rec.StartedAt = &started
		}

		var cpuTime time.Duration
		if t, err := p.TimesWithContext(ctx); err == nil && t != nil {
			cpuTime = time.Duration((t.User + t.System) * float64(time.Second))
			rec.Time = formatCPUTime(cpuTime)
		}
		out = append(out, Process{ProcessRecord: rec, CPUTime: cpuTime})
	}
	return out, nil
}

func (HostSource) System(ctx context.Context) (client.SystemStatus, error) {
	var s client.SystemStatus

	if info, err := host.InfoWithContext(ctx); err == nil {
		s.Hostname = info.Hostname
		s.Uptime = float64(info.Uptime)
	}
	pct, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return s, fmt.Errorf("reading cpu: %w", err)
	}
	if len(pct) > 0 {
		s.CPU.Percent = round1(pct[0])
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.CPU.Count = n
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return s, fmt.Errorf("reading memory: %w", err)
	}
	s.Memory = client.MemoryStatus{
		Total:     vm.Total,
		Available: vm.Available,
		Used:      vm.Used,
		Percent:   round1(vm.UsedPercent),
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		s.LoadAvg = []float64{avg.Load1, avg.Load5, avg.Load15}
	}

	parts, err := disk.PartitionsWithContext(ctx, false)
	if err == nil {
		for _, part := range parts {
			u, err := disk.UsageWithContext(ctx, part.Mountpoint)
			if err != nil || u.Total == 0 {
				continue
			}
			s.Disk = append(s.Disk, client.DiskStatus{
				Device:     part.Device,
				Mountpoint: part.Mountpoint,
				Fstype:     part.Fstype,
				Total:      u.Total,
				Used:       u.Used,
				Free:       u.Free,
				Percent:    round1(u.UsedPercent),
			})
		}
	}

	now := time.Now()
	s.Timestamp = &now
	return s, nil
}

// StaticSource serves a fixed data set.
type StaticSource struct {
	Procs  []Process
	Status client.SystemStatus
	Err    error
}

func (s *StaticSource) Processes(context.Context) ([]Process, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]Process, len(s.Procs))
	copy(out, s.Procs)
	return out, nil
}

func (s *StaticSource) System(context.Context) (client.SystemStatus, error) {
	if s.Err != nil {
		return client.SystemStatus{}, s.Err
	}
	return s.Status, nil
}

// stateCode maps gopsutil status names to ps-style codes.
func stateCode(status string) string {
	switch status {
	case process.Running:
		return "R"
	case process.Sleep:
		return "S"
	case process.Stop:
		return "T"
	case process.Idle:
		return "I"
	case process.Zombie:
		return "Z"
	case process.Wait:
		return "D"
	case process.Lock:
		return "L"
	default:
		return "?"
	}
}

func formatCPUTime(d time.Duration) string {
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
