package devserver

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/adminui/sysdash/internal/client"
)

var (
	userPattern    = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	servicePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
)

// processQuery is the validated form of GET /api/processes parameters.
type processQuery struct {
	SortBy string
	Limit  int
	User   string
	MinCPU float64
	MinMem float64
}

func parseProcessQuery(c echo.Context) (processQuery, error) {
	q := processQuery{SortBy: "cpu", Limit: 100}
	err := echo.QueryParamsBinder(c).
		String("sort_by", &q.SortBy).
		Int("limit", &q.Limit).
		String("user", &q.User).
		Float64("min_cpu", &q.MinCPU).
		Float64("min_mem", &q.MinMem).
		BindError()
	if err != nil {
		return q, fmt.Errorf("invalid query parameter: %w", err)
	}

	switch q.SortBy {
	case "cpu", "mem", "pid", "time":
	default:
		return q, fmt.Errorf("sort_by must be one of cpu, mem, pid, time")
	}
	if q.Limit < 1 || q.Limit > 1000 {
		return q, fmt.Errorf("limit must be between 1 and 1000")
	}
	if q.User != "" && (len(q.User) > 32 || !userPattern.MatchString(q.User)) {
		return q, fmt.Errorf("user must match %s and be at most 32 characters", userPattern)
	}
	if q.MinCPU < 0 || q.MinCPU > 100 {
		return q, fmt.Errorf("min_cpu must be between 0 and 100")
	}
	if q.MinMem < 0 || q.MinMem > 100 {
		return q, fmt.Errorf("min_mem must be between 0 and 100")
	}
	return q, nil
}

// apply filters, sorts and truncates procs. matched is the count before the
// limit was applied.
func (q processQuery) apply(procs []Process) (out []client.ProcessRecord, matched int) {
	kept := procs[:0:0]
	for _, p := range procs {
		if q.User != "" && p.User != q.User {
			continue
		}
		if p.CPUPercent < q.MinCPU || p.MemoryPercent < q.MinMem {
			continue
		}
		kept = append(kept, p)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		switch q.SortBy {
		case "mem":
			return a.MemoryPercent > b.MemoryPercent
		case "pid":
			return a.PID < b.PID
		case "time":
			return a.CPUTime > b.CPUTime
		default:
			return a.CPUPercent > b.CPUPercent
		}
	})

	matched = len(kept)
	if len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}
	out = make([]client.ProcessRecord, len(kept))
	for i, p := range kept {
		out[i] = p.ProcessRecord
	}
	return out, matched
}

func (q processQuery) filters() *client.ProcessFilters {
	f := &client.ProcessFilters{User: q.User}
	if q.MinCPU > 0 {
		v := q.MinCPU
		f.MinCPU = &v
	}
	if q.MinMem > 0 {
		v := q.MinMem
		f.MinMem = &v
	}
	return f
}
