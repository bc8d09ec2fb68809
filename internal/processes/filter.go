package processes

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/adminui/sysdash/internal/client"
)

// SortKey is the column the backend sorts by.
type SortKey string

const (
	SortCPU  SortKey = "cpu"
	SortMem  SortKey = "mem"
	SortPID  SortKey = "pid"
	SortTime SortKey = "time"
)

// SortKeys lists the accepted keys in display order.
var SortKeys = []SortKey{SortCPU, SortMem, SortPID, SortTime}

// Next returns the key after k, wrapping around.
func (k SortKey) Next() SortKey {
	for i, s := range SortKeys {
		if s == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortCPU
}

func (k SortKey) valid() bool {
	for _, s := range SortKeys {
		if s == k {
			return true
		}
	}
	return false
}

// Filter limits.
const (
	DefaultLimit  = 100
	MinLimit      = 1
	MaxLimit      = 1000
	MaxUserLength = 32
)

var userPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)

// Field names one filter input.
type Field int

const (
	FieldSortBy Field = iota
	FieldUser
	FieldMinCPU
	FieldMinMem
	FieldLimit
)

func (f Field) String() string {
	switch f {
	case FieldSortBy:
		return "sort_by"
	case FieldUser:
		return "user"
	case FieldMinCPU:
		return "min_cpu"
	case FieldMinMem:
		return "min_mem"
	case FieldLimit:
		return "limit"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// RefetchOnChange reports whether a change to f reloads immediately. The user
// filter waits for an explicit submit.
func (f Field) RefetchOnChange() bool {
	return f != FieldUser
}

// ValidationError rejects a filter value. The filter state is left unchanged.
type ValidationError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// FilterState is the current set of process filters. Every field always holds
// a valid value.
type FilterState struct {
	SortBy SortKey
	User   string
	MinCPU float64
	MinMem float64
	Limit  int
}

// DefaultFilters returns cpu ordering, no filters and the default limit.
func DefaultFilters() FilterState {
	return FilterState{SortBy: SortCPU, Limit: DefaultLimit}
}

// NewFilterState builds the initial state from configured defaults, falling
// back to DefaultFilters for anything invalid.
func NewFilterState(sortBy string, limit int) FilterState {
	f := DefaultFilters()
	if k := SortKey(sortBy); k.valid() {
		f.SortBy = k
	}
	if limit >= MinLimit && limit <= MaxLimit {
		f.Limit = limit
	}
	return f
}

// Query converts the filters to request parameters.
func (f FilterState) Query() client.ProcessQuery {
	return client.ProcessQuery{
		SortBy: string(f.SortBy),
		Limit:  f.Limit,
		User:   f.User,
		MinCPU: f.MinCPU,
		MinMem: f.MinMem,
	}
}

// Active reports whether any narrowing filter is set.
func (f FilterState) Active() bool {
	return f.User != "" || f.MinCPU > 0 || f.MinMem > 0
}

// With returns a copy of f with field set from raw input, or a
// *ValidationError. The user value is matched exactly as typed; numeric and
// sort inputs are trimmed first.
func (f FilterState) With(field Field, raw string) (FilterState, error) {
	if field != FieldUser {
		raw = strings.TrimSpace(raw)
	}
	reject := func(reason string) (FilterState, error) {
		return f, &ValidationError{Field: field, Value: raw, Reason: reason}
	}

	switch field {
	case FieldSortBy:
		k := SortKey(strings.ToLower(raw))
		if !k.valid() {
			return reject("must be one of cpu, mem, pid, time")
		}
		f.SortBy = k

	case FieldUser:
		if len(raw) > MaxUserLength {
			return reject(fmt.Sprintf("at most %d characters", MaxUserLength))
		}
		if !userPattern.MatchString(raw) {
			return reject("only letters, digits, '_' and '-' are allowed")
		}
		f.User = raw

	case FieldMinCPU, FieldMinMem:
		v, err := parsePercent(raw)
		if err != nil {
			return reject(err.Error())
		}
		if field == FieldMinCPU {
			f.MinCPU = v
		} else {
			f.MinMem = v
		}

	case FieldLimit:
		if raw == "" {
			f.Limit = DefaultLimit
			break
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return reject("not a whole number")
		}
		if n < MinLimit || n > MaxLimit {
			return reject(fmt.Sprintf("must be between %d and %d", MinLimit, MaxLimit))
		}
		f.Limit = n

	default:
		return reject("unknown filter")
	}
	return f, nil
}

// parsePercent accepts "" (no filter) or a number in [0,100].
func parsePercent(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a number")
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("must be between 0 and 100")
	}
	return v, nil
}
