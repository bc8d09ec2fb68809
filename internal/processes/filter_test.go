package processes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterStateWith(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		raw     string
		wantErr bool
		check   func(t *testing.T, f FilterState)
	}{
		{"sort mem", FieldSortBy, "mem", false, func(t *testing.T, f FilterState) { assert.Equal(t, SortMem, f.SortBy) }},
		{"sort upper", FieldSortBy, "PID", false, func(t *testing.T, f FilterState) { assert.Equal(t, SortPID, f.SortBy) }},
		{"sort bogus", FieldSortBy, "name", true, nil},
		{"user ok", FieldUser, "www-data", false, func(t *testing.T, f FilterState) { assert.Equal(t, "www-data", f.User) }},
		{"user surrounding spaces", FieldUser, "  root ", true, nil},
		{"user trailing tab", FieldUser, "root\t", true, nil},
		{"cpu spaces trimmed", FieldMinCPU, " 20 ", false, func(t *testing.T, f FilterState) { assert.Equal(t, 20.0, f.MinCPU) }},
		{"user clear", FieldUser, "", false, func(t *testing.T, f FilterState) { assert.Empty(t, f.User) }},
		{"user 32 chars", FieldUser, "abcdefghijabcdefghijabcdefghij12", false, nil},
		{"user 33 chars", FieldUser, "abcdefghijabcdefghijabcdefghij123", true, nil},
		{"user injection", FieldUser, "root' OR 1=1", true, nil},
		{"cpu ok", FieldMinCPU, "12.5", false, func(t *testing.T, f FilterState) { assert.Equal(t, 12.5, f.MinCPU) }},
		{"cpu empty", FieldMinCPU, "", false, func(t *testing.T, f FilterState) { assert.Zero(t, f.MinCPU) }},
		{"cpu 100", FieldMinCPU, "100", false, nil},
		{"cpu above", FieldMinCPU, "100.1", true, nil},
		{"cpu negative", FieldMinCPU, "-1", true, nil},
		{"cpu nan", FieldMinCPU, "NaN", true, nil},
		{"mem inf", FieldMinMem, "Inf", true, nil},
		{"mem text", FieldMinMem, "lots", true, nil},
		{"mem ok", FieldMinMem, "3", false, func(t *testing.T, f FilterState) { assert.Equal(t, 3.0, f.MinMem) }},
		{"limit ok", FieldLimit, "10", false, func(t *testing.T, f FilterState) { assert.Equal(t, 10, f.Limit) }},
		{"limit empty resets", FieldLimit, "", false, func(t *testing.T, f FilterState) { assert.Equal(t, DefaultLimit, f.Limit) }},
		{"limit zero", FieldLimit, "0", true, nil},
		{"limit too big", FieldLimit, "1001", true, nil},
		{"limit fraction", FieldLimit, "2.5", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := FilterState{SortBy: SortCPU, Limit: 7, User: "keep"}
			got, err := start.With(tt.field, tt.raw)
			if tt.wantErr {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.field, ve.Field)
				assert.Equal(t, start, got)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestNewFilterStateFallsBack(t *testing.T) {
	assert.Equal(t, FilterState{SortBy: SortMem, Limit: 50}, NewFilterState("mem", 50))
	assert.Equal(t, DefaultFilters(), NewFilterState("bogus", 0))
	assert.Equal(t, DefaultFilters(), NewFilterState("", 5000))
}

func TestFieldRefetchOnChange(t *testing.T) {
	assert.False(t, FieldUser.RefetchOnChange())
	for _, f := range []Field{FieldSortBy, FieldMinCPU, FieldMinMem, FieldLimit} {
		assert.True(t, f.RefetchOnChange(), f.String())
	}
}

func TestSortKeyNext(t *testing.T) {
	assert.Equal(t, SortMem, SortCPU.Next())
	assert.Equal(t, SortCPU, SortTime.Next())
	assert.Equal(t, SortCPU, SortKey("x").Next())
}

func TestSeverityBoundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Tier
	}{
		{0, TierLow},
		{9.9, TierLow},
		{10, TierMedium},
		{49.9, TierMedium},
		{50, TierHigh},
		{250, TierHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Severity(tt.pct), "%v", tt.pct)
	}
	assert.Equal(t, "medium", TierMedium.String())
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name string
		in   *time.Time
		want string
	}{
		{"nil", nil, "-"},
		{"seconds", at(20 * time.Second), "moments ago"},
		{"future", at(-time.Minute), "moments ago"},
		{"one minute", at(time.Minute), "1 minute ago"},
		{"minutes", at(59 * time.Minute), "59 minutes ago"},
		{"one hour", at(time.Hour + 30*time.Minute), "1 hour ago"},
		{"hours", at(23*time.Hour + 59*time.Minute), "23 hours ago"},
		{"a day", at(24 * time.Hour), "03/13 15:30"},
		{"older", at(40 * 24 * time.Hour), "02/02 15:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(tt.in, now))
		})
	}
}

func TestPaginationLabel(t *testing.T) {
	assert.Equal(t, "3 / 120", PaginationLabel(3, 120))
}

func TestSanitizeCommand(t *testing.T) {
	assert.Equal(t, "evil red", SanitizeCommand("evil \x1b[31mred\x1b[0m"))
	assert.Equal(t, "/usr/bin/python3 -m http.server", SanitizeCommand("/usr/bin/python3 -m http.server"))
}
