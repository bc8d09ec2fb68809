package processes

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Tier is the usage severity of a CPU or memory percentage.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "low"
	}
}

// Severity thresholds, shared by CPU and memory.
const (
	mediumThreshold = 10.0
	highThreshold   = 50.0
)

// Severity classifies pct: below 10 is low, below 50 medium, the rest high.
func Severity(pct float64) Tier {
	switch {
	case pct < mediumThreshold:
		return TierLow
	case pct < highThreshold:
		return TierMedium
	default:
		return TierHigh
	}
}

// RelativeTime labels a start time relative to now. Within a day it is
// relative ("moments ago", "5 minutes ago", "1 hour ago"); older times render
// as MM/DD HH:MM in now's location. A nil time renders as "-".
func RelativeTime(startedAt *time.Time, now time.Time) string {
	if startedAt == nil || startedAt.IsZero() {
		return "-"
	}
	diff := now.Sub(*startedAt)
	if diff >= 24*time.Hour {
		return startedAt.In(now.Location()).Format("01/02 15:04")
	}

	hours := int(diff / time.Hour)
	minutes := int(diff % time.Hour / time.Minute)
	switch {
	case hours > 0:
		return plural(hours, "hour") + " ago"
	case minutes > 0:
		return plural(minutes, "minute") + " ago"
	default:
		return "moments ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// PaginationLabel renders "returned / total".
func PaginationLabel(returned, total int) string {
	return fmt.Sprintf("%d / %d", returned, total)
}

// SanitizeCommand makes an untrusted command line safe to print: escape
// sequences are removed and remaining control characters become spaces.
func SanitizeCommand(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
