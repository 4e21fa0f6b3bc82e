// Package timeutil converts seconds to display strings, parses free-text
// durations and computes calendar boundaries.
package timeutil

import (
	"fmt"
	"time"
)

// FormatDuration renders seconds as "1h 2m 3s", "2m 3s" or "3s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		return "0s"
	}
	h, m, s := split(seconds)
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatDurationCompact renders seconds as "2h 30m", "2h", "30m" or "< 1m".
func FormatDurationCompact(seconds int64) string {
	if seconds < 0 {
		return "0m"
	}
	h, m, _ := split(seconds)
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "< 1m"
	}
}

// FormatTimer renders seconds as a zero-padded HH:MM:SS clock.
func FormatTimer(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := split(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Style selects a rendering for FormatFor.
type Style string

const (
	Short  Style = "short"
	Medium Style = "medium"
	Long   Style = "long"
)

// FormatFor renders seconds in the given style; unknown styles render Medium.
func FormatFor(seconds int64, style Style) string {
	switch style {
	case Short:
		return FormatTimer(seconds)
	case Long:
		return FormatDuration(seconds)
	default:
		return FormatDurationCompact(seconds)
	}
}

// TimeAgo describes t relative to now ("just now", "5 minutes ago",
// "yesterday", "3 days ago"), falling back to a plain date after a week.
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	secs := int64(diff / time.Second)
	mins := secs / 60
	hours := mins / 60
	days := hours / 24

	switch {
	case secs < 60:
		return "just now"
	case mins < 60:
		return plural(mins, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Seconds returns the whole seconds between start and end, never negative.
func Seconds(start, end time.Time) int64 {
	d := int64(end.Sub(start) / time.Second)
	if d < 0 {
		return 0
	}
	return d
}

func split(seconds int64) (h, m, s int64) {
	return seconds / 3600, (seconds % 3600) / 60, seconds % 60
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
