package timeutil

import "time"

// Range is an inclusive time window.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// Contains reports whether t lies in the window. An unset bound is open.
func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns midnight of the Sunday that starts t's week.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last nanosecond of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// SameDay reports whether a and b fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Ranges holds the preset windows offered by the date filter.
type Ranges struct {
	Today     Range `json:"today"`
	Yesterday Range `json:"yesterday"`
	ThisWeek  Range `json:"this_week"`
	LastWeek  Range `json:"last_week"`
	ThisMonth Range `json:"this_month"`
	LastMonth Range `json:"last_month"`
}

// Presets computes the preset windows relative to now.
func Presets(now time.Time) Ranges {
	today := StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	weekStart := StartOfWeek(now)
	monthStart := StartOfMonth(now)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	return Ranges{
		Today:     Range{Start: today, End: EndOfDay(now)},
		Yesterday: Range{Start: yesterday, End: EndOfDay(yesterday)},
		ThisWeek:  Range{Start: weekStart, End: EndOfDay(now)},
		LastWeek:  Range{Start: weekStart.AddDate(0, 0, -7), End: EndOfDay(weekStart.AddDate(0, 0, -1))},
		ThisMonth: Range{Start: monthStart, End: EndOfDay(now)},
		LastMonth: Range{Start: lastMonthStart, End: EndOfMonth(lastMonthStart)},
	}
}

// Preset returns the named window ("today", "yesterday", "this_week",
// "last_week", "this_month", "last_month").
func Preset(name string, now time.Time) (Range, bool) {
	p := Presets(now)
	switch name {
	case "today":
		return p.Today, true
	case "yesterday":
		return p.Yesterday, true
	case "this_week":
		return p.ThisWeek, true
	case "last_week":
		return p.LastWeek, true
	case "this_month":
		return p.ThisMonth, true
	case "last_month":
		return p.LastMonth, true
	}
	return Range{}, false
}
