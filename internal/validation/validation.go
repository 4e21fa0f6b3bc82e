// Package validation checks user input before it reaches the store or the
// identity provider. Every check returns nil or an *apperr.ValidationError
// naming the offending field.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"tasker/internal/apperr"
	"tasker/internal/timeutil"
)

var (
	hexColorRe    = regexp.MustCompile(`(?i)^#[0-9A-F]{6}$`)
	emailRe       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	displayNameRe = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.]+$`)
)

const (
	dayLayout      = "2006-01-02"
	maxSanitized   = 1000
	maxRangeDays   = 730
	maxEntryLength = 24 * time.Hour
)

func length(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

// Category checks a category name (2-50 chars) and optional #RRGGBB color.
func Category(name, color string) error {
	switch n := length(name); {
	case n == 0:
		return apperr.Invalid("name", "Category name is required")
	case n < 2:
		return apperr.Invalid("name", "Category name must be at least 2 characters long")
	case n > 50:
		return apperr.Invalid("name", "Category name must be less than 50 characters")
	}
	if color != "" && !hexColorRe.MatchString(color) {
		return apperr.Invalid("color", "Color must be a valid hex code (e.g., #FF5733)")
	}
	return nil
}

// Task checks a task title (2-100 chars) and optional description (<= 500).
func Task(title, description string) error {
	switch n := length(title); {
	case n == 0:
		return apperr.Invalid("title", "Task title is required")
	case n < 2:
		return apperr.Invalid("title", "Task title must be at least 2 characters long")
	case n > 100:
		return apperr.Invalid("title", "Task title must be less than 100 characters")
	}
	if length(description) > 500 {
		return apperr.Invalid("description", "Task description must be less than 500 characters")
	}
	return nil
}

func Email(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Invalid("email", "Email is required")
	}
	if !emailRe.MatchString(email) {
		return apperr.Invalid("email", "Please enter a valid email address")
	}
	return nil
}

// Password requires 6-128 characters with at least one letter and one digit.
func Password(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n == 0:
		return apperr.Invalid("password", "Password is required")
	case n < 6:
		return apperr.Invalid("password", "Password must be at least 6 characters long")
	case n > 128:
		return apperr.Invalid("password", "Password must be less than 128 characters")
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !letter || !digit {
		return apperr.Invalid("password", "Password must contain at least one letter and one number")
	}
	return nil
}

func ConfirmPassword(password, confirm string) error {
	if confirm == "" {
		return apperr.Invalid("confirm_password", "Please confirm your password")
	}
	if password != confirm {
		return apperr.Invalid("confirm_password", "Passwords do not match")
	}
	return nil
}

// DisplayName allows 2-50 letters, digits, spaces and "-_.".
func DisplayName(name string) error {
	switch n := length(name); {
	case n == 0:
		return apperr.Invalid("name", "Display name is required")
	case n < 2:
		return apperr.Invalid("name", "Display name must be at least 2 characters long")
	case n > 50:
		return apperr.Invalid("name", "Display name must be less than 50 characters")
	}
	if !displayNameRe.MatchString(strings.TrimSpace(name)) {
		return apperr.Invalid("name", "Display name can only contain letters, numbers, spaces, and basic punctuation")
	}
	return nil
}

// DateRange requires start <= end, end no more than a year past now and a
// span of at most two years.
func DateRange(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Invalid("range", "Both start and end dates are required")
	}
	if start.After(end) {
		return apperr.Invalid("range", "Start date must be before end date")
	}
	if end.After(now.AddDate(1, 0, 0)) {
		return apperr.Invalid("range", "End date cannot be more than one year in the future")
	}
	days := end.Sub(start).Hours() / 24
	if days > maxRangeDays {
		return apperr.Invalid("range", "Date range cannot exceed 2 years")
	}
	return nil
}

// Range parses a dashboard date filter: a named preset, or from/to days
// (2006-01-02) in now's location. Blank input is the zero range; a single
// bound leaves the other side open. To covers its whole day.
func Range(preset, from, to string, now time.Time) (timeutil.Range, error) {
	if preset = strings.TrimSpace(preset); preset != "" {
		r, ok := timeutil.Preset(preset, now)
		if !ok {
			return timeutil.Range{}, apperr.Invalid("preset", "Unknown date range")
		}
		return r, nil
	}

	var r timeutil.Range
	if from = strings.TrimSpace(from); from != "" {
		d, err := time.ParseInLocation(dayLayout, from, now.Location())
		if err != nil {
			return timeutil.Range{}, apperr.Invalid("from", "Dates must look like 2006-01-02")
		}
		r.Start = d
	}
	if to = strings.TrimSpace(to); to != "" {
		d, err := time.ParseInLocation(dayLayout, to, now.Location())
		if err != nil {
			return timeutil.Range{}, apperr.Invalid("to", "Dates must look like 2006-01-02")
		}
		r.End = timeutil.EndOfDay(d)
	}
	if !r.Start.IsZero() && !r.End.IsZero() {
		if err := DateRange(r.Start, r.End, now); err != nil {
			return timeutil.Range{}, err
		}
	}
	return r, nil
}

// ManualTimeEntry checks a hand-entered time entry against now.
func ManualTimeEntry(taskID string, start, end time.Time, notes string, now time.Time) error {
	if strings.TrimSpace(taskID) == "" {
		return apperr.Invalid("task_id", "Please select a task")
	}
	if start.IsZero() || end.IsZero() {
		return apperr.Invalid("started_at", "Both start and end times are required")
	}
	if !start.Before(end) {
		return apperr.Invalid("started_at", "Start time must be before end time")
	}
	if end.Sub(start) > maxEntryLength {
		return apperr.Invalid("ended_at", "Time entry cannot exceed 24 hours")
	}
	if start.After(now) || end.After(now) {
		return apperr.Invalid("ended_at", "Time entries cannot be in the future")
	}
	if length(notes) > 200 {
		return apperr.Invalid("notes", "Description must be less than 200 characters")
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Sanitize trims s, strips <>"' and caps it at 1000 characters.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if utf8.RuneCountInString(s) > maxSanitized {
		s = string([]rune(s)[:maxSanitized])
	}
	return s
}
