// Package dateutil holds the calendar geometry helpers used to lay out a
// month view. Every function is pure: "today" and the displayed month are
// always passed in, never read from the clock.
package dateutil

import (
	"errors"
	"fmt"
	"time"
)

// Pattern names one of the supported display formats using Unicode
// date tokens (yyyy, MMMM, d, EEEE).
type Pattern string

const (
	PatternISODate   Pattern = "yyyy-MM-dd"
	PatternMonthYear Pattern = "MMMM yyyy"
	PatternLongDate  Pattern = "MMMM d, yyyy"
	PatternWeekday   Pattern = "EEEE"
)

// Go reference layouts for each Pattern.
var layouts = map[Pattern]string{
	PatternISODate:   "2006-01-02",
	PatternMonthYear: "January 2006",
	PatternLongDate:  "January 2, 2006",
	PatternWeekday:   "Monday",
}

var (
	// ErrUnsupportedFormat is matched by every *UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported date format")
	// ErrInvalidDate is matched by every *InvalidDateError.
	ErrInvalidDate = errors.New("invalid date")
)

// UnsupportedFormatError is returned by Format for unknown patterns.
type UnsupportedFormatError struct {
	Pattern Pattern
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported date format %q", string(e.Pattern))
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// InvalidDateError is returned when a date or month key cannot be parsed.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: %v", e.Value, e.Err)
}

func (e *InvalidDateError) Unwrap() error { return e.Err }

func (e *InvalidDateError) Is(target error) bool {
	return target == ErrInvalidDate
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOfMonth returns the weekday of the 1st of t's month,
// with Sunday = 0.
func FirstWeekdayOfMonth(t time.Time) int {
	return int(time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// MonthStart returns midnight on the 1st of t's month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths shifts t by n whole months. When the day of month does not
// exist in the target month it is clamped to that month's last day, so
// Jan 31 + 1 month is Feb 28 (or 29), never a day in March.
// Time of day and location are preserved.
func AddMonths(t time.Time, n int) time.Time {
	// Normalize year/month from the first of the month so the day can't overflow.
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := min(t.Day(), DaysInMonth(first))
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYears shifts t by n years with the same clamp rule as AddMonths
// (Feb 29 + 1 year is Feb 28).
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// IsSameCalendarDay reports whether a and b fall on the same year, month
// and day of month, each read from its own wall clock.
func IsSameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Format renders t using one of the four supported patterns.
func Format(t time.Time, p Pattern) (string, error) {
	layout, ok := layouts[p]
	if !ok {
		return "", &UnsupportedFormatError{Pattern: p}
	}
	return t.Format(layout), nil
}

// DateKey returns t as a YYYY-MM-DD grouping key.
func DateKey(t time.Time) string {
	return t.Format(layouts[PatternISODate])
}

// ParseDateKey parses a YYYY-MM-DD key into midnight UTC.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(layouts[PatternISODate], s)
	if err != nil {
		return time.Time{}, &InvalidDateError{Value: s, Err: err}
	}
	return t, nil
}

// MonthKey returns t as a YYYY-MM navigation key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// ParseMonth parses a YYYY-MM key into midnight UTC on the 1st.
func ParseMonth(s string) (time.Time, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return time.Time{}, &InvalidDateError{Value: s, Err: err}
	}
	return t, nil
}
