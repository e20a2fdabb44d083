// Package types provides the core domain types shared across the
// citation graph packages.
package types

import (
	"fmt"
	"time"
)

// Date represents a calendar date without time component.
// Comparisons go through time.Time.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 1-12
	Day   int `json:"day"`   // 1-31
}

// NewDate builds a Date and reports whether it names a real calendar
// day. Feb 30 or month 13 return the zero Date and false.
func NewDate(year, month, day int) (Date, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	// time.Date normalizes out-of-range days (Feb 30 -> Mar 2);
	// a changed day means the input was not a real date.
	normalized := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if normalized.Year() != year || int(normalized.Month()) != month || normalized.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// ToTime converts a Date to a time.Time at midnight UTC.
func (d Date) ToTime() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// FromTime creates a Date from a time.Time.
func FromTime(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// Today returns the current date.
func Today() Date {
	return FromTime(time.Now())
}

// ISO returns the date in ISO-8601 form, e.g. "1965-07-30".
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before returns true if d is before other.
func (d Date) Before(other Date) bool {
	return d.ToTime().Before(other.ToTime())
}

// After returns true if d is after other.
func (d Date) After(other Date) bool {
	return d.ToTime().After(other.ToTime())
}

// Equal returns true if d equals other.
func (d Date) Equal(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}
