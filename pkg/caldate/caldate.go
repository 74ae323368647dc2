// Package caldate provides a calendar-date type with no time-of-day
// component. All loan schedule arithmetic operates on these values so that
// timezone and clock-skew differences cannot leak into due-date or
// delinquency comparisons.
package caldate

import (
	"fmt"
	"time"

	"loanledger/pkg/constants"
)

// Layout is the string representation of a calendar date.
const Layout = constants.DateLayout

// Date is a calendar date (year, month, day) with no time-of-day. The zero
// value is not a valid date; use New, Parse, or FromTime.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the calendar date for the given year, month, and day. Out of
// range values are normalized the same way time.Date normalizes them.
func New(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime strips the time-of-day and timezone from t, keeping the calendar
// date as observed in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar date in the local timezone.
func Today() Date {
	return FromTime(time.Now())
}

// Parse parses a date in the 2006-01-02 layout.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// MustParse parses a date in the 2006-01-02 layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns the date as a time.Time at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date in the 2006-01-02 layout.
func (d Date) String() string {
	return d.Time().Format(Layout)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// Equal reports whether d and other are the same calendar date.
func (d Date) Equal(other Date) bool {
	return d == other
}

// DaysUntil returns the whole number of days from d to other; negative when
// other is before d.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// DaysInMonth returns the number of days in the given month (28-31).
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped advances the date by the given number of months and sets
// the day-of-month to day, clamped to the length of the target month. Unlike
// time.Time.AddDate this never overflows into the following month: asking
// for day 31 in February yields February 28 (or 29), not March 2/3.
func (d Date) AddMonthsClamped(months, day int) Date {
	total := d.Year*constants.MonthsPerYear + int(d.Month) - 1 + months
	year := total / constants.MonthsPerYear
	month := time.Month(total%constants.MonthsPerYear + 1)
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// MarshalJSON encodes the date as a "2006-01-02" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" JSON string. It also accepts full
// RFC 3339 timestamps, truncating the time-of-day, so snapshots exported by
// older builds remain loadable.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date value %s", s)
	}
	s = s[1 : len(s)-1]
	parsed, err := Parse(s)
	if err != nil {
		t, rfcErr := time.Parse(time.RFC3339, s)
		if rfcErr != nil {
			return err
		}
		parsed = FromTime(t.UTC())
	}
	*d = parsed
	return nil
}
