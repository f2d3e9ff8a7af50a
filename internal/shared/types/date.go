package types

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Date is a calendar date without a time-of-day component. Classifications and
// aggregates are keyed by calendar dates; instants (admissions, discharges)
// stay time.Time values with an explicit location so that shift boundaries are
// unambiguous.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates an instant to its calendar date in the instant's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate parses a date in YYYY-MM-DD form, panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// In returns the instant at midnight of the date in the given location.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the instant at the given hour of the date in the given location.
func (d Date) At(hour int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, loc)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// IsZero checks if the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// FirstOfMonth returns the first day of the date's month.
func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// DaysInMonth returns the number of calendar days in the date's month.
func (d Date) DaysInMonth() int {
	first := Date{Year: d.Year, Month: d.Month, Day: 1}
	return DateOf(first.In(time.UTC).AddDate(0, 1, -1)).Day
}

// Quarter returns the calendar quarter (1-4) of the date. Quarters are fixed,
// non-rolling: {1-3},{4-6},{7-9},{10-12}.
func (d Date) Quarter() int {
	return (int(d.Month)-1)/3 + 1
}

// SameQuarter reports whether two dates fall into the same calendar quarter of
// the same year.
func (d Date) SameQuarter(other Date) bool {
	return d.Year == other.Year && d.Quarter() == other.Quarter()
}

// MonthElapsed reports whether the date's month has fully passed as of the
// given date.
func (d Date) MonthElapsed(asOf Date) bool {
	if d.Year != asOf.Year {
		return d.Year < asOf.Year
	}
	return d.Month < asOf.Month
}

// Value implements driver.Valuer for database serialization
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.In(time.UTC), nil
}

// Scan implements sql.Scanner for database deserialization
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = DateOf(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
