package progression

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without a time component. It is the unit of
// day-over-day comparison in the progression engine; timestamps are
// normalized into Dates at the boundary and never compared directly.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateFormat = time.DateOnly

// ProgramDay normalizes a timestamp into the program day it belongs to.
// A timestamp whose local hour is strictly before boundaryHour counts as the
// previous calendar date, so a 2 AM workout with a boundary hour of 3 still
// belongs to the prior day. boundaryHour 0 is plain date truncation.
func ProgramDay(at time.Time, boundaryHour int) Date {
	if at.Hour() < boundaryHour {
		at = at.AddDate(0, 0, -1)
	}
	year, month, day := at.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a Date from its YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.time().Format(dateFormat)
}

// MarshalJSON encodes the date in its YYYY-MM-DD form. The zero Date
// encodes as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero reports whether d is the zero Date, used as "unset".
func (d Date) IsZero() bool {
	return d == Date{}
}

// Equal reports whether two dates are the same program day.
func (d Date) Equal(other Date) bool {
	return d == other
}

// Before reports whether d is an earlier program day than other.
func (d Date) Before(other Date) bool {
	return d.time().Before(other.time())
}

// After reports whether d is a later program day than other.
func (d Date) After(other Date) bool {
	return d.time().After(other.time())
}

// AddDays returns the date n whole days after d. n may be negative.
func (d Date) AddDays(n int) Date {
	year, month, day := d.time().AddDate(0, 0, n).Date()
	return Date{Year: year, Month: month, Day: day}
}

// DaysBetween returns the signed number of whole days from a to b.
func DaysBetween(a, b Date) int {
	return int(b.time().Sub(a.time()).Hours() / 24) //nolint:mnd // hours per day.
}

// time anchors the date at midnight UTC. UTC has no DST transitions, so the
// subtraction in DaysBetween always yields whole days.
func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}
