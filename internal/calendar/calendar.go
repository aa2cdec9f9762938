// Package calendar works with due dates as plain calendar days.
//
// Stored dates are never converted through a time zone: "2024-03-05" is the
// fifth of March for every caller, whatever its local offset.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Period is the distance between two occurrences of a recurring series.
type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}

	return false
}

// Parse reads a YYYY-MM-DD date. An RFC 3339 timestamp is accepted too; its
// date part is taken as written, without applying the offset.
func Parse(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		s = s[:10]
	}

	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}

	return d, nil
}

// Of returns the calendar day of t as seen in t's own location.
func Of(t time.Time) civil.Date {
	return civil.DateOf(t)
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) civil.Date {
	return civil.DateOf(time.Now().In(loc))
}

// IsZero reports whether d is the zero date.
func IsZero(d civil.Date) bool {
	return d == civil.Date{}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month normalises to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped adds n calendar months to d. When d's day does not exist
// in the target month the last day of that month is used, so Jan 31 plus one
// month is Feb 28 (or 29), never Mar 3.
func AddMonthsClamped(d civil.Date, n int) civil.Date {
	return addMonths(d, n, d.Day)
}

// Advance moves d forward by n periods. For monthly and yearly periods the
// day of month is taken from anchorDay and clamped per target month, which
// keeps a series that started on the 31st on month ends.
func Advance(d civil.Date, anchorDay int, p Period, n int) civil.Date {
	switch p {
	case Weekly:
		return d.AddDays(7 * n)
	case Monthly:
		return addMonths(d, n, anchorDay)
	case Yearly:
		return addMonths(d, 12*n, anchorDay)
	}

	return d
}

func addMonths(d civil.Date, n, day int) civil.Date {
	total := int(d.Month) - 1 + n
	year := d.Year + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)

	if last := DaysIn(year, month); day > last {
		day = last
	}

	return civil.Date{Year: year, Month: month, Day: day}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}

	return q
}
