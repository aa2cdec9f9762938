package bill

import (
	"cloud.google.com/go/civil"

	"github.com/MrJamesThe3rd/finny/internal/calendar"
)

// Schedule returns the due dates a draft expands to, root first.
//
// Installment n is due n-1 months after the root, clamped to the month end.
// Recurrences advance one period at a time from the root's day of month and
// stop at the end date or after the policy's look-ahead, whichever binds
// first.
func Schedule(d Draft, p Policy) []civil.Date {
	dates := []civil.Date{d.DueDate}

	switch k := d.Kind.(type) {
	case Installment:
		for i := 2; i <= k.Total; i++ {
			dates = append(dates, calendar.AddMonthsClamped(d.DueDate, i-1))
		}
	case Recurring:
		if !k.Type.Valid() {
			return dates
		}

		limit := p.LookAhead
		if limit <= 0 && k.EndDate == nil {
			limit = DefaultLookAhead
		}

		for n := 1; limit <= 0 || n <= limit; n++ {
			next := calendar.Advance(d.DueDate, d.DueDate.Day, calendar.Period(k.Type), n)
			if k.EndDate != nil && next.After(*k.EndDate) {
				break
			}

			dates = append(dates, next)
		}
	}

	return dates
}

// nextDue returns the occurrence after due in a series of type t.
func nextDue(due civil.Date, anchorDay int, t RecurrenceType) civil.Date {
	return calendar.Advance(due, anchorDay, calendar.Period(t), 1)
}
