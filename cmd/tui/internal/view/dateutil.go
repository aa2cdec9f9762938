package view

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/MrJamesThe3rd/finny/internal/calendar"
)

// Timeframe represents a predefined or custom date range selection.
type Timeframe int

const (
	TimeframeThisWeek  Timeframe = 0
	TimeframeLastWeek  Timeframe = 1
	TimeframeThisMonth Timeframe = 2
	TimeframeLastMonth Timeframe = 3
	TimeframeNextMonth Timeframe = 4
	TimeframeAll       Timeframe = 5
	TimeframeCustom    Timeframe = 6
)

func (t Timeframe) String() string {
	switch t {
	case TimeframeThisWeek:
		return "This Week"
	case TimeframeLastWeek:
		return "Last Week"
	case TimeframeThisMonth:
		return "This Month"
	case TimeframeLastMonth:
		return "Last Month"
	case TimeframeNextMonth:
		return "Next Month"
	case TimeframeAll:
		return "All Time"
	case TimeframeCustom:
		return "Custom Range"
	}

	return "Unknown"
}

// timeframeRange returns the inclusive days covered by tf as seen from
// today. Weeks start on Monday.
func timeframeRange(tf Timeframe, today civil.Date) (civil.Date, civil.Date) {
	monthStart := civil.Date{Year: today.Year, Month: today.Month, Day: 1}

	switch tf {
	case TimeframeThisWeek:
		return today.AddDays(-weekdayOffset(today)), today
	case TimeframeLastWeek:
		end := today.AddDays(-weekdayOffset(today) - 1)
		return end.AddDays(-6), end
	case TimeframeThisMonth:
		return monthStart, today
	case TimeframeLastMonth:
		start := calendar.AddMonthsClamped(monthStart, -1)
		return start, monthStart.AddDays(-1)
	case TimeframeNextMonth:
		start := calendar.AddMonthsClamped(monthStart, 1)
		return start, calendar.AddMonthsClamped(monthStart, 2).AddDays(-1)
	}

	return civil.Date{}, civil.Date{}
}

// weekdayOffset is the number of days since Monday.
func weekdayOffset(d civil.Date) int {
	wd := d.In(time.UTC).Weekday()
	if wd == time.Sunday {
		return 6
	}

	return int(wd) - 1
}

// dayBounds turns an inclusive day range into the timestamps the ledger
// filters on.
func dayBounds(from, to civil.Date) (time.Time, time.Time) {
	return from.In(time.UTC), to.AddDays(1).In(time.UTC).Add(-time.Second)
}
