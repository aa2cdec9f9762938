package bill

import (
	"slices"

	"cloud.google.com/go/civil"
)

// Buckets splits pending bills by how their due date relates to today.
type Buckets struct {
	Overdue  []*Bill
	DueToday []*Bill
	Upcoming []*Bill
}

// Classify buckets the pending bills. windowDays bounds the upcoming bucket
// to today+windowDays; nil leaves it unbounded.
func Classify(bills []*Bill, today civil.Date, windowDays *int) Buckets {
	var b Buckets

	for _, bill := range bills {
		if bill.Status != StatusPending {
			continue
		}

		switch {
		case bill.DueDate.Before(today):
			b.Overdue = append(b.Overdue, bill)
		case bill.DueDate == today:
			b.DueToday = append(b.DueToday, bill)
		case windowDays == nil || !bill.DueDate.After(today.AddDays(*windowDays)):
			b.Upcoming = append(b.Upcoming, bill)
		}
	}

	return b
}

// Tab selects which pending bills the bills page shows.
type Tab string

const (
	TabAll      Tab = "all"
	TabOverdue  Tab = "overdue"
	TabToday    Tab = "today"
	TabUpcoming Tab = "upcoming"
)

func (t Tab) Valid() bool {
	switch t {
	case TabAll, TabOverdue, TabToday, TabUpcoming:
		return true
	}

	return false
}

// Select returns the pending bills belonging to tab, upcoming unbounded.
func Select(bills []*Bill, tab Tab, today civil.Date) []*Bill {
	b := Classify(bills, today, nil)

	switch tab {
	case TabOverdue:
		return b.Overdue
	case TabToday:
		return b.DueToday
	case TabUpcoming:
		return b.Upcoming
	}

	var out []*Bill

	for _, bill := range bills {
		if bill.Status == StatusPending {
			out = append(out, bill)
		}
	}

	return out
}

// Group is the set of bills sharing a due date.
type Group struct {
	Date  civil.Date
	Bills []*Bill
}

// GroupByDueDate groups bills by due date, dates ascending. Bills keep their
// input order inside a group.
func GroupByDueDate(bills []*Bill) []Group {
	index := make(map[civil.Date]int)

	var groups []Group

	for _, b := range bills {
		i, ok := index[b.DueDate]
		if !ok {
			i = len(groups)
			index[b.DueDate] = i
			groups = append(groups, Group{Date: b.DueDate})
		}

		groups[i].Bills = append(groups[i].Bills, b)
	}

	slices.SortFunc(groups, func(a, b Group) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}

		return 0
	})

	return groups
}
