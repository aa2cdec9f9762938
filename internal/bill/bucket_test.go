package bill_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/finny/internal/bill"
)

func pending(desc string, day int) *bill.Bill {
	return &bill.Bill{Description: desc, Status: bill.StatusPending, DueDate: date(2024, 3, day)}
}

func TestClassify(t *testing.T) {
	today := date(2024, 3, 10)

	overdue := pending("overdue", 9)
	dueToday := pending("today", 10)
	soon := pending("soon", 17)
	later := pending("later", 18)
	paid := &bill.Bill{Description: "paid", Status: bill.StatusPaid, DueDate: date(2024, 3, 1)}
	cancelled := &bill.Bill{Description: "cancelled", Status: bill.StatusCancelled, DueDate: date(2024, 3, 10)}

	bills := []*bill.Bill{later, paid, soon, dueToday, overdue, cancelled}

	t.Run("bounded window", func(t *testing.T) {
		got := bill.Classify(bills, today, new(7))

		assert.Equal(t, []*bill.Bill{overdue}, got.Overdue)
		assert.Equal(t, []*bill.Bill{dueToday}, got.DueToday)
		assert.Equal(t, []*bill.Bill{soon}, got.Upcoming)
	})

	t.Run("unbounded window", func(t *testing.T) {
		got := bill.Classify(bills, today, nil)

		assert.Equal(t, []*bill.Bill{later, soon}, got.Upcoming)
	})

	t.Run("empty", func(t *testing.T) {
		got := bill.Classify(nil, today, nil)

		assert.Empty(t, got.Overdue)
		assert.Empty(t, got.DueToday)
		assert.Empty(t, got.Upcoming)
	})
}

func TestSelect(t *testing.T) {
	today := date(2024, 3, 10)
	a := pending("a", 5)
	b := pending("b", 10)
	c := pending("c", 30)
	paid := &bill.Bill{Status: bill.StatusPaid, DueDate: date(2024, 3, 10)}
	bills := []*bill.Bill{a, b, c, paid}

	assert.Equal(t, []*bill.Bill{a, b, c}, bill.Select(bills, bill.TabAll, today))
	assert.Equal(t, []*bill.Bill{a}, bill.Select(bills, bill.TabOverdue, today))
	assert.Equal(t, []*bill.Bill{b}, bill.Select(bills, bill.TabToday, today))
	assert.Equal(t, []*bill.Bill{c}, bill.Select(bills, bill.TabUpcoming, today))
}

func TestGroupByDueDate(t *testing.T) {
	first := pending("first", 12)
	second := pending("second", 3)
	third := pending("third", 12)

	groups := bill.GroupByDueDate([]*bill.Bill{first, second, third})

	assert.Len(t, groups, 2)
	assert.Equal(t, date(2024, 3, 3), groups[0].Date)
	assert.Equal(t, []*bill.Bill{second}, groups[0].Bills)
	assert.Equal(t, date(2024, 3, 12), groups[1].Date)
	assert.Equal(t, []*bill.Bill{first, third}, groups[1].Bills)
	assert.Empty(t, bill.GroupByDueDate(nil))
}
