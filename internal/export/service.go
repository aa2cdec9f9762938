// Package export writes bill statements as ';' separated sheets.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/category"
)

type Bills interface {
	List(ctx context.Context, filter bill.ListFilter) ([]*bill.Bill, error)
}

type Categories interface {
	List(ctx context.Context) ([]*category.Category, error)
}

// Filter bounds an export. Zero dates leave that side open.
type Filter struct {
	Status *bill.Status
	From   civil.Date
	To     civil.Date
}

// Item is an exported bill with its category name resolved.
type Item struct {
	Bill     *bill.Bill
	Category string
}

// Service handles the export of bills.
type Service struct {
	bills      Bills
	categories Categories
}

func NewService(bills Bills, categories Categories) *Service {
	return &Service{bills: bills, categories: categories}
}

var header = []string{"description", "amount", "due_date", "category", "status", "series"}

// Items returns the bills matching filter, ordered by due date.
func (s *Service) Items(ctx context.Context, filter Filter) ([]Item, error) {
	bills, err := s.bills.List(ctx, bill.ListFilter{Status: filter.Status})
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	names := make(map[uuid.UUID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	items := make([]Item, 0, len(bills))

	for _, b := range bills {
		if !calendar.IsZero(filter.From) && b.DueDate.Before(filter.From) {
			continue
		}

		if !calendar.IsZero(filter.To) && b.DueDate.After(filter.To) {
			continue
		}

		items = append(items, Item{Bill: b, Category: names[b.CategoryID]})
	}

	return items, nil
}

// WriteCSV writes items as a sheet with a header row.
func (s *Service) WriteCSV(w io.Writer, items []Item) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, item := range items {
		b := item.Bill
		record := []string{
			b.Description,
			b.Amount.StringFixed(2),
			b.DueDate.String(),
			item.Category,
			string(b.Status),
			series(b),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing bill %s: %w", b.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Statement renders items as one line per bill for pasting into a message.
func (s *Service) Statement(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		b := item.Bill

		status := "Pendente"
		if b.Status == bill.StatusPaid {
			status = "Pago"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s € | %s", b.DueDate, b.Description, b.Amount.StringFixed(2), status)

		if part := series(b); part != "" {
			fmt.Fprintf(&sb, " | %s", part)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// series describes the series position of b: "2/12" for installments, the
// recurrence type for recurring bills, empty otherwise.
func series(b *bill.Bill) string {
	switch k := b.Kind.(type) {
	case bill.Installment:
		return fmt.Sprintf("%d/%d", k.Current, k.Total)
	case bill.Recurring:
		return string(k.Type)
	}

	return ""
}
