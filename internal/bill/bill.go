// Package bill expands bill drafts into installment plans or recurring
// series and drives the payment, deletion and reconciliation of the
// resulting occurrences.
package bill

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/calendar"
)

// Status represents the lifecycle state of a bill.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// RecurrenceType is the spacing between occurrences of a recurring series.
type RecurrenceType string

const (
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

func (t RecurrenceType) Valid() bool {
	return calendar.Period(t).Valid()
}

// Kind is the series role of a bill: Plain, Installment or Recurring.
type Kind interface {
	isKind()
}

// Plain is a one-off bill.
type Plain struct{}

// Installment is one occurrence of a plan split into Total monthly payments.
// ParentID points at occurrence 1 and is nil on that root occurrence.
type Installment struct {
	Total    int
	Current  int
	ParentID *uuid.UUID
}

// Recurring is one occurrence of an open ended or end dated series. Siblings
// are not linked by key; they share description, amount and type.
type Recurring struct {
	Type    RecurrenceType
	EndDate *civil.Date
}

func (Plain) isKind()       {}
func (Installment) isKind() {}
func (Recurring) isKind()   {}

// Bill is a single payable occurrence.
type Bill struct {
	ID          uuid.UUID
	Description string
	Amount      decimal.Decimal
	DueDate     civil.Date
	CategoryID  uuid.UUID
	Status      Status
	Kind        Kind
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

func (b *Bill) Installment() (Installment, bool) {
	i, ok := b.Kind.(Installment)
	return i, ok
}

func (b *Bill) Recurring() (Recurring, bool) {
	r, ok := b.Kind.(Recurring)
	return r, ok
}

func (b *Bill) IsInstallment() bool {
	_, ok := b.Installment()
	return ok
}

func (b *Bill) IsRecurring() bool {
	_, ok := b.Recurring()
	return ok
}

// IsSeriesRoot reports whether deleting b must cascade to child installments.
func (b *Bill) IsSeriesRoot() bool {
	i, ok := b.Installment()
	return ok && i.ParentID == nil
}

// Draft is what a caller submits to create a bill and its series.
// Kind is Plain{}, Installment{Total: n} or Recurring{Type, EndDate}.
type Draft struct {
	Description string
	Amount      decimal.Decimal
	DueDate     civil.Date
	CategoryID  uuid.UUID
	Kind        Kind
	Paid        bool
}

// Validate rejects malformed drafts before anything is written.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return invalid("description", "is required")
	}

	if !d.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}

	if calendar.IsZero(d.DueDate) || !d.DueDate.IsValid() {
		return invalid("due_date", "is required")
	}

	if d.CategoryID == uuid.Nil {
		return invalid("category_id", "is required")
	}

	switch k := d.Kind.(type) {
	case nil, Plain:
	case Installment:
		if k.Total < 1 {
			return invalid("total_installments", "must be at least 1")
		}
	case Recurring:
		if !k.Type.Valid() {
			return invalid("recurrence_type", "must be monthly, weekly or yearly")
		}

		if k.EndDate != nil && k.EndDate.Before(d.DueDate) {
			return invalid("recurrence_end_date", "is before the due date")
		}
	default:
		return invalid("kind", "is unknown")
	}

	return nil
}
