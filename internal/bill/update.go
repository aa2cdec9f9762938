package bill

import (
	"context"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/calendar"
)

// Scope selects which occurrences an edit applies to.
type Scope string

const (
	ScopeSingle Scope = "single"
	// ScopeSeries covers every installment of the plan, or this and every
	// later pending occurrence of a recurring series.
	ScopeSeries Scope = "series"
)

func (s Scope) Valid() bool {
	return s == ScopeSingle || s == ScopeSeries
}

// Edit holds the fields to change. Nil fields are left untouched.
type Edit struct {
	Description *string
	Amount      *decimal.Decimal
	CategoryID  *uuid.UUID
	DueDate     *civil.Date
}

func (e Edit) validate(scope Scope) error {
	if !scope.Valid() {
		return invalid("scope", "must be single or series")
	}

	if e.Description != nil && strings.TrimSpace(*e.Description) == "" {
		return invalid("description", "is required")
	}

	if e.Amount != nil && !e.Amount.IsPositive() {
		return invalid("amount", "must be greater than zero")
	}

	if e.CategoryID != nil && *e.CategoryID == uuid.Nil {
		return invalid("category_id", "is required")
	}

	if e.DueDate != nil {
		if scope == ScopeSeries {
			return invalid("due_date", "can only be changed on a single occurrence")
		}

		if calendar.IsZero(*e.DueDate) || !e.DueDate.IsValid() {
			return invalid("due_date", "is required")
		}
	}

	return nil
}

func (e Edit) apply(b *Bill) {
	if e.Description != nil {
		b.Description = strings.TrimSpace(*e.Description)
	}

	if e.Amount != nil {
		b.Amount = *e.Amount
	}

	if e.CategoryID != nil {
		b.CategoryID = *e.CategoryID
	}

	if e.DueDate != nil {
		b.DueDate = *e.DueDate
	}
}

// Update applies an edit to one occurrence or to its series and returns the
// bills written, the requested one first.
func (s *Service) Update(ctx context.Context, id uuid.UUID, e Edit, scope Scope) ([]*Bill, error) {
	if err := e.validate(scope); err != nil {
		return nil, err
	}

	b, err := s.getBill(ctx, "getting bill", id)
	if err != nil {
		return nil, err
	}

	if e.CategoryID != nil && s.categories != nil {
		if _, err := s.categories.GetCategory(ctx, *e.CategoryID); err != nil {
			return nil, notFoundOr("checking category", err)
		}
	}

	targets := []*Bill{b}

	if scope == ScopeSeries {
		rest, err := s.series(ctx, b)
		if err != nil {
			return nil, &PersistenceError{Op: "listing series", Err: err}
		}

		targets = append(targets, rest...)
	}

	var (
		updated   []*Bill
		committed []Step
	)

	now := s.now()

	for _, t := range targets {
		e.apply(t)
		t.UpdatedAt = &now

		if err := s.bills.UpdateBill(ctx, t); err != nil {
			if len(committed) == 0 {
				return nil, &PersistenceError{Op: "updating bill", Err: err}
			}

			return updated, &PartialFailureError{
				Op:        "updating series",
				Failed:    StepUpdateBill,
				Committed: committed,
				Bills:     updated,
				Err:       err,
			}
		}

		updated = append(updated, t)
		committed = append(committed, StepUpdateBill)
	}

	slog.Info("bill updated", "bill_id", b.ID, "scope", scope, "updated", len(updated))

	return updated, nil
}

// series returns the other occurrences an edit of b with ScopeSeries covers.
func (s *Service) series(ctx context.Context, b *Bill) ([]*Bill, error) {
	if inst, ok := b.Installment(); ok {
		rootID := b.ID
		if inst.ParentID != nil {
			rootID = *inst.ParentID
		}

		children, err := s.bills.ListBills(ctx, ListFilter{ParentID: &rootID})
		if err != nil {
			return nil, err
		}

		var out []*Bill

		if rootID != b.ID {
			root, err := s.bills.GetBill(ctx, rootID)
			if err != nil && !isNotFound(err) {
				return nil, err
			}

			if root != nil {
				out = append(out, root)
			}
		}

		for _, c := range children {
			if c.ID != b.ID {
				out = append(out, c)
			}
		}

		return out, nil
	}

	if b.IsRecurring() {
		return s.laterRecurrences(ctx, b)
	}

	return nil, nil
}
