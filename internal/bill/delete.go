package bill

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

// DeleteResult lists the ids removed, children before their root.
type DeleteResult struct {
	Deleted []uuid.UUID
}

// Delete removes a bill. Deleting the root of an installment plan removes
// every child installment first; any other bill, recurring ones included,
// is removed alone.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	b, err := s.getBill(ctx, "getting bill", id)
	if err != nil {
		return nil, err
	}

	var targets []*Bill

	if b.IsSeriesRoot() {
		children, err := s.bills.ListBills(ctx, ListFilter{ParentID: &b.ID})
		if err != nil {
			return nil, &PersistenceError{Op: "listing installments", Err: err}
		}

		targets = children
	}

	targets = append(targets, b)

	res, err := s.deleteAll(ctx, "deleting bill", targets)
	if err != nil {
		return res, err
	}

	slog.Info("bill deleted", "bill_id", b.ID, "deleted", len(res.Deleted))

	return res, nil
}

// DeleteFutureRecurrences removes a recurring occurrence together with every
// later pending occurrence of the same series.
func (s *Service) DeleteFutureRecurrences(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	b, err := s.getBill(ctx, "getting bill", id)
	if err != nil {
		return nil, err
	}

	if !b.IsRecurring() {
		return nil, invalid("kind", "bill is not recurring")
	}

	later, err := s.laterRecurrences(ctx, b)
	if err != nil {
		return nil, &PersistenceError{Op: "listing recurrences", Err: err}
	}

	res, err := s.deleteAll(ctx, "deleting recurrences", append(later, b))
	if err != nil {
		return res, err
	}

	slog.Info("recurrences deleted", "bill_id", b.ID, "deleted", len(res.Deleted))

	return res, nil
}

// deleteAll removes targets in order. A target already gone counts as
// removed.
func (s *Service) deleteAll(ctx context.Context, op string, targets []*Bill) (*DeleteResult, error) {
	res := &DeleteResult{}

	var (
		deleted   []*Bill
		committed []Step
	)

	for _, t := range targets {
		err := s.bills.DeleteBill(ctx, t.ID)
		switch {
		case err == nil:
			res.Deleted = append(res.Deleted, t.ID)
			deleted = append(deleted, t)
			committed = append(committed, StepDeleteBill)
		case isNotFound(err):
			slog.Debug("bill already deleted", "bill_id", t.ID)
		case len(committed) == 0:
			return nil, &PersistenceError{Op: op, Err: err}
		default:
			return res, &PartialFailureError{
				Op:        op,
				Failed:    StepDeleteBill,
				Committed: committed,
				Bills:     deleted,
				Err:       err,
			}
		}
	}

	return res, nil
}

// laterRecurrences returns the pending siblings of b due after it.
func (s *Service) laterRecurrences(ctx context.Context, b *Bill) ([]*Bill, error) {
	return s.bills.ListBills(ctx, ListFilter{
		Description: &b.Description,
		Recurring:   new(true),
		Status:      new(StatusPending),
		DueAfter:    &b.DueDate,
	})
}

// Impact previews what deleting a bill touches.
type Impact struct {
	Bill              *Bill
	ChildInstallments int
	LaterRecurrences  int
	// HasPayment is set when a payment transaction is linked to the bill.
	// Deleting the bill leaves that transaction in place.
	HasPayment bool
}

// Impact reports the children Delete would cascade to, the later pending
// occurrences DeleteFutureRecurrences would remove and whether the bill has
// a payment on the ledger. It writes nothing.
func (s *Service) Impact(ctx context.Context, id uuid.UUID) (*Impact, error) {
	b, err := s.getBill(ctx, "getting bill", id)
	if err != nil {
		return nil, err
	}

	imp := &Impact{Bill: b}

	if b.IsSeriesRoot() {
		children, err := s.bills.ListBills(ctx, ListFilter{ParentID: &b.ID})
		if err != nil {
			return nil, &PersistenceError{Op: "listing installments", Err: err}
		}

		imp.ChildInstallments = len(children)
	}

	if b.IsRecurring() {
		later, err := s.laterRecurrences(ctx, b)
		if err != nil {
			return nil, &PersistenceError{Op: "listing recurrences", Err: err}
		}

		imp.LaterRecurrences = len(later)
	}

	if b.Status == StatusPaid {
		imp.HasPayment, err = s.hasPayment(ctx, b)
		if err != nil {
			return nil, err
		}
	}

	return imp, nil
}

// hasPayment looks for the payment of b by foreign key, then by the legacy
// shared id, then by description.
func (s *Service) hasPayment(ctx context.Context, b *Bill) (bool, error) {
	linked, err := s.ledger.ListTransactions(ctx, transaction.ListFilter{BillID: &b.ID})
	if err != nil {
		return false, &PersistenceError{Op: "listing payments", Err: err}
	}

	if len(linked) > 0 {
		return true, nil
	}

	_, err = s.ledger.GetTransaction(ctx, b.ID)
	switch {
	case err == nil:
		return true, nil
	case !isNotFound(err):
		return false, &PersistenceError{Op: "getting payment", Err: err}
	}

	byDesc, err := s.ledger.ListTransactions(ctx, transaction.ListFilter{
		DescriptionPrefix: new(s.policy.PaymentPrefix + b.Description),
		Type:              new(transaction.TypeExpense),
	})
	if err != nil {
		return false, &PersistenceError{Op: "listing payments", Err: err}
	}

	return len(byDesc) > 0, nil
}
