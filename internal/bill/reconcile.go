package bill

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/finny/internal/metrics"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

// ReconcileDeletedTransaction sets the bill a deleted payment settled back to
// pending. A transaction with a BillID reopens only that bill. Older rows
// without one fall back to a bill sharing the transaction's id, then, for
// descriptions carrying the payment prefix, the most recently paid bill with
// the remaining description.
// It returns nil, nil when the transaction paid no bill.
func (s *Service) ReconcileDeletedTransaction(ctx context.Context, tx *transaction.Transaction) (*Bill, error) {
	b, err := s.paidBy(ctx, tx)
	if err != nil || b == nil {
		return nil, err
	}

	if b.Status != StatusPaid {
		return nil, nil
	}

	b.Status = StatusPending
	b.PaidAt = nil

	if err := s.bills.UpdateBill(ctx, b); err != nil {
		return nil, &PersistenceError{Op: "reopening bill", Err: err}
	}

	slog.Info("bill reopened", "bill_id", b.ID, "transaction_id", tx.ID)

	return b, nil
}

// TransactionDeleted lets the service be registered as a ledger delete hook.
// Every reopened bill is counted.
func (s *Service) TransactionDeleted(ctx context.Context, tx *transaction.Transaction) error {
	b, err := s.ReconcileDeletedTransaction(ctx, tx)
	if err != nil {
		return err
	}

	if b != nil {
		metrics.BillReopened()
	}

	return nil
}

func (s *Service) paidBy(ctx context.Context, tx *transaction.Transaction) (*Bill, error) {
	if tx.BillID != nil {
		b, err := s.bills.GetBill(ctx, *tx.BillID)
		switch {
		case err == nil:
			return b, nil
		case isNotFound(err):
			// The linked bill is gone; never fall back to a looser match.
			return nil, nil
		default:
			return nil, &PersistenceError{Op: "getting bill", Err: err}
		}
	}

	b, err := s.bills.GetBill(ctx, tx.ID)
	switch {
	case err == nil:
		return b, nil
	case !isNotFound(err):
		return nil, &PersistenceError{Op: "getting bill", Err: err}
	}

	desc, ok := strings.CutPrefix(tx.Description, s.policy.PaymentPrefix)
	if !ok || desc == "" {
		return nil, nil
	}

	paid, err := s.bills.ListBills(ctx, ListFilter{
		Description: &desc,
		Status:      new(StatusPaid),
	})
	if err != nil {
		return nil, &PersistenceError{Op: "listing paid bills", Err: err}
	}

	if len(paid) == 0 {
		return nil, nil
	}

	return slices.MaxFunc(paid, compareMostRecentlyPaid), nil
}

// compareMostRecentlyPaid orders by paid time, then due date. Bills without a
// paid time rank lowest.
func compareMostRecentlyPaid(a, b *Bill) int {
	switch {
	case a.PaidAt == nil && b.PaidAt != nil:
		return -1
	case a.PaidAt != nil && b.PaidAt == nil:
		return 1
	case a.PaidAt != nil && !a.PaidAt.Equal(*b.PaidAt):
		return a.PaidAt.Compare(*b.PaidAt)
	}

	return a.DueDate.Compare(b.DueDate)
}
