package bill

import (
	"context"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

// PayResult is everything a payment wrote.
type PayResult struct {
	Bill        *Bill
	Transaction *transaction.Transaction
	Balance     decimal.Decimal
	// Next is the occurrence created for a recurring series, nil when it
	// already existed or the series ended.
	Next *Bill
}

// Pay marks a pending bill paid, posts the matching expense on the account,
// debits the account and, for recurring bills, makes sure the next
// occurrence exists. The writes happen in that order; a failure after the
// bill was marked paid is returned as a *PartialFailureError.
func (s *Service) Pay(ctx context.Context, billID, accountID uuid.UUID) (*PayResult, error) {
	b, err := s.getBill(ctx, "getting bill", billID)
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.GetAccount(ctx, accountID)
	if err != nil {
		return nil, notFoundOr("getting account", err)
	}

	if b.Status != StatusPending {
		return nil, invalid("status", "only pending bills can be paid")
	}

	now := s.now()
	b.Status = StatusPaid
	b.PaidAt = &now

	if err := s.bills.UpdateBill(ctx, b); err != nil {
		return nil, &PersistenceError{Op: "marking bill paid", Err: err}
	}

	res := &PayResult{Bill: b}
	committed := []Step{StepMarkPaid}

	fail := func(step Step, err error) (*PayResult, error) {
		return res, &PartialFailureError{
			Op:        "paying bill",
			Failed:    step,
			Committed: committed,
			Bills:     []*Bill{b},
			Err:       err,
		}
	}

	tx := &transaction.Transaction{
		Type:        transaction.TypeExpense,
		Amount:      b.Amount,
		Date:        now,
		CategoryID:  b.CategoryID,
		AccountID:   acc.ID,
		Description: s.policy.PaymentPrefix + b.Description,
		BillID:      &b.ID,
	}
	if err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		return fail(StepPostTransaction, err)
	}

	res.Transaction = tx
	committed = append(committed, StepPostTransaction)

	balance, err := s.accounts.AdjustBalance(ctx, acc.ID, b.Amount.Neg())
	if err != nil {
		return fail(StepAdjustBalance, err)
	}

	res.Balance = balance
	committed = append(committed, StepAdjustBalance)

	next, err := s.NextOccurrence(ctx, b)
	if err != nil {
		return fail(StepCreateNext, err)
	}

	res.Next = next

	slog.Info("bill paid", "bill_id", b.ID, "account_id", acc.ID, "transaction_id", tx.ID)

	return res, nil
}

// NextOccurrence creates the occurrence after b in its recurring series,
// unless the series ended or a bill with the same description, due date and
// amount already exists. It returns nil when nothing was created, so calling
// it twice for the same bill creates at most one occurrence.
func (s *Service) NextOccurrence(ctx context.Context, b *Bill) (*Bill, error) {
	rec, ok := b.Recurring()
	if !ok || !rec.Type.Valid() {
		return nil, nil
	}

	siblings, err := s.bills.ListBills(ctx, ListFilter{
		Description: &b.Description,
		Recurring:   new(true),
	})
	if err != nil {
		return nil, err
	}

	due := nextDue(b.DueDate, anchorDay(b, siblings), rec.Type)
	if rec.EndDate != nil && due.After(*rec.EndDate) {
		return nil, nil
	}

	for _, sib := range siblings {
		if sib.DueDate == due && sib.Amount.Equal(b.Amount) {
			return nil, nil
		}
	}

	next := &Bill{
		Description: b.Description,
		Amount:      b.Amount,
		DueDate:     due,
		CategoryID:  b.CategoryID,
		Status:      StatusPending,
		Kind:        Recurring{Type: rec.Type, EndDate: rec.EndDate},
	}
	if err := s.bills.CreateBill(ctx, next); err != nil {
		return nil, err
	}

	return next, nil
}

// anchorDay is the day of month the series was started on, taken from its
// earliest occurrence, so a series begun on the 31st returns to month ends
// after a short month.
func anchorDay(b *Bill, siblings []*Bill) int {
	first := b.DueDate

	for _, sib := range siblings {
		if sib.Amount.Equal(b.Amount) && sib.DueDate.Before(first) {
			first = sib.DueDate
		}
	}

	if first.Day < b.DueDate.Day || !isMonthEnd(b.DueDate) {
		return b.DueDate.Day
	}

	return first.Day
}

// isMonthEnd reports whether d is the last day of its month, the only case
// where the anchor may differ from d's own day.
func isMonthEnd(d civil.Date) bool {
	return d.AddDays(1).Month != d.Month
}
