package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("transaction not found")

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Transaction is a ledger entry against an account.
type Transaction struct {
	ID          uuid.UUID
	Type        Type
	Amount      decimal.Decimal // always positive; Type gives the direction
	Date        time.Time
	CategoryID  uuid.UUID
	AccountID   uuid.UUID
	Description string
	BillID      *uuid.UUID // set when the entry pays a bill
	CreatedAt   time.Time
	DeletedAt   *time.Time
}

// BalanceEffect is the change this transaction applies to its account.
func (t *Transaction) BalanceEffect() decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}

	return t.Amount
}
