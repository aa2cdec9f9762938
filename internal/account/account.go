package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("account not found")

// Type classifies where the money is held.
type Type string

const (
	TypeBank       Type = "bank"
	TypeCash       Type = "cash"
	TypeCredit     Type = "credit"
	TypeInvestment Type = "investment"
)

func (t Type) Valid() bool {
	switch t {
	case TypeBank, TypeCash, TypeCredit, TypeInvestment:
		return true
	}

	return false
}

// Account holds a running balance. The balance only moves through
// Repository.AdjustBalance when transactions are posted or reversed.
type Account struct {
	ID        uuid.UUID
	Name      string
	Balance   decimal.Decimal
	Type      Type
	CreatedAt time.Time
}
