package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

type transactionResponse struct {
	ID          uuid.UUID        `json:"id"`
	Type        transaction.Type `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Date        time.Time        `json:"date"`
	CategoryID  uuid.UUID        `json:"category_id"`
	AccountID   uuid.UUID        `json:"account_id"`
	Description string           `json:"description"`
	BillID      *uuid.UUID       `json:"bill_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Date:        tx.Date,
		CategoryID:  tx.CategoryID,
		AccountID:   tx.AccountID,
		Description: tx.Description,
		BillID:      tx.BillID,
		CreatedAt:   tx.CreatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
