package bill

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

type billResponse struct {
	ID          uuid.UUID            `json:"id"`
	Description string               `json:"description"`
	Amount      decimal.Decimal      `json:"amount"`
	DueDate     civil.Date           `json:"due_date"`
	CategoryID  uuid.UUID            `json:"category_id"`
	Status      bill.Status          `json:"status"`
	Kind        string               `json:"kind"`
	Installment *installmentResponse `json:"installment,omitempty"`
	Recurrence  *recurrenceResponse  `json:"recurrence,omitempty"`
	PaidAt      *time.Time           `json:"paid_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   *time.Time           `json:"updated_at,omitempty"`
}

type installmentResponse struct {
	Total    int        `json:"total"`
	Current  int        `json:"current"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

type recurrenceResponse struct {
	Type    bill.RecurrenceType `json:"type"`
	EndDate *civil.Date         `json:"end_date,omitempty"`
}

const (
	kindPlain       = "plain"
	kindInstallment = "installment"
	kindRecurring   = "recurring"
)

func toResponse(b *bill.Bill) billResponse {
	resp := billResponse{
		ID:          b.ID,
		Description: b.Description,
		Amount:      b.Amount,
		DueDate:     b.DueDate,
		CategoryID:  b.CategoryID,
		Status:      b.Status,
		Kind:        kindPlain,
		PaidAt:      b.PaidAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}

	switch k := b.Kind.(type) {
	case bill.Installment:
		resp.Kind = kindInstallment
		resp.Installment = &installmentResponse{Total: k.Total, Current: k.Current, ParentID: k.ParentID}
	case bill.Recurring:
		resp.Kind = kindRecurring
		resp.Recurrence = &recurrenceResponse{Type: k.Type, EndDate: k.EndDate}
	}

	return resp
}

func toResponseList(bills []*bill.Bill) []billResponse {
	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		resp[i] = toResponse(b)
	}

	return resp
}

type createResponse struct {
	Bills []billResponse `json:"bills"`
}

type groupResponse struct {
	Date  civil.Date     `json:"date"`
	Bills []billResponse `json:"bills"`
}

func toGroupList(groups []bill.Group) []groupResponse {
	resp := make([]groupResponse, len(groups))
	for i, g := range groups {
		resp[i] = groupResponse{Date: g.Date, Bills: toResponseList(g.Bills)}
	}

	return resp
}

type summaryResponse struct {
	Overdue  []billResponse `json:"overdue"`
	DueToday []billResponse `json:"due_today"`
	Upcoming []billResponse `json:"upcoming"`
}

func toSummary(b bill.Buckets) summaryResponse {
	return summaryResponse{
		Overdue:  toResponseList(b.Overdue),
		DueToday: toResponseList(b.DueToday),
		Upcoming: toResponseList(b.Upcoming),
	}
}

type transactionResponse struct {
	ID          uuid.UUID        `json:"id"`
	Type        transaction.Type `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Date        time.Time        `json:"date"`
	AccountID   uuid.UUID        `json:"account_id"`
	Description string           `json:"description"`
}

type payResponse struct {
	Bill        billResponse         `json:"bill"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
	Balance     *decimal.Decimal     `json:"balance,omitempty"`
	Next        *billResponse        `json:"next,omitempty"`
}

func toPayResponse(res *bill.PayResult) payResponse {
	resp := payResponse{Bill: toResponse(res.Bill)}

	if tx := res.Transaction; tx != nil {
		resp.Transaction = &transactionResponse{
			ID:          tx.ID,
			Type:        tx.Type,
			Amount:      tx.Amount,
			Date:        tx.Date,
			AccountID:   tx.AccountID,
			Description: tx.Description,
		}
		resp.Balance = &res.Balance
	}

	if res.Next != nil {
		resp.Next = new(toResponse(res.Next))
	}

	return resp
}

type impactResponse struct {
	Bill              billResponse `json:"bill"`
	ChildInstallments int          `json:"child_installments"`
	LaterRecurrences  int          `json:"later_recurrences"`
	HasPayment        bool         `json:"has_payment"`
}

type deleteResponse struct {
	Deleted []uuid.UUID `json:"deleted"`
}

type errorResponse struct {
	Error     string      `json:"error"`
	Field     string      `json:"field,omitempty"`
	Op        string      `json:"op,omitempty"`
	Failed    string      `json:"failed_step,omitempty"`
	Committed []string    `json:"committed_steps,omitempty"`
	Bills     []uuid.UUID `json:"bills,omitempty"`
}
