// Package dashboard serves the home screen figures: balances, ledger totals
// and the bill buckets.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

type Handler struct {
	accounts     *account.Service
	transactions *transaction.Service
	categories   *category.Service
	bills        *bill.Service
	today        func() civil.Date
}

func NewHandler(accounts *account.Service, transactions *transaction.Service, categories *category.Service, bills *bill.Service) *Handler {
	return &Handler{
		accounts:     accounts,
		transactions: transactions,
		categories:   categories,
		bills:        bills,
		today:        func() civil.Date { return calendar.Today(time.Local) },
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
}

type categoryTotal struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
}

type bucketResponse struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type billsResponse struct {
	Overdue  bucketResponse `json:"overdue"`
	DueToday bucketResponse `json:"due_today"`
	Upcoming bucketResponse `json:"upcoming"`
}

type dashboardResponse struct {
	TotalBalance       decimal.Decimal `json:"total_balance"`
	Income             decimal.Decimal `json:"income"`
	Expense            decimal.Decimal `json:"expense"`
	ExpensesByCategory []categoryTotal `json:"expenses_by_category"`
	Bills              billsResponse   `json:"bills"`
}

func bucket(bills []*bill.Bill) bucketResponse {
	total := decimal.Zero
	for _, b := range bills {
		total = total.Add(b.Amount)
	}

	return bucketResponse{Count: len(bills), Amount: total}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := transaction.ListFilter{}

	if s := q.Get("start_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.StartDate = new(t)
		}
	}

	if s := q.Get("end_date"); s != "" {
		if t, err := time.Parse(time.DateOnly, s); err == nil {
			filter.EndDate = new(t)
		}
	}

	today := h.today()

	if s := q.Get("today"); s != "" {
		d, err := calendar.Parse(s)
		if err != nil {
			http.Error(w, "invalid today", http.StatusBadRequest)
			return
		}

		today = d
	}

	balance, err := h.accounts.TotalBalance(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}

	totals, err := h.transactions.Totals(ctx, filter)
	if err != nil {
		h.fail(w, err)
		return
	}

	cats, err := h.categories.List(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}

	buckets, err := h.bills.Summary(ctx, today, nil)
	if err != nil {
		h.fail(w, err)
		return
	}

	names := make(map[uuid.UUID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	byCategory := make([]categoryTotal, 0, len(totals.ExpenseByCategory))
	for id, amount := range totals.ExpenseByCategory {
		byCategory = append(byCategory, categoryTotal{CategoryID: id, Name: names[id], Amount: amount})
	}

	slices.SortFunc(byCategory, func(a, b categoryTotal) int {
		return b.Amount.Cmp(a.Amount)
	})

	resp := dashboardResponse{
		TotalBalance:       balance,
		Income:             totals.Income,
		Expense:            totals.Expense,
		ExpensesByCategory: byCategory,
		Bills: billsResponse{
			Overdue:  bucket(buckets.Overdue),
			DueToday: bucket(buckets.DueToday),
			Upcoming: bucket(buckets.Upcoming),
		},
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	slog.Error("failed to build dashboard", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
