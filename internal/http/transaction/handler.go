package transaction

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

type Handler struct {
	svc *transaction.Service
}

func NewHandler(svc *transaction.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

type createTransactionRequest struct {
	Type        transaction.Type `json:"type"`
	Amount      decimal.Decimal  `json:"amount"`
	Date        time.Time        `json:"date"`
	CategoryID  uuid.UUID        `json:"category_id"`
	AccountID   uuid.UUID        `json:"account_id"`
	Description string           `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.AccountID == uuid.Nil {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}

	if req.Date.IsZero() {
		req.Date = time.Now()
	}

	tx, err := h.svc.Create(r.Context(), transaction.CreateParams{
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        req.Date,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Description: req.Description,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := transaction.ListFilter{}
	q := r.URL.Query()

	if s := q.Get("type"); s != "" {
		filter.Type = new(transaction.Type(s))
	}

	if s := q.Get("account_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.AccountID = &id
		}
	}

	if s := q.Get("bill_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.BillID = &id
		}
	}

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

	txs, err := h.svc.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	tx, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// delete removes the entry, restores the account balance and reopens the
// bill it paid, if any.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, transaction.ErrNotFound) {
			http.Error(w, "transaction not found", http.StatusNotFound)
			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
