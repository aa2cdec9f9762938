package bill

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/metrics"
)

type Handler struct {
	svc   *bill.Service
	today func() civil.Date
}

func NewHandler(svc *bill.Service) *Handler {
	return &Handler{
		svc:   svc,
		today: func() civil.Date { return calendar.Today(time.Local) },
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.board)
	r.Get("/summary", h.summary)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/impact", h.impact)
	r.Delete("/{id}/recurrences", h.deleteRecurrences)
	r.Post("/{id}/pay", h.pay)
}

type createBillRequest struct {
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           string          `json:"due_date"`
	CategoryID        uuid.UUID       `json:"category_id"`
	TotalInstallments int             `json:"total_installments,omitempty"`
	RecurrenceType    string          `json:"recurrence_type,omitempty"`
	RecurrenceEndDate string          `json:"recurrence_end_date,omitempty"`
	Paid              bool            `json:"paid"`
}

func (req createBillRequest) draft() (bill.Draft, error) {
	due, err := calendar.Parse(req.DueDate)
	if err != nil {
		return bill.Draft{}, &bill.ValidationError{Field: "due_date", Reason: "must be a YYYY-MM-DD date"}
	}

	d := bill.Draft{
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     due,
		CategoryID:  req.CategoryID,
		Kind:        bill.Plain{},
		Paid:        req.Paid,
	}

	switch {
	case req.TotalInstallments > 0 && req.RecurrenceType != "":
		return bill.Draft{}, &bill.ValidationError{Field: "kind", Reason: "a bill is either installments or recurring"}
	case req.TotalInstallments > 0:
		d.Kind = bill.Installment{Total: req.TotalInstallments}
	case req.RecurrenceType != "":
		rec := bill.Recurring{Type: bill.RecurrenceType(req.RecurrenceType)}

		if req.RecurrenceEndDate != "" {
			end, err := calendar.Parse(req.RecurrenceEndDate)
			if err != nil {
				return bill.Draft{}, &bill.ValidationError{Field: "recurrence_end_date", Reason: "must be a YYYY-MM-DD date"}
			}

			rec.EndDate = &end
		}

		d.Kind = rec
	}

	return d, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := req.draft()
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Create(r.Context(), d)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.BillsCreated(kindName(d.Kind), len(res.Bills))

	writeJSON(w, http.StatusCreated, createResponse{Bills: toResponseList(res.Bills)})
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	today, ok := h.todayParam(w, r)
	if !ok {
		return
	}

	groups, err := h.svc.Board(r.Context(), bill.BoardFilter{
		Tab:   bill.Tab(r.URL.Query().Get("tab")),
		Today: today,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGroupList(groups))
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	today, ok := h.todayParam(w, r)
	if !ok {
		return
	}

	var window *int

	switch s := r.URL.Query().Get("window_days"); s {
	case "":
	case "all":
		window = new(bill.UnboundedWindow)
	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "invalid window_days", http.StatusBadRequest)
			return
		}

		window = &n
	}

	buckets, err := h.svc.Summary(r.Context(), today, window)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummary(buckets))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(b))
}

type updateBillRequest struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	CategoryID  *uuid.UUID       `json:"category_id,omitempty"`
	DueDate     *string          `json:"due_date,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req updateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	edit := bill.Edit{
		Description: req.Description,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
	}

	if req.DueDate != nil {
		due, err := calendar.Parse(*req.DueDate)
		if err != nil {
			writeError(w, &bill.ValidationError{Field: "due_date", Reason: "must be a YYYY-MM-DD date"})
			return
		}

		edit.DueDate = &due
	}

	scope := bill.Scope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = bill.ScopeSingle
	}

	updated, err := h.svc.Update(r.Context(), id, edit, scope)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseList(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.BillsDeleted(len(res.Deleted))

	writeJSON(w, http.StatusOK, deleteResponse{Deleted: res.Deleted})
}

func (h *Handler) deleteRecurrences(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	res, err := h.svc.DeleteFutureRecurrences(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.BillsDeleted(len(res.Deleted))

	writeJSON(w, http.StatusOK, deleteResponse{Deleted: res.Deleted})
}

func (h *Handler) impact(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	imp, err := h.svc.Impact(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, impactResponse{
		Bill:              toResponse(imp.Bill),
		ChildInstallments: imp.ChildInstallments,
		LaterRecurrences:  imp.LaterRecurrences,
		HasPayment:        imp.HasPayment,
	})
}

type payRequest struct {
	AccountID uuid.UUID `json:"account_id"`
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.AccountID == uuid.Nil {
		writeError(w, &bill.ValidationError{Field: "account_id", Reason: "is required"})
		return
	}

	res, err := h.svc.Pay(r.Context(), id, req.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.BillPaid()

	if res.Next != nil {
		metrics.BillsCreated(kindRecurring, 1)
	}

	writeJSON(w, http.StatusOK, toPayResponse(res))
}

func (h *Handler) todayParam(w http.ResponseWriter, r *http.Request) (civil.Date, bool) {
	s := r.URL.Query().Get("today")
	if s == "" {
		return h.today(), true
	}

	d, err := calendar.Parse(s)
	if err != nil {
		http.Error(w, "invalid today", http.StatusBadRequest)
		return civil.Date{}, false
	}

	return d, true
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func kindName(k bill.Kind) string {
	switch k.(type) {
	case bill.Installment:
		return kindInstallment
	case bill.Recurring:
		return kindRecurring
	}

	return kindPlain
}

// writeError maps engine errors onto status codes: 404 for missing records,
// 422 for rejected input and 500 for store failures. A partial failure is
// always a 500 whose body lists the committed and failed steps, whatever
// error stopped it.
func writeError(w http.ResponseWriter, err error) {
	var (
		invalid *bill.ValidationError
		partial *bill.PartialFailureError
	)

	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Field: invalid.Field})
	case errors.As(err, &partial):
		slog.Error("partial failure", "op", partial.Op, "failed_step", partial.Failed, "error", partial.Err)
		metrics.PartialFailure(partial.Op, string(partial.Failed))

		resp := errorResponse{
			Error:  err.Error(),
			Op:     partial.Op,
			Failed: string(partial.Failed),
		}
		for _, s := range partial.Committed {
			resp.Committed = append(resp.Committed, string(s))
		}

		for _, b := range partial.Bills {
			resp.Bills = append(resp.Bills, b.ID)
		}

		writeJSON(w, http.StatusInternalServerError, resp)
	case errors.Is(err, bill.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		slog.Error("bill request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
