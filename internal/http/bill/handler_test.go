package bill

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/memstore"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

type fixture struct {
	router   chi.Router
	store    *memstore.Store
	account  *account.Account
	category *category.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	store := memstore.New(nil)

	svc := bill.NewService(store, store, store, bill.DefaultPolicy(), bill.WithCategories(store))
	transaction.NewService(store, store).OnDelete(svc)

	acc, err := account.NewService(store).Create(ctx, account.CreateParams{
		Name:    "Checking",
		Type:    account.TypeBank,
		Balance: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	cat := &category.Category{Name: "Utilities", Type: category.TypeExpense}
	require.NoError(t, category.NewService(store).Create(ctx, cat))

	h := NewHandler(svc)
	h.today = func() civil.Date { return civil.Date{Year: 2024, Month: 3, Day: 10} }

	r := chi.NewRouter()
	r.Route("/bills", h.Routes)

	return &fixture{router: r, store: store, account: acc, category: cat}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))

	return v
}

func (f *fixture) create(t *testing.T, body map[string]any) []billResponse {
	t.Helper()

	body["category_id"] = f.category.ID
	rec := f.do(t, http.MethodPost, "/bills", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[createResponse](t, rec).Bills
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCount  int
		wantField  string
	}{
		{
			name:       "Plain",
			body:       map[string]any{"description": "Gym", "amount": "30", "due_date": "2024-03-15"},
			wantStatus: http.StatusCreated,
			wantCount:  1,
		},
		{
			name:       "Installments",
			body:       map[string]any{"description": "TV", "amount": "100", "due_date": "2024-01-31", "total_installments": 3},
			wantStatus: http.StatusCreated,
			wantCount:  3,
		},
		{
			name: "RecurringWithEnd",
			body: map[string]any{
				"description": "Rent", "amount": "800", "due_date": "2024-01-05",
				"recurrence_type": "monthly", "recurrence_end_date": "2024-04-05",
			},
			wantStatus: http.StatusCreated,
			wantCount:  4,
		},
		{
			name:       "NonPositiveAmount",
			body:       map[string]any{"description": "Gym", "amount": "0", "due_date": "2024-03-15"},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "amount",
		},
		{
			name:       "BadDueDate",
			body:       map[string]any{"description": "Gym", "amount": "30", "due_date": "15/03/2024"},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "due_date",
		},
		{
			name: "BothKinds",
			body: map[string]any{
				"description": "Gym", "amount": "30", "due_date": "2024-03-15",
				"total_installments": 2, "recurrence_type": "weekly",
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.body["category_id"] = f.category.ID

			rec := f.do(t, http.MethodPost, "/bills", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, decode[errorResponse](t, rec).Field)
				return
			}

			assert.Len(t, decode[createResponse](t, rec).Bills, tt.wantCount)
		})
	}
}

func TestHandler_InstallmentDates(t *testing.T) {
	f := newFixture(t)

	bills := f.create(t, map[string]any{
		"description": "TV", "amount": "100", "due_date": "2024-01-31", "total_installments": 3,
	})

	require.Len(t, bills, 3)
	assert.Equal(t, "installment", bills[0].Kind)
	assert.Nil(t, bills[0].Installment.ParentID)
	assert.Equal(t, civil.Date{Year: 2024, Month: 2, Day: 29}, bills[1].DueDate)
	assert.Equal(t, bills[0].ID, *bills[2].Installment.ParentID)
	assert.Equal(t, 3, bills[2].Installment.Current)
}

func TestHandler_Get_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/bills/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/bills/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Pay(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, map[string]any{
		"description": "Internet", "amount": "59.90", "due_date": "2024-03-31", "recurrence_type": "monthly",
		"recurrence_end_date": "2024-03-31",
	})
	require.Len(t, created, 1)

	path := "/bills/" + created[0].ID.String() + "/pay"

	rec := f.do(t, http.MethodPost, path, map[string]any{"account_id": f.account.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[payResponse](t, rec)
	assert.Equal(t, bill.StatusPaid, resp.Bill.Status)
	require.NotNil(t, resp.Transaction)
	assert.Equal(t, "Payment: Internet", resp.Transaction.Description)
	assert.True(t, decimal.RequireFromString("440.1").Equal(*resp.Balance))
	assert.Nil(t, resp.Next, "series ended on the paid occurrence")

	rec = f.do(t, http.MethodPost, path, map[string]any{"account_id": f.account.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPost, path, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "account_id", decode[errorResponse](t, rec).Field)
}

func TestHandler_Pay_UnknownAccount(t *testing.T) {
	f := newFixture(t)

	created := f.create(t, map[string]any{"description": "Gym", "amount": "30", "due_date": "2024-03-15"})

	rec := f.do(t, http.MethodPost, "/bills/"+created[0].ID.String()+"/pay", map[string]any{"account_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_BoardAndSummary(t *testing.T) {
	f := newFixture(t)

	f.create(t, map[string]any{"description": "Water", "amount": "20", "due_date": "2024-03-01"})
	f.create(t, map[string]any{"description": "Power", "amount": "40", "due_date": "2024-03-10"})
	f.create(t, map[string]any{"description": "Phone", "amount": "15", "due_date": "2024-03-12"})
	f.create(t, map[string]any{"description": "Insurance", "amount": "90", "due_date": "2024-05-01"})

	rec := f.do(t, http.MethodGet, "/bills?tab=overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	groups := decode[[]groupResponse](t, rec)
	require.Len(t, groups, 1)
	assert.Equal(t, "Water", groups[0].Bills[0].Description)

	rec = f.do(t, http.MethodGet, "/bills?tab=upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]groupResponse](t, rec), 2, "board upcoming is unbounded")

	rec = f.do(t, http.MethodGet, "/bills?tab=later", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodGet, "/bills/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sum := decode[summaryResponse](t, rec)
	assert.Len(t, sum.Overdue, 1)
	assert.Len(t, sum.DueToday, 1)
	assert.Len(t, sum.Upcoming, 1, "default window excludes May")

	rec = f.do(t, http.MethodGet, "/bills/summary?window_days=90&today=2024-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sum = decode[summaryResponse](t, rec)
	assert.Empty(t, sum.Overdue)
	assert.Len(t, sum.DueToday, 1)
	assert.Len(t, sum.Upcoming, 3)

	rec = f.do(t, http.MethodGet, "/bills/summary?window_days=all&today=2024-03-10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[summaryResponse](t, rec).Upcoming, 2, "unbounded window includes May")

	rec = f.do(t, http.MethodGet, "/bills/summary?window_days=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteAndImpact(t *testing.T) {
	f := newFixture(t)

	plan := f.create(t, map[string]any{
		"description": "Sofa", "amount": "250", "due_date": "2024-02-10", "total_installments": 4,
	})
	root := plan[0].ID.String()

	rec := f.do(t, http.MethodGet, "/bills/"+root+"/impact", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	imp := decode[impactResponse](t, rec)
	assert.Equal(t, 3, imp.ChildInstallments)
	assert.False(t, imp.HasPayment)

	rec = f.do(t, http.MethodDelete, "/bills/"+root, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	del := decode[deleteResponse](t, rec)
	require.Len(t, del.Deleted, 4)
	assert.Equal(t, plan[0].ID, del.Deleted[3], "root goes last")

	rec = f.do(t, http.MethodGet, "/bills/"+plan[2].ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_DeleteRecurrences(t *testing.T) {
	f := newFixture(t)

	series := f.create(t, map[string]any{
		"description": "Cleaner", "amount": "60", "due_date": "2024-03-04",
		"recurrence_type": "weekly", "recurrence_end_date": "2024-03-25",
	})
	require.Len(t, series, 4)

	rec := f.do(t, http.MethodDelete, "/bills/"+series[2].ID.String()+"/recurrences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []uuid.UUID{series[2].ID, series[3].ID}, decode[deleteResponse](t, rec).Deleted)

	plain := f.create(t, map[string]any{"description": "Gym", "amount": "30", "due_date": "2024-03-15"})

	rec = f.do(t, http.MethodDelete, "/bills/"+plain[0].ID.String()+"/recurrences", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandler_Update(t *testing.T) {
	f := newFixture(t)

	plan := f.create(t, map[string]any{
		"description": "Laptop", "amount": "300", "due_date": "2024-02-10", "total_installments": 3,
	})

	rec := f.do(t, http.MethodPatch, "/bills/"+plan[1].ID.String()+"?scope=series", map[string]any{"amount": "320"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode[[]billResponse](t, rec)
	require.Len(t, updated, 3)

	for _, b := range updated {
		assert.True(t, decimal.NewFromInt(320).Equal(b.Amount))
	}

	rec = f.do(t, http.MethodPatch, "/bills/"+plan[1].ID.String()+"?scope=series", map[string]any{"due_date": "2024-03-01"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.do(t, http.MethodPatch, "/bills/"+plan[1].ID.String(), map[string]any{"due_date": "2024-03-01"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 1}, decode[[]billResponse](t, rec)[0].DueDate)

	rec = f.do(t, http.MethodPatch, "/bills/"+plan[1].ID.String()+"?scope=all", map[string]any{"amount": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWriteError(t *testing.T) {
	paid := &bill.Bill{ID: uuid.New()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		check      func(t *testing.T, resp errorResponse)
	}{
		{
			name:       "NotFound",
			err:        bill.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Validation",
			err:        &bill.ValidationError{Field: "amount", Reason: "must be greater than zero"},
			wantStatus: http.StatusUnprocessableEntity,
			check: func(t *testing.T, resp errorResponse) {
				assert.Equal(t, "amount", resp.Field)
			},
		},
		{
			name: "PartialFailure",
			err: &bill.PartialFailureError{
				Op:        "paying bill",
				Failed:    bill.StepAdjustBalance,
				Committed: []bill.Step{bill.StepMarkPaid, bill.StepPostTransaction},
				Bills:     []*bill.Bill{paid},
				Err:       errors.New("connection reset"),
			},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, resp errorResponse) {
				assert.Equal(t, "paying bill", resp.Op)
				assert.Equal(t, "adjust_balance", resp.Failed)
				assert.Equal(t, []string{"mark_paid", "post_transaction"}, resp.Committed)
				assert.Equal(t, []uuid.UUID{paid.ID}, resp.Bills)
			},
		},
		{
			name: "PartialFailureWrappingNotFound",
			err: &bill.PartialFailureError{
				Op:        "deleting bill",
				Failed:    bill.StepDeleteBill,
				Committed: []bill.Step{bill.StepDeleteBill},
				Bills:     []*bill.Bill{paid},
				Err:       bill.ErrNotFound,
			},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, resp errorResponse) {
				assert.Equal(t, "deleting bill", resp.Op)
				assert.Equal(t, "delete_bill", resp.Failed)
				assert.Equal(t, []string{"delete_bill"}, resp.Committed)
				assert.Equal(t, []uuid.UUID{paid.ID}, resp.Bills)
			},
		},
		{
			name:       "Persistence",
			err:        &bill.PersistenceError{Op: "listing bills", Err: errors.New("timeout")},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, resp errorResponse) {
				assert.Equal(t, "internal error", resp.Error)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.check != nil {
				tt.check(t, decode[errorResponse](t, rec))
			}
		})
	}
}
