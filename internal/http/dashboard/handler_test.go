package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/memstore"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

func TestHandler_Get(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(nil)

	accounts := account.NewService(store)
	transactions := transaction.NewService(store, store)
	categories := category.NewService(store)
	bills := bill.NewService(store, store, store, bill.DefaultPolicy())

	acc, err := accounts.Create(ctx, account.CreateParams{Name: "Main", Type: account.TypeBank, Balance: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	_, err = accounts.Create(ctx, account.CreateParams{Name: "Cash", Type: account.TypeCash, Balance: decimal.NewFromInt(50)})
	require.NoError(t, err)

	food := &category.Category{Name: "Food", Type: category.TypeExpense}
	home := &category.Category{Name: "Home", Type: category.TypeExpense}
	require.NoError(t, categories.Create(ctx, food))
	require.NoError(t, categories.Create(ctx, home))

	day := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	for _, p := range []transaction.CreateParams{
		{Type: transaction.TypeIncome, Amount: decimal.NewFromInt(300), Date: day, AccountID: acc.ID},
		{Type: transaction.TypeExpense, Amount: decimal.NewFromInt(20), Date: day, AccountID: acc.ID, CategoryID: food.ID},
		{Type: transaction.TypeExpense, Amount: decimal.NewFromInt(80), Date: day, AccountID: acc.ID, CategoryID: home.ID},
	} {
		_, err := transactions.Create(ctx, p)
		require.NoError(t, err)
	}

	for _, due := range []civil.Date{{Year: 2024, Month: 6, Day: 1}, {Year: 2024, Month: 6, Day: 5}, {Year: 2024, Month: 6, Day: 7}} {
		_, err := bills.Create(ctx, bill.Draft{
			Description: "Bill",
			Amount:      decimal.NewFromInt(10),
			DueDate:     due,
			CategoryID:  home.ID,
		})
		require.NoError(t, err)
	}

	h := NewHandler(accounts, transactions, categories, bills)
	h.today = func() civil.Date { return civil.Date{Year: 2024, Month: 6, Day: 5} }

	r := chi.NewRouter()
	r.Route("/dashboard", h.Routes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboardResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.True(t, decimal.NewFromInt(1250).Equal(resp.TotalBalance), resp.TotalBalance.String())
	assert.True(t, decimal.NewFromInt(300).Equal(resp.Income))
	assert.True(t, decimal.NewFromInt(100).Equal(resp.Expense))

	require.Len(t, resp.ExpensesByCategory, 2)
	assert.Equal(t, "Home", resp.ExpensesByCategory[0].Name)

	assert.Equal(t, 1, resp.Bills.Overdue.Count)
	assert.Equal(t, 1, resp.Bills.DueToday.Count)
	assert.Equal(t, 1, resp.Bills.Upcoming.Count)
	assert.True(t, decimal.NewFromInt(10).Equal(resp.Bills.Upcoming.Amount))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard?today=someday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
