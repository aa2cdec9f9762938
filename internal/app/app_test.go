package app

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/config"
	"github.com/MrJamesThe3rd/finny/internal/realtime"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

func newMemoryApp(t *testing.T) *App {
	t.Helper()

	t.Setenv("STORE", config.StoreMemory)

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, a.Close(context.Background())) })

	return a
}

func TestNew_Memory(t *testing.T) {
	a := newMemoryApp(t)

	assert.Nil(t, a.DB())
	assert.NoError(t, a.Listen(context.Background()))
}

func TestApp_PayAndReverse(t *testing.T) {
	ctx := context.Background()
	a := newMemoryApp(t)

	acc, err := a.Accounts.Create(ctx, account.CreateParams{Name: "Main", Type: account.TypeBank, Balance: decimal.NewFromInt(200)})
	require.NoError(t, err)

	cat := &category.Category{Name: "Rent", Type: category.TypeExpense}
	require.NoError(t, a.Categories.Create(ctx, cat))

	var events []realtime.Event

	unsubscribe, err := a.Registry.Subscribe(realtime.TableBills, func(e realtime.Event) {
		events = append(events, e)
	})
	require.NoError(t, err)
	defer unsubscribe()

	created, err := a.Bills.Create(ctx, bill.Draft{
		Description: "Rent",
		Amount:      decimal.NewFromInt(150),
		DueDate:     civil.Date{Year: 2025, Month: 1, Day: 31},
		CategoryID:  cat.ID,
		Kind:        bill.Recurring{Type: bill.RecurrenceMonthly, EndDate: &civil.Date{Year: 2025, Month: 2, Day: 28}},
	})
	require.NoError(t, err)
	require.Len(t, created.Bills, 2)

	paid, err := a.Bills.Pay(ctx, created.Bills[0].ID, acc.ID)
	require.NoError(t, err)
	assert.Nil(t, paid.Next, "February occurrence already exists")

	require.NoError(t, a.Transactions.Delete(ctx, paid.Transaction.ID))

	b, err := a.Bills.Get(ctx, paid.Bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.StatusPending, b.Status)

	got, err := a.Accounts.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(200).Equal(got.Balance))

	payments, err := a.Transactions.List(ctx, transaction.ListFilter{BillID: &b.ID})
	require.NoError(t, err)
	assert.Empty(t, payments)

	// create x2, mark paid, reopen
	assert.Len(t, events, 4)
}
