package bill_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

type mocks struct {
	bills      *bill.MockRepository
	accounts   *bill.MockAccounts
	ledger     *bill.MockLedger
	categories *bill.MockCategories
}

func newService(t *testing.T) (*bill.Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		bills:      bill.NewMockRepository(ctrl),
		accounts:   bill.NewMockAccounts(ctrl),
		ledger:     bill.NewMockLedger(ctrl),
		categories: bill.NewMockCategories(ctrl),
	}

	svc := bill.NewService(m.bills, m.accounts, m.ledger, bill.DefaultPolicy(),
		bill.WithCategories(m.categories),
		bill.WithClock(func() time.Time { return fixedNow }),
	)

	return svc, m
}

func assignID(_ context.Context, b *bill.Bill) error {
	b.ID = uuid.New()
	return nil
}

func TestService_Create(t *testing.T) {
	dbErr := errors.New("db error")

	type testCase struct {
		name      string
		draft     bill.Draft
		setupMock func(m mocks)
		wantLen   int
		wantErr   error
		check     func(t *testing.T, res *bill.CreateResult, err error)
	}

	tests := []testCase{
		{
			name:  "InstallmentPlan",
			draft: draft(date(2024, 1, 31), bill.Installment{Total: 3}),
			setupMock: func(m mocks) {
				m.categories.EXPECT().GetCategory(gomock.Any(), gomock.Any()).Return(&category.Category{}, nil)
				m.bills.EXPECT().CreateBill(gomock.Any(), gomock.Any()).DoAndReturn(assignID).Times(3)
			},
			wantLen: 3,
			check: func(t *testing.T, res *bill.CreateResult, _ error) {
				root := res.Bills[0]
				assert.True(t, root.IsSeriesRoot())

				for i, b := range res.Bills {
					inst, ok := b.Installment()
					require.True(t, ok)
					assert.Equal(t, 3, inst.Total)
					assert.Equal(t, i+1, inst.Current)
					assert.Equal(t, bill.StatusPending, b.Status)

					if i > 0 {
						require.NotNil(t, inst.ParentID)
						assert.Equal(t, root.ID, *inst.ParentID)
					}
				}

				assert.Equal(t, date(2024, 2, 29), res.Bills[1].DueDate)
				assert.Equal(t, date(2024, 3, 31), res.Bills[2].DueDate)
			},
		},
		{
			name: "CreatedPaid",
			draft: func() bill.Draft {
				d := draft(date(2024, 3, 1), bill.Plain{})
				d.Paid = true
				d.Description = "  Gym  "

				return d
			}(),
			setupMock: func(m mocks) {
				m.categories.EXPECT().GetCategory(gomock.Any(), gomock.Any()).Return(&category.Category{}, nil)
				m.bills.EXPECT().CreateBill(gomock.Any(), gomock.Any()).DoAndReturn(assignID)
			},
			wantLen: 1,
			check: func(t *testing.T, res *bill.CreateResult, _ error) {
				b := res.Bills[0]
				assert.Equal(t, "Gym", b.Description)
				assert.Equal(t, bill.StatusPaid, b.Status)
				require.NotNil(t, b.PaidAt)
				assert.Equal(t, fixedNow, *b.PaidAt)
				assert.Equal(t, bill.Plain{}, b.Kind)
			},
		},
		{
			name:    "InvalidAmount",
			draft:   bill.Draft{Description: "Rent", Amount: decimal.Zero, DueDate: date(2024, 3, 1), CategoryID: uuid.New()},
			wantErr: bill.ErrValidation,
		},
		{
			name:    "InvalidRecurrenceType",
			draft:   draft(date(2024, 3, 1), bill.Recurring{Type: "daily"}),
			wantErr: bill.ErrValidation,
		},
		{
			name:    "BlankDescription",
			draft:   bill.Draft{Description: "   ", Amount: decimal.NewFromInt(1), DueDate: date(2024, 3, 1), CategoryID: uuid.New()},
			wantErr: bill.ErrValidation,
		},
		{
			name:  "UnknownCategory",
			draft: draft(date(2024, 3, 1), bill.Plain{}),
			setupMock: func(m mocks) {
				m.categories.EXPECT().GetCategory(gomock.Any(), gomock.Any()).Return(nil, category.ErrNotFound)
			},
			wantErr: bill.ErrNotFound,
		},
		{
			name:  "RootFailure",
			draft: draft(date(2024, 3, 1), bill.Installment{Total: 2}),
			setupMock: func(m mocks) {
				m.categories.EXPECT().GetCategory(gomock.Any(), gomock.Any()).Return(&category.Category{}, nil)
				m.bills.EXPECT().CreateBill(gomock.Any(), gomock.Any()).Return(dbErr)
			},
			wantErr: dbErr,
			check: func(t *testing.T, res *bill.CreateResult, err error) {
				var pErr *bill.PersistenceError
				assert.ErrorAs(t, err, &pErr)
				assert.Nil(t, res)
			},
		},
		{
			name:  "SiblingFailure",
			draft: draft(date(2024, 3, 1), bill.Installment{Total: 4}),
			setupMock: func(m mocks) {
				m.categories.EXPECT().GetCategory(gomock.Any(), gomock.Any()).Return(&category.Category{}, nil)
				gomock.InOrder(
					m.bills.EXPECT().CreateBill(gomock.Any(), gomock.Any()).DoAndReturn(assignID).Times(2),
					m.bills.EXPECT().CreateBill(gomock.Any(), gomock.Any()).Return(dbErr),
				)
			},
			wantErr: dbErr,
			check: func(t *testing.T, res *bill.CreateResult, err error) {
				var pErr *bill.PartialFailureError
				require.ErrorAs(t, err, &pErr)
				assert.Equal(t, bill.Step("create_occurrence_3"), pErr.Failed)
				assert.Equal(t, []bill.Step{bill.StepCreateRoot, "create_occurrence_2"}, pErr.Committed)
				require.NotNil(t, res)
				assert.Len(t, res.Bills, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			got, err := svc.Create(context.Background(), tt.draft)

			if tt.check != nil {
				defer tt.check(t, got, err)
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Len(t, got.Bills, tt.wantLen)
		})
	}
}

func TestService_Pay(t *testing.T) {
	dbErr := errors.New("db error")
	acc := &account.Account{ID: uuid.New(), Balance: decimal.NewFromInt(500)}

	pendingBill := func() *bill.Bill {
		return &bill.Bill{
			ID:          uuid.New(),
			Description: "Internet",
			Amount:      decimal.RequireFromString("59.90"),
			DueDate:     date(2024, 3, 5),
			CategoryID:  uuid.New(),
			Status:      bill.StatusPending,
			Kind:        bill.Plain{},
		}
	}

	type testCase struct {
		name      string
		bill      *bill.Bill
		setupMock func(m mocks, b *bill.Bill)
		wantErr   error
		check     func(t *testing.T, res *bill.PayResult, err error)
	}

	tests := []testCase{
		{
			name: "Success",
			bill: pendingBill(),
			setupMock: func(m mocks, b *bill.Bill) {
				m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(b, nil)
				m.accounts.EXPECT().GetAccount(gomock.Any(), acc.ID).Return(acc, nil)
				gomock.InOrder(
					m.bills.EXPECT().UpdateBill(gomock.Any(), gomock.Any()).Return(nil),
					m.ledger.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
							tx.ID = uuid.New()
							return nil
						}),
					m.accounts.EXPECT().AdjustBalance(gomock.Any(), acc.ID, gomock.Any()).
						DoAndReturn(func(_ context.Context, _ uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
							return acc.Balance.Add(delta), nil
						}),
				)
			},
			check: func(t *testing.T, res *bill.PayResult, _ error) {
				assert.Equal(t, bill.StatusPaid, res.Bill.Status)
				assert.Equal(t, fixedNow, *res.Bill.PaidAt)

				tx := res.Transaction
				assert.Equal(t, transaction.TypeExpense, tx.Type)
				assert.Equal(t, "Payment: Internet", tx.Description)
				assert.True(t, tx.Amount.Equal(res.Bill.Amount))
				assert.Equal(t, res.Bill.ID, *tx.BillID)
				assert.Equal(t, res.Bill.CategoryID, tx.CategoryID)
				assert.Equal(t, fixedNow, tx.Date)

				assert.Equal(t, "440.1", res.Balance.String())
				assert.Nil(t, res.Next)
			},
		},
		{
			name: "BillNotFound",
			bill: pendingBill(),
			setupMock: func(m mocks, b *bill.Bill) {
				m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(nil, bill.ErrNotFound)
			},
			wantErr: bill.ErrNotFound,
		},
		{
			name: "AccountNotFound",
			bill: pendingBill(),
			setupMock: func(m mocks, b *bill.Bill) {
				m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(b, nil)
				m.accounts.EXPECT().GetAccount(gomock.Any(), acc.ID).Return(nil, account.ErrNotFound)
			},
			wantErr: bill.ErrNotFound,
		},
		{
			name: "AlreadyPaid",
			bill: func() *bill.Bill {
				b := pendingBill()
				b.Status = bill.StatusPaid

				return b
			}(),
			setupMock: func(m mocks, b *bill.Bill) {
				m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(b, nil)
				m.accounts.EXPECT().GetAccount(gomock.Any(), acc.ID).Return(acc, nil)
			},
			wantErr: bill.ErrValidation,
		},
		{
			name: "MarkPaidFails",
			bill: pendingBill(),
			setupMock: func(m mocks, b *bill.Bill) {
				m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(b, nil)
				m.accounts.EXPECT().GetAccount(gomock.Any(), acc.ID).Return(acc, nil)
				m.bills.EXPECT().UpdateBill(gomock.Any(), gomock.Any()).Return(dbErr)
			},
			wantErr: dbErr,
			check: func(t *testing.T, _ *bill.PayResult, err error) {
				var pErr *bill.PersistenceError
				assert.ErrorAs(t, err, &pErr)
			},
		},
		{
			name: "TransactionFails",
			bill: pendingBill(),
			setupMock: func(m mocks, b *bill.Bill) {
				m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(b, nil)
				m.accounts.EXPECT().GetAccount(gomock.Any(), acc.ID).Return(acc, nil)
				m.bills.EXPECT().UpdateBill(gomock.Any(), gomock.Any()).Return(nil)
				m.ledger.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(dbErr)
			},
			wantErr: dbErr,
			check: func(t *testing.T, _ *bill.PayResult, err error) {
				var pErr *bill.PartialFailureError
				require.ErrorAs(t, err, &pErr)
				assert.Equal(t, bill.StepPostTransaction, pErr.Failed)
				assert.Equal(t, []bill.Step{bill.StepMarkPaid}, pErr.Committed)
			},
		},
		{
			name: "BalanceFails",
			bill: pendingBill(),
			setupMock: func(m mocks, b *bill.Bill) {
				m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(b, nil)
				m.accounts.EXPECT().GetAccount(gomock.Any(), acc.ID).Return(acc, nil)
				m.bills.EXPECT().UpdateBill(gomock.Any(), gomock.Any()).Return(nil)
				m.ledger.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
				m.accounts.EXPECT().AdjustBalance(gomock.Any(), acc.ID, gomock.Any()).Return(decimal.Zero, dbErr)
			},
			wantErr: dbErr,
			check: func(t *testing.T, res *bill.PayResult, err error) {
				var pErr *bill.PartialFailureError
				require.ErrorAs(t, err, &pErr)
				assert.Equal(t, bill.StepAdjustBalance, pErr.Failed)
				assert.Equal(t, []bill.Step{bill.StepMarkPaid, bill.StepPostTransaction}, pErr.Committed)
				assert.NotNil(t, res.Transaction)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			tt.setupMock(m, tt.bill)

			got, err := svc.Pay(context.Background(), tt.bill.ID, acc.ID)

			if tt.check != nil {
				defer tt.check(t, got, err)
			}

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestService_NextOccurrence(t *testing.T) {
	recurring := func(due int, month time.Month) *bill.Bill {
		return &bill.Bill{
			ID:          uuid.New(),
			Description: "Rent",
			Amount:      decimal.NewFromInt(1200),
			DueDate:     date(2024, month, due),
			Status:      bill.StatusPaid,
			Kind:        bill.Recurring{Type: bill.RecurrenceMonthly},
		}
	}

	t.Run("AnchorFromSeriesStart", func(t *testing.T) {
		svc, m := newService(t)
		jan := recurring(31, time.January)
		feb := recurring(29, time.February)

		m.bills.EXPECT().
			ListBills(gomock.Any(), bill.ListFilter{Description: &feb.Description, Recurring: new(true)}).
			Return([]*bill.Bill{jan, feb}, nil)
		m.bills.EXPECT().CreateBill(gomock.Any(), gomock.Any()).DoAndReturn(assignID)

		next, err := svc.NextOccurrence(context.Background(), feb)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, date(2024, 3, 31), next.DueDate)
		assert.Equal(t, bill.StatusPending, next.Status)
		assert.True(t, next.Amount.Equal(feb.Amount))
	})

	t.Run("ExistingOccurrence", func(t *testing.T) {
		svc, m := newService(t)
		mar := recurring(5, time.March)
		apr := recurring(5, time.April)

		m.bills.EXPECT().ListBills(gomock.Any(), gomock.Any()).Return([]*bill.Bill{mar, apr}, nil)

		next, err := svc.NextOccurrence(context.Background(), mar)
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("PastEndDate", func(t *testing.T) {
		svc, m := newService(t)
		mar := recurring(5, time.March)
		mar.Kind = bill.Recurring{Type: bill.RecurrenceMonthly, EndDate: new(date(2024, 4, 1))}

		m.bills.EXPECT().ListBills(gomock.Any(), gomock.Any()).Return([]*bill.Bill{mar}, nil)

		next, err := svc.NextOccurrence(context.Background(), mar)
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("NotRecurring", func(t *testing.T) {
		svc, _ := newService(t)

		next, err := svc.NextOccurrence(context.Background(), &bill.Bill{Kind: bill.Installment{Total: 2, Current: 1}})
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestService_Delete_PartialFailure(t *testing.T) {
	svc, m := newService(t)
	dbErr := errors.New("db error")

	root := &bill.Bill{ID: uuid.New(), Kind: bill.Installment{Total: 3, Current: 1}}
	children := []*bill.Bill{
		{ID: uuid.New(), Kind: bill.Installment{Total: 3, Current: 2, ParentID: &root.ID}},
		{ID: uuid.New(), Kind: bill.Installment{Total: 3, Current: 3, ParentID: &root.ID}},
	}

	m.bills.EXPECT().GetBill(gomock.Any(), root.ID).Return(root, nil)
	m.bills.EXPECT().ListBills(gomock.Any(), bill.ListFilter{ParentID: &root.ID}).Return(children, nil)
	gomock.InOrder(
		m.bills.EXPECT().DeleteBill(gomock.Any(), children[0].ID).Return(nil),
		m.bills.EXPECT().DeleteBill(gomock.Any(), children[1].ID).Return(dbErr),
	)

	res, err := svc.Delete(context.Background(), root.ID)

	var pErr *bill.PartialFailureError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, bill.StepDeleteBill, pErr.Failed)
	assert.Equal(t, []*bill.Bill{children[0]}, pErr.Bills)
	assert.Equal(t, []uuid.UUID{children[0].ID}, res.Deleted)
}

func TestService_Delete_VanishedChild(t *testing.T) {
	svc, m := newService(t)

	root := &bill.Bill{ID: uuid.New(), Kind: bill.Installment{Total: 3, Current: 1}}
	children := []*bill.Bill{
		{ID: uuid.New(), Kind: bill.Installment{Total: 3, Current: 2, ParentID: &root.ID}},
		{ID: uuid.New(), Kind: bill.Installment{Total: 3, Current: 3, ParentID: &root.ID}},
	}

	m.bills.EXPECT().GetBill(gomock.Any(), root.ID).Return(root, nil)
	m.bills.EXPECT().ListBills(gomock.Any(), bill.ListFilter{ParentID: &root.ID}).Return(children, nil)
	gomock.InOrder(
		m.bills.EXPECT().DeleteBill(gomock.Any(), children[0].ID).Return(nil),
		m.bills.EXPECT().DeleteBill(gomock.Any(), children[1].ID).Return(bill.ErrNotFound),
		m.bills.EXPECT().DeleteBill(gomock.Any(), root.ID).Return(nil),
	)

	res, err := svc.Delete(context.Background(), root.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{children[0].ID, root.ID}, res.Deleted)
}

func TestService_Delete_FirstFailureIsPersistence(t *testing.T) {
	svc, m := newService(t)
	b := &bill.Bill{ID: uuid.New(), Kind: bill.Plain{}}

	m.bills.EXPECT().GetBill(gomock.Any(), b.ID).Return(b, nil)
	m.bills.EXPECT().DeleteBill(gomock.Any(), b.ID).Return(errors.New("db error"))

	_, err := svc.Delete(context.Background(), b.ID)

	var pErr *bill.PersistenceError
	assert.ErrorAs(t, err, &pErr)
}
