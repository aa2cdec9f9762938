package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// Balances moves account balances. account.Repository satisfies it.
type Balances interface {
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

// DeleteHook is told about every deleted transaction after its balance
// effect has been reversed.
type DeleteHook interface {
	TransactionDeleted(ctx context.Context, tx *Transaction) error
}

type Service struct {
	repo     Repository
	balances Balances
	hooks    []DeleteHook
}

func NewService(repo Repository, balances Balances) *Service {
	return &Service{repo: repo, balances: balances}
}

// OnDelete registers a hook run by Delete.
func (s *Service) OnDelete(h DeleteHook) {
	s.hooks = append(s.hooks, h)
}

type CreateParams struct {
	Type        Type
	Amount      decimal.Decimal
	Date        time.Time
	CategoryID  uuid.UUID
	AccountID   uuid.UUID
	Description string
	BillID      *uuid.UUID
}

type ListFilter struct {
	AccountID         *uuid.UUID
	BillID            *uuid.UUID
	Type              *Type
	DescriptionPrefix *string
	StartDate         *time.Time
	EndDate           *time.Time
}

// Create records a manual ledger entry and moves the account balance.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if params.Type != TypeIncome && params.Type != TypeExpense {
		return nil, fmt.Errorf("unknown transaction type %q", params.Type)
	}

	if !params.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}

	tx := &Transaction{
		Type:        params.Type,
		Amount:      params.Amount,
		Date:        params.Date,
		CategoryID:  params.CategoryID,
		AccountID:   params.AccountID,
		Description: strings.TrimSpace(params.Description),
		BillID:      params.BillID,
	}
	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	if _, err := s.balances.AdjustBalance(ctx, tx.AccountID, tx.BalanceEffect()); err != nil {
		return nil, fmt.Errorf("transaction %s recorded but balance not adjusted: %w", tx.ID, err)
	}

	return tx, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// Delete removes a transaction, undoes its effect on the account balance and
// runs the registered hooks.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	if _, err := s.balances.AdjustBalance(ctx, tx.AccountID, tx.BalanceEffect().Neg()); err != nil {
		return fmt.Errorf("transaction %s deleted but balance not restored: %w", id, err)
	}

	for _, h := range s.hooks {
		if err := h.TransactionDeleted(ctx, tx); err != nil {
			return fmt.Errorf("transaction %s deleted: %w", id, err)
		}
	}

	slog.Debug("transaction deleted", "transaction_id", id, "account_id", tx.AccountID)

	return nil
}

// Totals aggregates the ledger for the dashboard.
type Totals struct {
	Income            decimal.Decimal
	Expense           decimal.Decimal
	ExpenseByCategory map[uuid.UUID]decimal.Decimal
}

func (s *Service) Totals(ctx context.Context, filter ListFilter) (*Totals, error) {
	txs, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	totals := &Totals{
		Income:            decimal.Zero,
		Expense:           decimal.Zero,
		ExpenseByCategory: make(map[uuid.UUID]decimal.Decimal),
	}

	for _, tx := range txs {
		switch tx.Type {
		case TypeIncome:
			totals.Income = totals.Income.Add(tx.Amount)
		case TypeExpense:
			totals.Expense = totals.Expense.Add(tx.Amount)
			totals.ExpenseByCategory[tx.CategoryID] = totals.ExpenseByCategory[tx.CategoryID].Add(tx.Amount)
		}
	}

	return totals, nil
}
