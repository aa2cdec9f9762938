package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=account
type Repository interface {
	CreateAccount(ctx context.Context, acc *Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	// AdjustBalance adds delta to the stored balance atomically and returns the new balance.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Name    string
	Type    Type
	Balance decimal.Decimal
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("account name is required")
	}

	if !params.Type.Valid() {
		return nil, fmt.Errorf("unknown account type %q", params.Type)
	}

	acc := &Account{
		Name:    name,
		Type:    params.Type,
		Balance: params.Balance,
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Account, error) {
	return s.repo.ListAccounts(ctx)
}

// TotalBalance sums the balances of every account.
func (s *Service) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("listing accounts: %w", err)
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}

	return total, nil
}
