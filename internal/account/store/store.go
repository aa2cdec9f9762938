package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/account"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectAccountColumns = `id, name, balance, type, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*account.Account, error) {
	var acc account.Account

	var typeStr string

	if err := s.Scan(&acc.ID, &acc.Name, &acc.Balance, &typeStr, &acc.CreatedAt); err != nil {
		return nil, err
	}

	acc.Type = account.Type(typeStr)

	return &acc, nil
}

func (s *Store) CreateAccount(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (name, balance, type, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, acc.Name, acc.Balance, acc.Type).
		Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM accounts WHERE id = $1`

	acc, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("getting account: %w", err)
	}

	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]*account.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM accounts ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*account.Account

	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}

		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating account rows: %w", err)
	}

	return accounts, nil
}

// AdjustBalance applies the delta in a single statement so concurrent
// postings against the same account cannot lose an update.
func (s *Store) AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1
		WHERE id = $2
		RETURNING balance
	`

	var balance decimal.Decimal
	if err := s.db.QueryRowContext(ctx, query, delta, id).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, account.ErrNotFound
		}

		return decimal.Zero, fmt.Errorf("adjusting balance: %w", err)
	}

	return balance, nil
}
