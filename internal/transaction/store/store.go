package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanTransaction expects the column order of selectTransactionColumns.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr string

	if err := s.Scan(
		&tx.ID, &typeStr, &tx.Amount, &tx.Date, &tx.CategoryID, &tx.AccountID,
		&tx.Description, &tx.BillID, &tx.CreatedAt, &tx.DeletedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)

	return &tx, nil
}

const selectTransactionColumns = `
	id, type, amount, date, category_id, account_id, description, bill_id, created_at, deleted_at
`

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (type, amount, date, category_id, account_id, description, bill_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.Type,
		tx.Amount,
		tx.Date,
		tx.CategoryID,
		tx.AccountID,
		tx.Description,
		tx.BillID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE id = $1 AND deleted_at IS NULL`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.AccountID != nil {
		query += fmt.Sprintf(" AND account_id = $%d", argIdx)

		args = append(args, *filter.AccountID)
		argIdx++
	}

	if filter.BillID != nil {
		query += fmt.Sprintf(" AND bill_id = $%d", argIdx)

		args = append(args, *filter.BillID)
		argIdx++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)

		args = append(args, *filter.Type)
		argIdx++
	}

	if filter.DescriptionPrefix != nil {
		query += fmt.Sprintf(" AND starts_with(description, $%d)", argIdx)

		args = append(args, *filter.DescriptionPrefix)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}

	return txs, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE transactions
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}
