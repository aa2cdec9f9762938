package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/bill"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// row mirrors the bills table. The kind of a bill is spread over the
// installment and recurrence columns; installment wins when both are set.
type row struct {
	id                 uuid.UUID
	description        string
	amount             decimal.Decimal
	dueDate            time.Time
	categoryID         uuid.UUID
	status             string
	isInstallment      bool
	totalInstallments  sql.NullInt32
	currentInstallment sql.NullInt32
	parentID           *uuid.UUID
	isRecurring        bool
	recurrenceType     sql.NullString
	recurrenceEndDate  sql.NullTime
	paidAt             *time.Time
	createdAt          time.Time
	updatedAt          *time.Time
}

const selectBillColumns = `
	id, description, amount, due_date, category_id, status,
	is_installment, total_installments, current_installment, parent_id,
	is_recurring, recurrence_type, recurrence_end_date,
	paid_at, created_at, updated_at
`

func scanBill(s scanner) (*bill.Bill, error) {
	var r row

	if err := s.Scan(
		&r.id, &r.description, &r.amount, &r.dueDate, &r.categoryID, &r.status,
		&r.isInstallment, &r.totalInstallments, &r.currentInstallment, &r.parentID,
		&r.isRecurring, &r.recurrenceType, &r.recurrenceEndDate,
		&r.paidAt, &r.createdAt, &r.updatedAt,
	); err != nil {
		return nil, err
	}

	return r.toBill(), nil
}

func (r row) toBill() *bill.Bill {
	b := &bill.Bill{
		ID:          r.id,
		Description: r.description,
		Amount:      r.amount,
		DueDate:     civil.DateOf(r.dueDate),
		CategoryID:  r.categoryID,
		Status:      bill.Status(r.status),
		PaidAt:      r.paidAt,
		CreatedAt:   r.createdAt,
		UpdatedAt:   r.updatedAt,
	}

	switch {
	case r.isInstallment:
		b.Kind = bill.Installment{
			Total:    int(r.totalInstallments.Int32),
			Current:  int(r.currentInstallment.Int32),
			ParentID: r.parentID,
		}
	case r.isRecurring:
		rec := bill.Recurring{Type: bill.RecurrenceType(r.recurrenceType.String)}
		if r.recurrenceEndDate.Valid {
			rec.EndDate = new(civil.DateOf(r.recurrenceEndDate.Time))
		}

		b.Kind = rec
	default:
		b.Kind = bill.Plain{}
	}

	return b
}

// kindColumns flattens a kind into the installment and recurrence columns.
func kindColumns(k bill.Kind) []any {
	var (
		isInstallment bool
		total         *int
		current       *int
		parentID      *uuid.UUID
		isRecurring   bool
		recType       *string
		endDate       *time.Time
	)

	switch k := k.(type) {
	case bill.Installment:
		isInstallment = true
		total = &k.Total
		current = &k.Current
		parentID = k.ParentID
	case bill.Recurring:
		isRecurring = true
		recType = new(string(k.Type))

		if k.EndDate != nil {
			endDate = new(dateValue(*k.EndDate))
		}
	}

	return []any{isInstallment, total, current, parentID, isRecurring, recType, endDate}
}

func dateValue(d civil.Date) time.Time {
	return d.In(time.UTC)
}

func (s *Store) CreateBill(ctx context.Context, b *bill.Bill) error {
	query := `
		INSERT INTO bills (
			description, amount, due_date, category_id, status,
			is_installment, total_installments, current_installment, parent_id,
			is_recurring, recurrence_type, recurrence_end_date,
			paid_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING id, created_at
	`

	args := []any{b.Description, b.Amount, dateValue(b.DueDate), b.CategoryID, b.Status}
	args = append(args, kindColumns(b.Kind)...)
	args = append(args, b.PaidAt)

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		return fmt.Errorf("creating bill: %w", err)
	}

	return nil
}

func (s *Store) GetBill(ctx context.Context, id uuid.UUID) (*bill.Bill, error) {
	query := `SELECT ` + selectBillColumns + ` FROM bills WHERE id = $1`

	b, err := scanBill(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bill.ErrNotFound
		}

		return nil, fmt.Errorf("getting bill: %w", err)
	}

	return b, nil
}

func (s *Store) ListBills(ctx context.Context, filter bill.ListFilter) ([]*bill.Bill, error) {
	query := `SELECT ` + selectBillColumns + ` FROM bills WHERE 1=1`

	var args []any

	argIdx := 1

	add := func(clause string, arg any) {
		query += fmt.Sprintf(clause, argIdx)

		args = append(args, arg)
		argIdx++
	}

	if filter.Status != nil {
		add(" AND status = $%d", *filter.Status)
	}

	if filter.Description != nil {
		add(" AND description = $%d", *filter.Description)
	}

	if filter.DueDate != nil {
		add(" AND due_date = $%d", dateValue(*filter.DueDate))
	}

	if filter.DueAfter != nil {
		add(" AND due_date > $%d", dateValue(*filter.DueAfter))
	}

	if filter.Amount != nil {
		add(" AND amount = $%d", *filter.Amount)
	}

	if filter.Recurring != nil {
		add(" AND is_recurring = $%d AND NOT is_installment", *filter.Recurring)
	}

	if filter.ParentID != nil {
		add(" AND parent_id = $%d", *filter.ParentID)
	}

	query += " ORDER BY due_date ASC, created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	defer rows.Close()

	var bills []*bill.Bill

	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bill: %w", err)
		}

		bills = append(bills, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bill rows: %w", err)
	}

	return bills, nil
}

func (s *Store) UpdateBill(ctx context.Context, b *bill.Bill) error {
	query := `
		UPDATE bills SET
			description = $1, amount = $2, due_date = $3, category_id = $4, status = $5,
			is_installment = $6, total_installments = $7, current_installment = $8, parent_id = $9,
			is_recurring = $10, recurrence_type = $11, recurrence_end_date = $12,
			paid_at = $13, updated_at = NOW()
		WHERE id = $14
		RETURNING updated_at
	`

	args := []any{b.Description, b.Amount, dateValue(b.DueDate), b.CategoryID, b.Status}
	args = append(args, kindColumns(b.Kind)...)
	args = append(args, b.PaidAt, b.ID)

	var updatedAt time.Time
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return bill.ErrNotFound
		}

		return fmt.Errorf("updating bill: %w", err)
	}

	b.UpdatedAt = &updatedAt

	return nil
}

func (s *Store) DeleteBill(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return bill.ErrNotFound
	}

	return nil
}
