package bill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/realtime"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=bill
type Repository interface {
	// CreateBill inserts b and fills in its ID and CreatedAt.
	CreateBill(ctx context.Context, b *Bill) error
	GetBill(ctx context.Context, id uuid.UUID) (*Bill, error)
	// ListBills returns matching bills ordered by due date, then insertion.
	ListBills(ctx context.Context, filter ListFilter) ([]*Bill, error)
	UpdateBill(ctx context.Context, b *Bill) error
	DeleteBill(ctx context.Context, id uuid.UUID) error
}

// Accounts is the part of the account store the engine needs.
type Accounts interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	AdjustBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
}

// Ledger is the part of the transaction store the engine needs.
type Ledger interface {
	CreateTransaction(ctx context.Context, tx *transaction.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Categories interface {
	GetCategory(ctx context.Context, id uuid.UUID) (*category.Category, error)
}

// Notifier delivers row change events per table.
type Notifier interface {
	Subscribe(table string, fn func(realtime.Event)) (func(), error)
}

type ListFilter struct {
	Status      *Status
	Description *string
	DueDate     *civil.Date
	DueAfter    *civil.Date
	Amount      *decimal.Decimal
	Recurring   *bool
	ParentID    *uuid.UUID
}

type Service struct {
	bills      Repository
	accounts   Accounts
	ledger     Ledger
	categories Categories
	notifier   Notifier
	policy     Policy
	now        func() time.Time
}

type Option func(*Service)

// WithCategories makes Create reject drafts whose category does not exist.
func WithCategories(c Categories) Option {
	return func(s *Service) { s.categories = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(bills Repository, accounts Accounts, ledger Ledger, policy Policy, opts ...Option) *Service {
	s := &Service{
		bills:    bills,
		accounts: accounts,
		ledger:   ledger,
		policy:   policy.withDefaults(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) Policy() Policy {
	return s.policy
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := s.bills.GetBill(ctx, id)
	if err != nil {
		return nil, notFoundOr("getting bill", err)
	}

	return b, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Bill, error) {
	bills, err := s.bills.ListBills(ctx, filter)
	if err != nil {
		return nil, &PersistenceError{Op: "listing bills", Err: err}
	}

	return bills, nil
}

// CreateResult holds every occurrence written for a draft, root first.
type CreateResult struct {
	Bills []*Bill
}

// Create validates the draft, writes its root occurrence and then every
// generated sibling in due date order. A failed sibling write stops the
// series and is reported as a *PartialFailureError carrying the bills that
// were written.
func (s *Service) Create(ctx context.Context, d Draft) (*CreateResult, error) {
	if d.Kind == nil {
		d.Kind = Plain{}
	}

	d.Description = strings.TrimSpace(d.Description)

	if err := d.Validate(); err != nil {
		return nil, err
	}

	if s.categories != nil {
		if _, err := s.categories.GetCategory(ctx, d.CategoryID); err != nil {
			return nil, notFoundOr("checking category", err)
		}
	}

	dates := Schedule(d, s.policy)

	root := occurrence(d, dates[0], 1, nil)
	if d.Paid {
		now := s.now()
		root.Status = StatusPaid
		root.PaidAt = &now
	}

	if err := s.bills.CreateBill(ctx, root); err != nil {
		return nil, &PersistenceError{Op: "creating bill", Err: err}
	}

	res := &CreateResult{Bills: []*Bill{root}}
	committed := []Step{StepCreateRoot}

	for i, due := range dates[1:] {
		n := i + 2

		occ := occurrence(d, due, n, &root.ID)
		if err := s.bills.CreateBill(ctx, occ); err != nil {
			return res, &PartialFailureError{
				Op:        "creating bill series",
				Failed:    occurrenceStep(n),
				Committed: committed,
				Bills:     res.Bills,
				Err:       err,
			}
		}

		res.Bills = append(res.Bills, occ)
		committed = append(committed, occurrenceStep(n))
	}

	slog.Info("bill created", "bill_id", root.ID, "occurrences", len(res.Bills))

	return res, nil
}

// occurrence builds occurrence n of the draft's series. parentID is only
// used by installment children.
func occurrence(d Draft, due civil.Date, n int, parentID *uuid.UUID) *Bill {
	b := &Bill{
		Description: d.Description,
		Amount:      d.Amount,
		DueDate:     due,
		CategoryID:  d.CategoryID,
		Status:      StatusPending,
	}

	switch k := d.Kind.(type) {
	case Installment:
		inst := Installment{Total: k.Total, Current: n}
		if n > 1 {
			inst.ParentID = parentID
		}

		b.Kind = inst
	case Recurring:
		b.Kind = Recurring{Type: k.Type, EndDate: k.EndDate}
	default:
		b.Kind = Plain{}
	}

	return b
}

func (s *Service) getBill(ctx context.Context, op string, id uuid.UUID) (*Bill, error) {
	b, err := s.bills.GetBill(ctx, id)
	if err != nil {
		return nil, notFoundOr(op, err)
	}

	return b, nil
}

// notFoundOr maps the stores' not found sentinels to ErrNotFound, keeping
// the original in the chain, and anything else to a *PersistenceError.
func notFoundOr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if isNotFound(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	}

	return &PersistenceError{Op: op, Err: err}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, account.ErrNotFound) ||
		errors.Is(err, transaction.ErrNotFound) ||
		errors.Is(err, category.ErrNotFound)
}
