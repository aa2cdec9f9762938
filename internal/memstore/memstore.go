// Package memstore keeps every repository in process memory. It backs the
// STORE=memory mode and the engine's scenario tests, and publishes a
// realtime event after each write.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/matching"
	"github.com/MrJamesThe3rd/finny/internal/realtime"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
)

// Publisher receives change events. *realtime.Registry satisfies it.
type Publisher interface {
	Publish(e realtime.Event)
}

type rule struct {
	pattern    string
	categoryID uuid.UUID
	seq        int
}

// Store is guarded by an RWMutex; events are published after the lock is
// released so subscribers may read back.
type Store struct {
	mu           sync.RWMutex
	bills        map[uuid.UUID]*bill.Bill
	billSeq      map[uuid.UUID]int
	accounts     map[uuid.UUID]*account.Account
	transactions map[uuid.UUID]*transaction.Transaction
	categories   map[uuid.UUID]*category.Category
	rules        []rule
	seq          int
	pub          Publisher
	now          func() time.Time
}

func New(pub Publisher) *Store {
	return &Store{
		bills:        make(map[uuid.UUID]*bill.Bill),
		billSeq:      make(map[uuid.UUID]int),
		accounts:     make(map[uuid.UUID]*account.Account),
		transactions: make(map[uuid.UUID]*transaction.Transaction),
		categories:   make(map[uuid.UUID]*category.Category),
		pub:          pub,
		now:          time.Now,
	}
}

func (s *Store) publish(table string, op realtime.Op, id uuid.UUID) {
	if s.pub != nil {
		s.pub.Publish(realtime.Event{Table: table, Op: op, ID: id})
	}
}

func (s *Store) nextSeq() int {
	s.seq++
	return s.seq
}

func cloneBill(b *bill.Bill) *bill.Bill {
	c := *b
	if b.PaidAt != nil {
		c.PaidAt = new(*b.PaidAt)
	}

	if b.UpdatedAt != nil {
		c.UpdatedAt = new(*b.UpdatedAt)
	}

	return &c
}

func (s *Store) CreateBill(_ context.Context, b *bill.Bill) error {
	s.mu.Lock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	b.CreatedAt = s.now()
	s.bills[b.ID] = cloneBill(b)
	s.billSeq[b.ID] = s.nextSeq()

	s.mu.Unlock()

	s.publish(realtime.TableBills, realtime.OpInsert, b.ID)

	return nil
}

func (s *Store) GetBill(_ context.Context, id uuid.UUID) (*bill.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bills[id]
	if !ok {
		return nil, bill.ErrNotFound
	}

	return cloneBill(b), nil
}

func (s *Store) ListBills(_ context.Context, f bill.ListFilter) ([]*bill.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*bill.Bill

	for _, b := range s.bills {
		if matchBill(b, f) {
			out = append(out, cloneBill(b))
		}
	}

	slices.SortFunc(out, func(a, b *bill.Bill) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}

		return s.billSeq[a.ID] - s.billSeq[b.ID]
	})

	return out, nil
}

func matchBill(b *bill.Bill, f bill.ListFilter) bool {
	switch {
	case f.Status != nil && b.Status != *f.Status:
		return false
	case f.Description != nil && b.Description != *f.Description:
		return false
	case f.DueDate != nil && b.DueDate != *f.DueDate:
		return false
	case f.DueAfter != nil && !b.DueDate.After(*f.DueAfter):
		return false
	case f.Amount != nil && !b.Amount.Equal(*f.Amount):
		return false
	case f.Recurring != nil && b.IsRecurring() != *f.Recurring:
		return false
	}

	if f.ParentID != nil {
		inst, ok := b.Installment()
		if !ok || inst.ParentID == nil || *inst.ParentID != *f.ParentID {
			return false
		}
	}

	return true
}

func (s *Store) UpdateBill(_ context.Context, b *bill.Bill) error {
	s.mu.Lock()

	if _, ok := s.bills[b.ID]; !ok {
		s.mu.Unlock()
		return bill.ErrNotFound
	}

	b.UpdatedAt = new(s.now())
	s.bills[b.ID] = cloneBill(b)

	s.mu.Unlock()

	s.publish(realtime.TableBills, realtime.OpUpdate, b.ID)

	return nil
}

func (s *Store) DeleteBill(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()

	if _, ok := s.bills[id]; !ok {
		s.mu.Unlock()
		return bill.ErrNotFound
	}

	delete(s.bills, id)
	delete(s.billSeq, id)

	s.mu.Unlock()

	s.publish(realtime.TableBills, realtime.OpDelete, id)

	return nil
}

func (s *Store) CreateAccount(_ context.Context, acc *account.Account) error {
	s.mu.Lock()

	acc.ID = uuid.New()
	acc.CreatedAt = s.now()

	c := *acc
	s.accounts[acc.ID] = &c

	s.mu.Unlock()

	s.publish(realtime.TableAccounts, realtime.OpInsert, acc.ID)

	return nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}

	c := *acc

	return &c, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*account.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		c := *acc
		out = append(out, &c)
	}

	slices.SortFunc(out, func(a, b *account.Account) int {
		return strings.Compare(a.Name, b.Name)
	})

	return out, nil
}

func (s *Store) AdjustBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()

	acc, ok := s.accounts[id]
	if !ok {
		s.mu.Unlock()
		return decimal.Zero, account.ErrNotFound
	}

	acc.Balance = acc.Balance.Add(delta)
	balance := acc.Balance

	s.mu.Unlock()

	s.publish(realtime.TableAccounts, realtime.OpUpdate, id)

	return balance, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx *transaction.Transaction) error {
	s.mu.Lock()

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}

	tx.CreatedAt = s.now()

	c := *tx
	s.transactions[tx.ID] = &c

	s.mu.Unlock()

	s.publish(realtime.TableTransactions, realtime.OpInsert, tx.ID)

	return nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok || tx.DeletedAt != nil {
		return nil, transaction.ErrNotFound
	}

	c := *tx

	return &c, nil
}

func (s *Store) ListTransactions(_ context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*transaction.Transaction

	for _, tx := range s.transactions {
		if tx.DeletedAt == nil && matchTransaction(tx, f) {
			c := *tx
			out = append(out, &c)
		}
	}

	slices.SortFunc(out, func(a, b *transaction.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}

		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return out, nil
}

func matchTransaction(tx *transaction.Transaction, f transaction.ListFilter) bool {
	switch {
	case f.AccountID != nil && tx.AccountID != *f.AccountID:
		return false
	case f.BillID != nil && (tx.BillID == nil || *tx.BillID != *f.BillID):
		return false
	case f.Type != nil && tx.Type != *f.Type:
		return false
	case f.DescriptionPrefix != nil && !strings.HasPrefix(tx.Description, *f.DescriptionPrefix):
		return false
	case f.StartDate != nil && tx.Date.Before(*f.StartDate):
		return false
	case f.EndDate != nil && tx.Date.After(*f.EndDate):
		return false
	}

	return true
}

func (s *Store) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()

	tx, ok := s.transactions[id]
	if !ok || tx.DeletedAt != nil {
		s.mu.Unlock()
		return transaction.ErrNotFound
	}

	tx.DeletedAt = new(s.now())

	s.mu.Unlock()

	s.publish(realtime.TableTransactions, realtime.OpDelete, id)

	return nil
}

func (s *Store) CreateCategory(_ context.Context, c *category.Category) error {
	s.mu.Lock()

	c.ID = uuid.New()

	cp := *c
	s.categories[c.ID] = &cp

	s.mu.Unlock()

	s.publish(realtime.TableCategories, realtime.OpInsert, c.ID)

	return nil
}

func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, category.ErrNotFound
	}

	cp := *c

	return &cp, nil
}

func (s *Store) ListCategories(_ context.Context) ([]*category.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*category.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}

	slices.SortFunc(out, func(a, b *category.Category) int {
		return strings.Compare(a.Name, b.Name)
	})

	return out, nil
}

func (s *Store) FindCategory(_ context.Context, description string) (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	desc := strings.ToLower(description)

	var best *rule

	for i := range s.rules {
		r := &s.rules[i]
		if !strings.Contains(desc, strings.ToLower(r.pattern)) {
			continue
		}

		if best == nil || len(r.pattern) > len(best.pattern) ||
			(len(r.pattern) == len(best.pattern) && r.seq > best.seq) {
			best = r
		}
	}

	if best == nil {
		return uuid.Nil, matching.ErrNoMatch
	}

	return best.categoryID, nil
}

func (s *Store) CreateRule(_ context.Context, pattern string, categoryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = append(s.rules, rule{pattern: pattern, categoryID: categoryID, seq: s.nextSeq()})

	return nil
}

var (
	_ bill.Repository        = (*Store)(nil)
	_ account.Repository     = (*Store)(nil)
	_ transaction.Repository = (*Store)(nil)
	_ category.Repository    = (*Store)(nil)
	_ matching.Repository    = (*Store)(nil)
)
