// Package realtime fans row change events out to in-process subscribers.
package realtime

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

const (
	TableBills        = "bills"
	TableTransactions = "transactions"
	TableAccounts     = "accounts"
	TableCategories   = "categories"
)

// Tables lists every table a Source can be asked to watch.
var Tables = []string{TableBills, TableTransactions, TableAccounts, TableCategories}

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one changed row.
type Event struct {
	Table string    `json:"table"`
	Op    Op        `json:"op"`
	ID    uuid.UUID `json:"id"`
}

// Source produces events for the tables it is told to watch.
type Source interface {
	Watch(table string) error
	Unwatch(table string) error
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Registry is the process wide subscription table. The first subscriber of
// a table makes the source watch it and the last one to leave releases it.
type Registry struct {
	mu     sync.RWMutex
	source Source
	subs   map[string][]subscriber
	nextID uint64
}

// NewRegistry returns a registry fed by src. src may be nil when events are
// only published in process.
func NewRegistry(src Source) *Registry {
	return &Registry{
		source: src,
		subs:   make(map[string][]subscriber),
	}
}

// Subscribe registers fn for events of table and returns the function that
// removes it. The returned function is safe to call more than once.
func (r *Registry) Subscribe(table string, fn func(Event)) (func(), error) {
	if !slices.Contains(Tables, table) {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.subs[table]) == 0 && r.source != nil {
		if err := r.source.Watch(table); err != nil {
			return nil, fmt.Errorf("watching %s: %w", table, err)
		}
	}

	r.nextID++
	id := r.nextID
	r.subs[table] = append(r.subs[table], subscriber{id: id, fn: fn})

	var once sync.Once

	return func() {
		once.Do(func() { r.unsubscribe(table, id) })
	}, nil
}

func (r *Registry) unsubscribe(table string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs[table] = slices.DeleteFunc(r.subs[table], func(s subscriber) bool {
		return s.id == id
	})

	if len(r.subs[table]) > 0 {
		return
	}

	delete(r.subs, table)

	if r.source != nil {
		if err := r.source.Unwatch(table); err != nil {
			slog.Error("failed to release table watch", "table", table, "error", err)
		}
	}
}

// Publish delivers e to the current subscribers of its table, in
// subscription order, on the caller's goroutine.
func (r *Registry) Publish(e Event) {
	r.mu.RLock()
	subs := slices.Clone(r.subs[e.Table])
	r.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// Subscribers returns how many subscriptions table currently has.
func (r *Registry) Subscribers(table string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs[table])
}
