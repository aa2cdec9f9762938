// Package app builds the service graph shared by the finny binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/finny/internal/account"
	accountStore "github.com/MrJamesThe3rd/finny/internal/account/store"
	"github.com/MrJamesThe3rd/finny/internal/bill"
	billStore "github.com/MrJamesThe3rd/finny/internal/bill/store"
	"github.com/MrJamesThe3rd/finny/internal/category"
	categoryStore "github.com/MrJamesThe3rd/finny/internal/category/store"
	"github.com/MrJamesThe3rd/finny/internal/config"
	"github.com/MrJamesThe3rd/finny/internal/database"
	"github.com/MrJamesThe3rd/finny/internal/export"
	"github.com/MrJamesThe3rd/finny/internal/importer"
	"github.com/MrJamesThe3rd/finny/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/finny/internal/matching/store"
	"github.com/MrJamesThe3rd/finny/internal/memstore"
	"github.com/MrJamesThe3rd/finny/internal/realtime"
	"github.com/MrJamesThe3rd/finny/internal/realtime/pgnotify"
	"github.com/MrJamesThe3rd/finny/internal/transaction"
	txStore "github.com/MrJamesThe3rd/finny/internal/transaction/store"
)

// App holds the services of one process. Every service reads and writes
// through the backend chosen by STORE.
type App struct {
	Registry     *realtime.Registry
	Accounts     *account.Service
	Categories   *category.Service
	Transactions *transaction.Service
	Bills        *bill.Service
	Matching     *matching.Service
	Importer     *importer.Service
	Export       *export.Service

	db       *sql.DB
	listener *pgnotify.Listener
}

type repositories struct {
	bills        bill.Repository
	accounts     account.Repository
	transactions transaction.Repository
	categories   category.Repository
	rules        matching.Repository
}

// New opens the configured backend and wires the services. With the
// postgres store it also applies pending migrations when DB_AUTO_MIGRATE is
// set and connects the LISTEN connection behind the realtime registry.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	var repos repositories

	switch cfg.App.Store {
	case config.StoreMemory:
		a.Registry = realtime.NewRegistry(nil)

		ms := memstore.New(a.Registry)
		repos = repositories{bills: ms, accounts: ms, transactions: ms, categories: ms, rules: ms}
	default:
		db, err := database.New(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		a.db = db

		if cfg.DB.AutoMigrate {
			if _, _, err := database.Migrate(db); err != nil {
				a.Close(ctx)
				return nil, fmt.Errorf("migrating database: %w", err)
			}
		}

		listener, err := pgnotify.Connect(ctx, cfg.ConnectionString())
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("connecting change listener: %w", err)
		}

		a.listener = listener
		a.Registry = realtime.NewRegistry(listener)

		repos = repositories{
			bills:        billStore.New(db),
			accounts:     accountStore.New(db),
			transactions: txStore.New(db),
			categories:   categoryStore.New(db),
			rules:        matchingStore.New(db),
		}
	}

	a.Accounts = account.NewService(repos.accounts)
	a.Categories = category.NewService(repos.categories)
	a.Matching = matching.NewService(repos.rules)
	a.Transactions = transaction.NewService(repos.transactions, repos.accounts)
	a.Bills = bill.NewService(repos.bills, repos.accounts, repos.transactions, cfg.BillPolicy(),
		bill.WithCategories(repos.categories),
		bill.WithNotifier(a.Registry),
	)
	a.Transactions.OnDelete(a.Bills)
	a.Importer = importer.NewService(a.Bills, a.Categories, a.Matching)
	a.Export = export.NewService(a.Bills, a.Categories)

	return a, nil
}

// Listen forwards database change notifications to the registry until ctx
// is done. It returns at once for the memory store, which publishes inline.
func (a *App) Listen(ctx context.Context) error {
	if a.listener == nil {
		return nil
	}

	return a.listener.Run(ctx, a.Registry)
}

// DB returns the Postgres pool, nil for the memory store.
func (a *App) DB() *sql.DB {
	return a.db
}

func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.listener != nil {
		errs = append(errs, a.listener.Close(ctx))
	}

	if a.db != nil {
		errs = append(errs, a.db.Close())
	}

	return errors.Join(errs...)
}
