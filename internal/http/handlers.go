package http

import (
	"github.com/MrJamesThe3rd/finny/internal/app"
	"github.com/MrJamesThe3rd/finny/internal/http/account"
	"github.com/MrJamesThe3rd/finny/internal/http/bill"
	"github.com/MrJamesThe3rd/finny/internal/http/category"
	"github.com/MrJamesThe3rd/finny/internal/http/dashboard"
	"github.com/MrJamesThe3rd/finny/internal/http/export"
	"github.com/MrJamesThe3rd/finny/internal/http/importcsv"
	"github.com/MrJamesThe3rd/finny/internal/http/matching"
	"github.com/MrJamesThe3rd/finny/internal/http/transaction"
)

// NewHandlers builds the v1 handlers over the services of a.
func NewHandlers(a *app.App) Handlers {
	return Handlers{
		Bills:        bill.NewHandler(a.Bills),
		Accounts:     account.NewHandler(a.Accounts),
		Transactions: transaction.NewHandler(a.Transactions),
		Categories:   category.NewHandler(a.Categories),
		Dashboard:    dashboard.NewHandler(a.Accounts, a.Transactions, a.Categories, a.Bills),
		Import:       importcsv.NewHandler(a.Importer),
		Matching:     matching.NewHandler(a.Matching),
		Export:       export.NewHandler(a.Export),
	}
}
