package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/finny/internal/http/account"
	"github.com/MrJamesThe3rd/finny/internal/http/bill"
	"github.com/MrJamesThe3rd/finny/internal/http/category"
	"github.com/MrJamesThe3rd/finny/internal/http/dashboard"
	"github.com/MrJamesThe3rd/finny/internal/http/export"
	"github.com/MrJamesThe3rd/finny/internal/http/importcsv"
	"github.com/MrJamesThe3rd/finny/internal/http/matching"
	"github.com/MrJamesThe3rd/finny/internal/http/transaction"
	"github.com/MrJamesThe3rd/finny/internal/metrics"
)

type Handlers struct {
	Bills        *bill.Handler
	Accounts     *account.Handler
	Transactions *transaction.Handler
	Categories   *category.Handler
	Dashboard    *dashboard.Handler
	Import       *importcsv.Handler
	Matching     *matching.Handler
	Export       *export.Handler
}

type Options struct {
	CORSOrigins []string
	Timeout     time.Duration
}

func New(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/bills", func(r chi.Router) {
			r.Route("/import", h.Import.Routes)

			r.Route("/export", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Export.Routes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Bills.Routes(r)
			})
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Accounts.Routes(r)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Transactions.Routes(r)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Categories.Routes(r)
		})

		r.Route("/matching", h.Matching.Routes)

		r.Route("/dashboard", h.Dashboard.Routes)
	})

	return router
}
