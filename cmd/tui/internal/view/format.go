package view

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders an amount with two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDate renders a due date as YYYY-MM-DD.
func FormatDate(d civil.Date) string {
	return d.String()
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
