package sheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount reads "1.234,56", "-588,74" or "1234.56" as a positive amount.
// A comma marks the European format, where dots group thousands.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "EUR"))
	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, err
	}

	return d.Abs(), nil
}
