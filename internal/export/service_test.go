package export

import (
	"bytes"
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/category"
	"github.com/MrJamesThe3rd/finny/internal/memstore"
)

func newService(t *testing.T) *Service {
	t.Helper()

	ctx := context.Background()
	store := memstore.New(nil)
	categories := category.NewService(store)

	home := &category.Category{Name: "Casa", Type: category.TypeExpense}
	require.NoError(t, categories.Create(ctx, home))

	bills := bill.NewService(store, store, store, bill.DefaultPolicy())

	drafts := []bill.Draft{
		{
			Description: "Sofá",
			Amount:      decimal.RequireFromString("150.5"),
			DueDate:     civil.Date{Year: 2024, Month: 1, Day: 15},
			CategoryID:  home.ID,
			Kind:        bill.Installment{Total: 2},
		},
		{
			Description: "Água",
			Amount:      decimal.NewFromInt(20),
			DueDate:     civil.Date{Year: 2024, Month: 2, Day: 1},
			CategoryID:  home.ID,
			Paid:        true,
		},
	}

	for _, d := range drafts {
		_, err := bills.Create(ctx, d)
		require.NoError(t, err)
	}

	return NewService(bills, categories)
}

func TestService_Items(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name: "All",
			want: []string{"Sofá", "Água", "Sofá"},
		},
		{
			name:   "DateRange",
			filter: Filter{From: civil.Date{Year: 2024, Month: 2, Day: 1}, To: civil.Date{Year: 2024, Month: 2, Day: 1}},
			want:   []string{"Água"},
		},
		{
			name:   "Status",
			filter: Filter{Status: new(bill.StatusPaid)},
			want:   []string{"Água"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.Items(context.Background(), tt.filter)
			require.NoError(t, err)

			var got []string
			for _, it := range items {
				got = append(got, it.Bill.Description)
				assert.Equal(t, "Casa", it.Category)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_WriteCSV(t *testing.T) {
	svc := newService(t)

	items, err := svc.Items(context.Background(), Filter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(&buf, items))

	want := "description;amount;due_date;category;status;series\n" +
		"Sofá;150.50;2024-01-15;Casa;pending;1/2\n" +
		"Água;20.00;2024-02-01;Casa;paid;\n" +
		"Sofá;150.50;2024-02-15;Casa;pending;2/2\n"
	assert.Equal(t, want, buf.String())
}

func TestService_Statement(t *testing.T) {
	svc := newService(t)

	items, err := svc.Items(context.Background(), Filter{Status: new(bill.StatusPaid)})
	require.NoError(t, err)

	assert.Equal(t, "* 2024-02-01 | Água | 20.00 € | Pago\n", svc.Statement(items))
}
