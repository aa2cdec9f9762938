package sheet_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/importer/sheet"
)

func date(y, m, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func TestParser_Finny(t *testing.T) {
	csv := `Bills export;2026
description;amount;due_date;category;installments;recurrence;recurrence_end
Rent;1200.00;2026-02-01;Housing;;monthly;
Sofa;1.234,56;31-01-2026;Home;3;;
Netflix;15,99;2026-02-10;;;monthly;2026-12-10
Car insurance;310;2026-05-20;Car;1;yearly;
`

	rows, err := sheet.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "Rent", rows[0].Draft.Description)
	assert.Equal(t, "1200", rows[0].Draft.Amount.String())
	assert.Equal(t, date(2026, 2, 1), rows[0].Draft.DueDate)
	assert.Equal(t, "Housing", rows[0].Category)
	assert.Equal(t, bill.Recurring{Type: bill.RecurrenceMonthly}, rows[0].Draft.Kind)
	assert.Equal(t, 3, rows[0].Line)

	assert.Equal(t, "1234.56", rows[1].Draft.Amount.String())
	assert.Equal(t, date(2026, 1, 31), rows[1].Draft.DueDate)
	assert.Equal(t, bill.Installment{Total: 3}, rows[1].Draft.Kind)

	assert.Equal(t, "15.99", rows[2].Draft.Amount.String())
	assert.Empty(t, rows[2].Category)
	assert.Equal(t, bill.Recurring{Type: bill.RecurrenceMonthly, EndDate: new(date(2026, 12, 10))}, rows[2].Draft.Kind)

	assert.Equal(t, bill.Recurring{Type: bill.RecurrenceYearly}, rows[3].Draft.Kind)
}

func TestParser_Contas(t *testing.T) {
	csv := `Descrição ;Valor ;Vencimento ;Categoria ;Parcelas ;Recorrência ;Fim
Água ;-45,30 ;12/03/2026 ;Casa ; ;Mensal ;
Ginásio ;30,00 ;05-03-2026 ; ; ; ;
 ; ; ; ;Página 1/1 ;
`

	rows, err := sheet.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Água", rows[0].Draft.Description)
	assert.Equal(t, "45.3", rows[0].Draft.Amount.String())
	assert.Equal(t, date(2026, 3, 12), rows[0].Draft.DueDate)
	assert.Equal(t, bill.Recurring{Type: bill.RecurrenceMonthly}, rows[0].Draft.Kind)
	assert.Equal(t, bill.Plain{}, rows[1].Draft.Kind)
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "Descrição;Valor;Vencimento\nCAFÉ CENTRAL;10,00;30-01-2026\n"

	latin1Bytes, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	rows, err := sheet.NewParser().Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "CAFÉ CENTRAL", rows[0].Draft.Description)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "EmptyFile",
			csv:     "",
			wantErr: "no matching bill sheet format",
		},
		{
			name:    "MissingDescription",
			csv:     "description;amount;due_date\n;10;2026-01-01\n",
			wantErr: "row 2: missing description",
		},
		{
			name:    "BadAmount",
			csv:     "description;amount;due_date\nRent;ten;2026-01-01\n",
			wantErr: "invalid amount",
		},
		{
			name:    "BadInstallments",
			csv:     "description;amount;due_date;installments\nSofa;10;2026-01-01;three\n",
			wantErr: "invalid installments",
		},
		{
			name:    "UnknownRecurrence",
			csv:     "description;amount;due_date;recurrence\nRent;10;2026-01-01;daily\n",
			wantErr: "unknown recurrence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sheet.NewParser().Parse(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParser_HeaderOnly(t *testing.T) {
	rows, err := sheet.NewParser().Parse(strings.NewReader("description;amount;due_date"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
