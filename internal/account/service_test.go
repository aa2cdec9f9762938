package account_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/finny/internal/account"
	"github.com/MrJamesThe3rd/finny/internal/memstore"
)

func TestService_Create(t *testing.T) {
	tests := []struct {
		name    string
		params  account.CreateParams
		wantErr bool
	}{
		{
			name:   "Success",
			params: account.CreateParams{Name: " Checking ", Type: account.TypeBank, Balance: decimal.NewFromInt(100)},
		},
		{
			name:    "MissingName",
			params:  account.CreateParams{Name: "  ", Type: account.TypeBank},
			wantErr: true,
		},
		{
			name:    "UnknownType",
			params:  account.CreateParams{Name: "Wallet", Type: "crypto"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := account.NewService(memstore.New(nil))

			got, err := svc.Create(context.Background(), tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, "Checking", got.Name)
		})
	}
}

func TestService_TotalBalance(t *testing.T) {
	ctx := context.Background()
	svc := account.NewService(memstore.New(nil))

	for _, b := range []string{"100.25", "-20.25", "0"} {
		_, err := svc.Create(ctx, account.CreateParams{Name: "acc " + b, Type: account.TypeCash, Balance: decimal.RequireFromString(b)})
		require.NoError(t, err)
	}

	total, err := svc.TotalBalance(ctx)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(80)))
}
