package matching_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/finny/internal/matching"
	"github.com/MrJamesThe3rd/finny/internal/memstore"
)

func TestService_LearnAndSuggest(t *testing.T) {
	ctx := context.Background()
	svc := matching.NewService(memstore.New(nil))

	streaming := uuid.New()
	require.NoError(t, svc.Learn(ctx, " netflix ", streaming))

	id, ok, err := svc.Suggest(ctx, "NETFLIX.COM subscription")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, streaming, id)

	_, ok, err = svc.Suggest(ctx, "Bakery")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, svc.Learn(ctx, "  ", streaming))
	assert.Error(t, svc.Learn(ctx, "spotify", uuid.Nil))
}
