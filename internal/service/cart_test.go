package service

import (
	"context"
	"errors"
	"testing"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/abgdnv/stitchnstyle/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = sferrors.ErrNotFound

func newCarts(t *testing.T) (*Carts, string, string) {
	t.Helper()
	dress := product("Dress", 500)
	saree := product("Saree", 1200)
	products := store.NewMemoryProductStore(dress, saree)
	shop := ShopSettings{DeliveryFee: decimal.NewFromInt(49), Currency: "INR"}
	return NewCarts(store.NewMemoryCartStore(), products, shop, discardLogger), dress.ID.String(), saree.ID.String()
}

func TestCarts_Mutations(t *testing.T) {
	// given
	svc, dress, _ := newCarts(t)
	ctx := context.Background()

	// when
	_, err := svc.Add(ctx, "user-1", dress, "M")
	require.NoError(t, err)
	items, err := svc.Add(ctx, "user-1", dress, "M")

	// then
	require.NoError(t, err)
	assert.Equal(t, 2, items[dress]["M"])

	// when
	items, err = svc.SetQuantity(ctx, "user-1", dress, "M", 0)

	// then
	require.NoError(t, err)
	assert.Empty(t, items)

	// when
	_, err = svc.Add(ctx, "user-1", dress, "L")
	require.NoError(t, err)
	items, err = svc.Clear(ctx, "user-1")

	// then
	require.NoError(t, err)
	assert.Empty(t, items)
	stored, err := svc.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCarts_Errors(t *testing.T) {
	svc, dress, _ := newCarts(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		owner   string
		itemID  string
		size    string
		wantErr error
	}{
		{name: "missing owner", owner: "", itemID: dress, size: "M", wantErr: sferrors.ErrOwnerRequired},
		{name: "missing size", owner: "user-1", itemID: dress, size: "", wantErr: sferrors.ErrValidation},
		{name: "missing item", owner: "user-1", itemID: "", size: "M", wantErr: sferrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			_, err := svc.Add(ctx, tt.owner, tt.itemID, tt.size)

			// then
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestCarts_Summary(t *testing.T) {
	// given
	svc, dress, saree := newCarts(t)
	ctx := context.Background()
	for _, line := range [][2]string{{dress, "M"}, {dress, "M"}, {saree, "L"}, {"legacy-item", "S"}} {
		_, err := svc.Add(ctx, "user-1", line[0], line[1])
		require.NoError(t, err)
	}

	// when
	summary, err := svc.Summary(ctx, "user-1")

	// then
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Count)
	assert.True(t, decimal.NewFromInt(2200).Equal(summary.Subtotal), "subtotal %s", summary.Subtotal)
	assert.True(t, decimal.NewFromInt(2249).Equal(summary.Total), "total %s", summary.Total)
	assert.Equal(t, "INR", summary.Currency)
	require.Len(t, summary.Lines, 2)
}

func TestCarts_SummaryOfEmptyCart(t *testing.T) {
	// given
	svc, _, _ := newCarts(t)

	// when
	summary, err := svc.Summary(context.Background(), "user-2")

	// then
	require.NoError(t, err)
	assert.Zero(t, summary.Count)
	assert.True(t, summary.DeliveryFee.IsZero())
	assert.True(t, summary.Total.IsZero())
}
