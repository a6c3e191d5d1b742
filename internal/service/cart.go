// Package service implements the storefront use cases on top of the stores.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abgdnv/stitchnstyle/internal/cart"
	"github.com/abgdnv/stitchnstyle/internal/catalog"
	"github.com/abgdnv/stitchnstyle/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "storefront"

// CartService defines the cart operations of an authenticated account.
type CartService interface {
	// Get returns the account's cart as item -> size -> quantity.
	Get(ctx context.Context, owner string) (cart.Items, error)

	// Add increments (itemID, size) by one.
	Add(ctx context.Context, owner, itemID, size string) (cart.Items, error)

	// SetQuantity overwrites (itemID, size); a quantity <= 0 removes it.
	SetQuantity(ctx context.Context, owner, itemID, size string, quantity int) (cart.Items, error)

	// Clear empties the cart.
	Clear(ctx context.Context, owner string) (cart.Items, error)

	// Summary prices the cart against the current catalog.
	Summary(ctx context.Context, owner string) (cart.Summary, error)
}

// ShopSettings are the storefront-wide pricing constants.
type ShopSettings struct {
	DeliveryFee decimal.Decimal
	Currency    string
}

// Carts implements CartService.
type Carts struct {
	carts     store.CartStore
	products  store.ProductStore
	shop      ShopSettings
	mutations metric.Int64Counter
	logger    *slog.Logger
}

// NewCarts creates a CartService.
func NewCarts(carts store.CartStore, products store.ProductStore, shop ShopSettings, logger *slog.Logger) *Carts {
	mutations, err := otel.Meter(meterName).Int64Counter("cart_mutations_total",
		metric.WithDescription("Total number of cart mutations by operation"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_mutations_total counter: %v", err))
	}
	return &Carts{
		carts:     carts,
		products:  products,
		shop:      shop,
		mutations: mutations,
		logger:    logger.With("component", "cart-service"),
	}
}

func (s *Carts) Get(ctx context.Context, owner string) (cart.Items, error) {
	return s.carts.Get(ctx, owner)
}

func (s *Carts) Add(ctx context.Context, owner, itemID, size string) (cart.Items, error) {
	return s.mutate(ctx, "add", owner, func(c *cart.Cart) error { return c.Add(itemID, size) })
}

func (s *Carts) SetQuantity(ctx context.Context, owner, itemID, size string, quantity int) (cart.Items, error) {
	return s.mutate(ctx, "set", owner, func(c *cart.Cart) error { return c.SetQuantity(itemID, size, quantity) })
}

func (s *Carts) Clear(ctx context.Context, owner string) (cart.Items, error) {
	return s.mutate(ctx, "clear", owner, func(c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

func (s *Carts) mutate(ctx context.Context, op, owner string, fn func(c *cart.Cart) error) (cart.Items, error) {
	items, err := s.carts.Update(ctx, owner, fn)
	if err != nil {
		return nil, err
	}
	s.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	return items, nil
}

func (s *Carts) Summary(ctx context.Context, owner string) (cart.Summary, error) {
	items, err := s.carts.Get(ctx, owner)
	if err != nil {
		return cart.Summary{}, err
	}
	snapshot, err := s.snapshot(ctx, items)
	if err != nil {
		return cart.Summary{}, err
	}
	return cart.Summarize(items, snapshot, s.shop.DeliveryFee, s.shop.Currency), nil
}

// snapshot loads the catalog entries the cart refers to. Identifiers that are not UUIDs cannot
// name a product and are left to resolve as missing.
func (s *Carts) snapshot(ctx context.Context, items cart.Items) (catalog.Snapshot, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for itemID := range items {
		id, err := uuid.Parse(itemID)
		if err != nil {
			s.logger.DebugContext(ctx, "cart references a non-uuid item", "item_id", itemID)
			continue
		}
		ids = append(ids, id)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return catalog.Snapshot{}, fmt.Errorf("load catalog snapshot: %w", err)
	}
	return catalog.NewSnapshot(products), nil
}
