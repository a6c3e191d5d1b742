// Package store provides persistence for carts, products and custom orders.
package store

import (
	"context"

	"github.com/abgdnv/stitchnstyle/internal/cart"
	"github.com/abgdnv/stitchnstyle/internal/catalog"
	"github.com/abgdnv/stitchnstyle/internal/customorder"
	"github.com/google/uuid"
)

// CartStore persists one cart document per account.
type CartStore interface {
	// Get returns the sanitized items of owner's cart. A missing cart is empty.
	Get(ctx context.Context, owner string) (cart.Items, error)

	// Update applies fn to owner's cart as one atomic read-compute-write and returns the stored items.
	// When fn returns an error nothing is written and the error is returned unchanged.
	Update(ctx context.Context, owner string, fn func(c *cart.Cart) error) (cart.Items, error)
}

// ProductStore is the catalog persistence.
type ProductStore interface {
	// FindByID returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)

	// FindByIDs returns the products that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error)

	// FindAll returns a page of products, newest first.
	FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error)

	// Create stores a new product and returns it with its id, version and creation time.
	Create(ctx context.Context, p catalog.Product) (*catalog.Product, error)

	// Update replaces the product whose id and version match p and increments the version.
	// Returns ErrProductNotFound for an unknown id and ErrOptimisticLock for a stale version.
	Update(ctx context.Context, p catalog.Product) (*catalog.Product, error)

	// DeleteByID removes the product with the given id and version.
	DeleteByID(ctx context.Context, id uuid.UUID, version int32) error
}

// CustomOrderStore persists custom orders.
type CustomOrderStore interface {
	Create(ctx context.Context, o *customorder.Order) error

	// FindByID returns ErrOrderNotFound if no order exists with the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*customorder.Order, error)

	// FindByUser returns a page of userID's orders, newest first.
	FindByUser(ctx context.Context, userID string, offset, limit int32) ([]customorder.Order, error)

	// FindAll returns a page of all orders, newest first, optionally filtered by status.
	FindAll(ctx context.Context, status customorder.Status, offset, limit int32) ([]customorder.Order, error)

	// Update applies fn to the order as one atomic read-compute-write, increments the version and
	// returns the stored order. When fn returns an error nothing is written.
	Update(ctx context.Context, id uuid.UUID, fn func(o *customorder.Order) error) (*customorder.Order, error)
}
