// Package catalog holds the product entity and the read-only lookup used to price carts.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Version is used for optimistic concurrency control.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	SubCategory string          `json:"subCategory"`
	Sizes       []string        `json:"sizes"`
	Images      []string        `json:"images"`
	Bestseller  bool            `json:"bestseller"`
	Version     int32           `json:"version"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Catalog resolves cart item identifiers to products.
type Catalog interface {
	Lookup(itemID string) (Product, bool)
}

// Snapshot is an immutable catalog built once per aggregation call.
type Snapshot struct {
	products map[uuid.UUID]Product
}

// NewSnapshot indexes products by identifier.
func NewSnapshot(products []Product) Snapshot {
	m := make(map[uuid.UUID]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return Snapshot{products: m}
}

// Lookup returns the product for itemID. Any textual form uuid.Parse accepts resolves,
// so upper case, braced and urn:uuid: keys price like the canonical form.
func (s Snapshot) Lookup(itemID string) (Product, bool) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return Product{}, false
	}
	p, ok := s.products[id]
	return p, ok
}

// Len returns the number of products in the snapshot.
func (s Snapshot) Len() int {
	return len(s.products)
}
