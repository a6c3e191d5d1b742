// Package cart maintains per-account item/size quantities and derives totals from them.
package cart

import (
	"maps"
	"math"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
)

// MaxQuantity is the largest quantity one line may hold. Stored documents cannot carry more.
const MaxQuantity = math.MaxInt32

// Items maps item id -> size -> quantity. Every stored quantity is >= 1.
type Items map[string]map[string]int

// Clone returns a deep copy.
func (it Items) Clone() Items {
	out := make(Items, len(it))
	for itemID, sizes := range it {
		out[itemID] = maps.Clone(sizes)
	}
	return out
}

// Cart is the authoritative item/size/quantity mapping of one account.
type Cart struct {
	owner string
	items Items
}

// New returns an empty cart owned by owner.
func New(owner string) (*Cart, error) {
	return FromItems(owner, nil)
}

// FromItems wraps previously stored items. Entries outside 1..MaxQuantity are pruned.
func FromItems(owner string, items Items) (*Cart, error) {
	if owner == "" {
		return nil, sferrors.ErrOwnerRequired
	}
	c := &Cart{owner: owner, items: make(Items, len(items))}
	for itemID, sizes := range items {
		for size, qty := range sizes {
			if qty > 0 && qty <= MaxQuantity {
				c.put(itemID, size, qty)
			}
		}
	}
	return c, nil
}

// Owner returns the account identifier the cart belongs to.
func (c *Cart) Owner() string {
	return c.owner
}

// Add increments the quantity of (itemID, size) by one. A line already at MaxQuantity
// is a validation error and stays unchanged.
func (c *Cart) Add(itemID, size string) error {
	if err := checkLine(itemID, size); err != nil {
		return err
	}
	if c.items[itemID][size] >= MaxQuantity {
		return quantityTooLarge()
	}
	c.put(itemID, size, c.items[itemID][size]+1)
	return nil
}

// SetQuantity overwrites the quantity of (itemID, size). A quantity <= 0 removes the size,
// and the item too when it has no sizes left. A quantity above MaxQuantity is a validation error.
func (c *Cart) SetQuantity(itemID, size string, quantity int) error {
	if err := checkLine(itemID, size); err != nil {
		return err
	}
	if quantity > MaxQuantity {
		return quantityTooLarge()
	}
	if quantity > 0 {
		c.put(itemID, size, quantity)
		return nil
	}
	sizes, ok := c.items[itemID]
	if !ok {
		return nil
	}
	delete(sizes, size)
	if len(sizes) == 0 {
		delete(c.items, itemID)
	}
	return nil
}

// Clear removes every entry.
func (c *Cart) Clear() {
	clear(c.items)
}

// Items returns a copy of the current mapping.
func (c *Cart) Items() Items {
	return c.items.Clone()
}

func (c *Cart) put(itemID, size string, qty int) {
	sizes, ok := c.items[itemID]
	if !ok {
		sizes = make(map[string]int, 1)
		c.items[itemID] = sizes
	}
	sizes[size] = qty
}

func checkLine(itemID, size string) error {
	fields := map[string]string{}
	if itemID == "" {
		fields["itemId"] = "failed on rule: required"
	}
	if size == "" {
		fields["size"] = "failed on rule: required"
	}
	if len(fields) > 0 {
		return sferrors.NewValidationError(fields)
	}
	return nil
}

func quantityTooLarge() error {
	return sferrors.NewValidationError(map[string]string{"quantity": "failed on rule: lte"})
}
