package cart

import (
	"cmp"
	"iter"
	"math"
	"slices"

	"github.com/abgdnv/stitchnstyle/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line is a cart entry resolved against the catalog.
type Line struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Summary is the checkout view of a cart.
type Summary struct {
	Count       int             `json:"count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	Lines       []Line          `json:"lines"`
}

// TotalItemCount sums every positive quantity, saturating at math.MaxInt. It does not
// consult the catalog.
func TotalItemCount(items Items) int {
	total := 0
	for _, sizes := range items {
		for _, qty := range sizes {
			if qty <= 0 {
				continue
			}
			if qty > math.MaxInt-total {
				return math.MaxInt
			}
			total += qty
		}
	}
	return total
}

// LineItems yields one resolved line per (item, size) with a positive quantity whose item is
// in the catalog. Items missing from the catalog are skipped. Iteration order follows the map
// and is unspecified; the sequence can be ranged over any number of times.
func LineItems(items Items, c catalog.Catalog) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for itemID, sizes := range items {
			product, ok := c.Lookup(itemID)
			if !ok {
				continue
			}
			for size, qty := range sizes {
				if qty <= 0 {
					continue
				}
				line := Line{
					ItemID:    itemID,
					Name:      product.Name,
					Size:      size,
					Quantity:  qty,
					UnitPrice: product.Price,
					LineTotal: product.Price.Mul(decimal.NewFromInt(int64(qty))),
				}
				if !yield(line) {
					return
				}
			}
		}
	}
}

// TotalAmount sums price x quantity over the lines that resolve in the catalog.
func TotalAmount(items Items, c catalog.Catalog) decimal.Decimal {
	total := decimal.Zero
	for line := range LineItems(items, c) {
		total = total.Add(line.LineTotal)
	}
	return total
}

// SortedLines collects lines ordered by item id, then size.
func SortedLines(lines iter.Seq[Line]) []Line {
	return slices.SortedFunc(lines, func(a, b Line) int {
		return cmp.Or(cmp.Compare(a.ItemID, b.ItemID), cmp.Compare(a.Size, b.Size))
	})
}

// Summarize builds the checkout summary. The delivery fee is charged only on a non-zero subtotal.
func Summarize(items Items, c catalog.Catalog, deliveryFee decimal.Decimal, currency string) Summary {
	lines := SortedLines(LineItems(items, c))
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}
	fee := decimal.Zero
	if subtotal.IsPositive() {
		fee = deliveryFee
	}
	if lines == nil {
		lines = []Line{}
	}
	return Summary{
		Count:       TotalItemCount(items),
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
		Currency:    currency,
		Lines:       lines,
	}
}
