package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Decode reads a stored cart document. Malformed quantities are coerced by Sanitize;
// only a document that is not a JSON object is an error. Empty input is an empty cart.
func Decode(data []byte) (Items, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Items{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode cart document: %w", err)
	}
	return Sanitize(raw), nil
}

// Encode serializes items for storage.
func Encode(items Items) ([]byte, error) {
	if items == nil {
		items = Items{}
	}
	return json.Marshal(items)
}

// Sanitize coerces a loosely typed stored mapping into Items. Entries whose item value is
// not an object, or whose quantity is not a finite positive number, are dropped. Fractional
// quantities are truncated toward zero.
func Sanitize(raw map[string]any) Items {
	items := make(Items, len(raw))
	for itemID, v := range raw {
		sizes, ok := v.(map[string]any)
		if !ok || itemID == "" {
			continue
		}
		for size, q := range sizes {
			qty, ok := coerceQuantity(q)
			if !ok || size == "" {
				continue
			}
			if items[itemID] == nil {
				items[itemID] = make(map[string]int, len(sizes))
			}
			items[itemID][size] = qty
		}
	}
	return items
}

func coerceQuantity(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < 1 || f > MaxQuantity {
		return 0, false
	}
	return int(f), true
}
