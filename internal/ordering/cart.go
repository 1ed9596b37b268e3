package ordering

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CartItem is one storefront cart line. Client payloads are tolerated in
// two shapes: `id`/`qty` and `productId`/`quantity`.
type CartItem struct {
	ID        string  `json:"id,omitempty"`
	ProductID string  `json:"productId,omitempty"`
	Title     string  `json:"title,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Qty       int     `json:"qty,omitempty"`
	Quantity  int     `json:"quantity,omitempty"`
}

// EntityID returns the catalog id this line refers to, or "" for
// free-text lines.
func (i CartItem) EntityID() string {
	if i.ID != "" {
		return i.ID
	}
	return i.ProductID
}

// Count returns the requested quantity regardless of field spelling.
func (i CartItem) Count() int {
	if i.Qty != 0 {
		return i.Qty
	}
	return i.Quantity
}

// ParseCart decodes the submitted cart JSON. Both an item array and an
// id-keyed object are accepted. The returned snapshot is the submitted
// payload verbatim (shape and unknown fields preserved), stored on the
// order so catalog edits never rewrite history.
func ParseCart(raw string) ([]CartItem, string, error) {
	var generic interface{}
	if err := json.UnmarshalFromString(raw, &generic); err != nil {
		return nil, "", err
	}

	var entries []interface{}
	switch g := generic.(type) {
	case []interface{}:
		entries = g
	case map[string]interface{}:
		entries = make([]interface{}, 0, len(g))
		for _, v := range g {
			entries = append(entries, v)
		}
	default:
		return nil, "", validationErrorf("cart must be an array or object")
	}

	items := make([]CartItem, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		var item CartItem
		if err := json.Unmarshal(data, &item); err != nil {
			continue
		}
		items = append(items, item)
	}

	return items, raw, nil
}

// AggregateQuantities sums requested quantities per entity id. Duplicate
// cart lines for the same id are combined so a per-item limit cannot be
// bypassed by splitting lines.
func AggregateQuantities(items []CartItem) map[string]int {
	requested := make(map[string]int, len(items))
	for _, item := range items {
		id := item.EntityID()
		qty := item.Count()
		if id == "" || qty <= 0 {
			continue
		}
		requested[id] += qty
	}
	return requested
}
