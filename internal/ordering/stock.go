package ordering

import (
	"sort"

	"github.com/talkincode/bakeshop/internal/catalog"
)

// RefKind tags which table a resolved stock entity lives in.
type RefKind int

const (
	RefProduct RefKind = iota
	RefVariant
)

// StockDecrement is one planned stock mutation, applied inside the order
// transaction as a conditional update.
type StockDecrement struct {
	Kind  RefKind
	ID    string
	Qty   int
	Title string
}

// ResolvePlan resolves every requested id against the catalog index,
// validates sufficiency, and returns the decrement plan. The whole plan is
// rejected on the first insufficiency, so no partial decrement can happen
// for an order that will be refused.
//
// Resolution policy:
//   - a variant id match wins over a product id match
//   - ids absent from the catalog pass through untouched (promotional or
//     free-text lines are not an error)
//   - products with NULL stock are unlimited and never block validation
func ResolvePlan(idx *catalog.StockIndex, requested map[string]int) ([]StockDecrement, error) {
	ids := make([]string, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	// Deterministic resolution order keeps error messages stable.
	sort.Strings(ids)

	plan := make([]StockDecrement, 0, len(ids))
	for _, id := range ids {
		qty := requested[id]

		if v, ok := idx.Variants[id]; ok {
			if qty > v.Stock {
				return nil, &StockInsufficientError{Title: v.DisplayTitle, Available: v.Stock}
			}
			plan = append(plan, StockDecrement{Kind: RefVariant, ID: id, Qty: qty, Title: v.DisplayTitle})
			continue
		}

		if p, ok := idx.Products[id]; ok {
			if p.Stock == nil {
				continue
			}
			if qty > *p.Stock {
				return nil, &StockInsufficientError{Title: p.Title, Available: *p.Stock}
			}
			plan = append(plan, StockDecrement{Kind: RefProduct, ID: id, Qty: qty, Title: p.Title})
		}
	}
	return plan, nil
}
