package catalog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/talkincode/bakeshop/internal/domain"
)

// ProductStock is the stock-bearing view of a top-level product. Stock is
// nil for unlimited (or variant-tracked) products.
type ProductStock struct {
	Title string
	Stock *int
}

// VariantStock is the stock-bearing view of a variant SKU. DisplayTitle is
// "<product title> - <variant name>", the form used in error messages.
type VariantStock struct {
	ProductID    string
	DisplayTitle string
	Stock        int
}

// StockIndex maps catalog ids straight to their stock-bearing entity,
// replacing repeated per-product variant scans with two hash lookups.
// Variant ids take precedence over product ids during resolution.
type StockIndex struct {
	Products map[string]ProductStock
	Variants map[string]VariantStock
}

// BuildStockIndex constructs an index from already-loaded catalog rows.
func BuildStockIndex(products []domain.Product) *StockIndex {
	idx := &StockIndex{
		Products: make(map[string]ProductStock, len(products)),
		Variants: make(map[string]VariantStock),
	}
	for _, p := range products {
		idx.Products[p.ID] = ProductStock{Title: p.Title, Stock: p.Stock}
		for _, v := range p.Variants {
			idx.Variants[v.ID] = VariantStock{
				ProductID:    p.ID,
				DisplayTitle: p.Title + " - " + v.Name,
				Stock:        v.Stock,
			}
		}
	}
	return idx
}

// StockIndex loads the two stock-bearing projections in two queries.
func (r *GormRepository) StockIndex(ctx context.Context) (*StockIndex, error) {
	var products []domain.Product
	err := r.db.WithContext(ctx).
		Select("id", "title", "stock").Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "index products")
	}

	type variantRow struct {
		ID           string
		ProductID    string
		Stock        int
		ProductTitle string
		Name         string
	}
	var variants []variantRow
	err = r.db.WithContext(ctx).Model(&domain.ProductVariant{}).
		Select("product_variants.id", "product_variants.product_id",
			"product_variants.stock", "product_variants.name",
			"products.title AS product_title").
		Joins("JOIN products ON products.id = product_variants.product_id").
		Scan(&variants).Error
	if err != nil {
		return nil, errors.Wrap(err, "index variants")
	}

	idx := &StockIndex{
		Products: make(map[string]ProductStock, len(products)),
		Variants: make(map[string]VariantStock, len(variants)),
	}
	for _, p := range products {
		idx.Products[p.ID] = ProductStock{Title: p.Title, Stock: p.Stock}
	}
	for _, v := range variants {
		idx.Variants[v.ID] = VariantStock{
			ProductID:    v.ProductID,
			DisplayTitle: v.ProductTitle + " - " + v.Name,
			Stock:        v.Stock,
		}
	}
	return idx, nil
}
