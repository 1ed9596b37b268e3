package catalog

import "github.com/talkincode/bakeshop/internal/domain"

// ProductView is the storefront JSON shape for a product, with image rows
// flattened to URLs.
type ProductView struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description"`
	Img              string                  `json:"img"`
	Category         string                  `json:"category"`
	Price            *float64                `json:"price"`
	Stock            *int                    `json:"stock"`
	HasVariants      bool                    `json:"hasVariants"`
	AdditionalImages []string                `json:"additionalImages"`
	Variants         []domain.ProductVariant `json:"variants"`
}

func ToView(p domain.Product) ProductView {
	variants := p.Variants
	if variants == nil {
		variants = []domain.ProductVariant{}
	}
	return ProductView{
		ID:               p.ID,
		Title:            p.Title,
		Description:      p.Description,
		Img:              p.Image,
		Category:         p.Category,
		Price:            p.Price,
		Stock:            p.Stock,
		HasVariants:      p.HasVariants,
		AdditionalImages: p.AdditionalImages(),
		Variants:         variants,
	}
}

func ToViews(products []domain.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, ToView(p))
	}
	return views
}
