package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/talkincode/bakeshop/internal/domain"
)

func TestToView(t *testing.T) {
	price := 25.0
	stock := 10
	p := domain.Product{
		ID:          "choco-chip",
		Title:       "Chocolate Chip Cookies",
		Image:       "/uploads/products/main.jpg",
		Category:    "cookies",
		Price:       &price,
		Stock:       &stock,
		HasVariants: false,
		Images: []domain.ProductImage{
			{ID: 1, ProductID: "choco-chip", URL: "/uploads/products/a.jpg"},
			{ID: 2, ProductID: "choco-chip", URL: "/uploads/products/b.jpg"},
		},
	}

	v := ToView(p)
	assert.Equal(t, "/uploads/products/main.jpg", v.Img)
	assert.Equal(t, []string{"/uploads/products/a.jpg", "/uploads/products/b.jpg"}, v.AdditionalImages)
	assert.NotNil(t, v.Variants, "variants must serialize as [] not null")
	assert.Len(t, v.Variants, 0)
}

func TestToViewsEmpty(t *testing.T) {
	views := ToViews(nil)
	assert.NotNil(t, views)
	assert.Len(t, views, 0)
}
