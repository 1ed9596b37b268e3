package domain

import "time"

// Product is a catalog item. When HasVariants is set, Price and Stock are
// NULL and quantity is tracked per variant row instead.
type Product struct {
	ID          string           `gorm:"primaryKey;size:64" json:"id" form:"id"`
	Title       string           `gorm:"index" json:"title" form:"title"`
	Description string           `json:"description" form:"description"`
	Image       string           `gorm:"size:1024" json:"img" form:"img"`
	Category    string           `gorm:"size:64;index" json:"category" form:"category"`
	Price       *float64         `json:"price"`
	Stock       *int             `json:"stock"`
	HasVariants bool             `json:"hasVariants"`
	Images      []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// AdditionalImages flattens the owned image rows to their URLs.
func (p Product) AdditionalImages() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

type ProductImage struct {
	ID        int64  `gorm:"primaryKey" json:"id,string"`
	ProductID string `gorm:"index;size:64" json:"product_id"`
	URL       string `gorm:"size:1024" json:"url"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

// ProductVariant is a priced and stocked SKU owned by its parent product.
// Variant ids share a namespace with product ids; resolution gives variants
// priority.
type ProductVariant struct {
	ID        string  `gorm:"primaryKey;size:128" json:"id"`
	ProductID string  `gorm:"index;size:64" json:"product_id"`
	Name      string  `json:"name"`
	Size      string  `gorm:"size:64" json:"size"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}
