package domain

import "time"

// ProductLimit is an advisory per-product ceiling on the quantity a single
// order may request. It is served to the storefront for client-side
// enforcement; the submission path does not consult it.
type ProductLimit struct {
	ProductID   string    `gorm:"primaryKey;size:64" json:"product_id"`
	MaxQuantity int       `json:"max_quantity"`
	UpdatedBy   string    `gorm:"size:64" json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProductLimit) TableName() string {
	return "product_limits"
}
