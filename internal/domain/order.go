package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is one of the admin-settable states.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is one submitted storefront order. CartItems holds the JSON cart
// snapshot taken at submission time; it is never re-derived from the
// catalog, so later catalog edits do not change historical orders. Orders
// have no delete path.
type Order struct {
	ID                string    `gorm:"primaryKey;size:16" json:"id"`
	CustomerName      string    `gorm:"index" json:"customer_name"`
	CustomerEmail     string    `json:"customer_email"`
	CustomerPhone     string    `gorm:"size:64" json:"customer_phone"`
	CustomerAddress   string    `json:"customer_address"`
	CustomerInstagram string    `gorm:"size:128" json:"customer_instagram"`
	CustomerNotes     string    `json:"customer_notes"`
	DeliveryDate      string    `gorm:"size:32;index" json:"delivery_date"`
	DeliveryType      string    `gorm:"size:16" json:"delivery_type"`
	DeliveryFee       float64   `json:"delivery_fee"`
	Subtotal          float64   `json:"subtotal"`
	Total             float64   `json:"total"`
	PaymentProof      string    `gorm:"size:256" json:"payment_proof"`
	PaymentProofPath  string    `gorm:"size:1024" json:"payment_proof_path"`
	CartItems         string    `gorm:"type:text" json:"cart_items"`
	Status            string    `gorm:"size:16;index" json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
