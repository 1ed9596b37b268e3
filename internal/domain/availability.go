package domain

import "time"

const (
	DateTypePickup   = "pickup"
	DateTypeDelivery = "delivery"
)

// AvailableDate is a date-keyed slot counter. Each successful order
// consumes one remaining slot for its (type, date) pair.
type AvailableDate struct {
	ID             int64     `gorm:"primaryKey" json:"id,string"`
	Type           string    `gorm:"size:16;uniqueIndex:idx_dates_type_date" json:"type" form:"type"`
	Date           string    `gorm:"size:32;uniqueIndex:idx_dates_type_date" json:"date" form:"date"`
	TotalSlots     int       `json:"totalSlots" form:"totalSlots"`
	RemainingSlots int       `json:"remainingSlots"`
	Notes          string    `json:"notes" form:"notes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (AvailableDate) TableName() string {
	return "available_dates"
}
