package models

import "time"

// CartRecord is one persisted cart, keyed by the storage key of its session.
// Payload holds the JSON array of line items exactly as the key-value
// backends store it.
type CartRecord struct {
	Key       string    `gorm:"column:key;type:varchar(255);primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartRecord) TableName() string {
	return "cart_records"
}
