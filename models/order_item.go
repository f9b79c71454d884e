package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderItem struct {
	ID        string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID   string `gorm:"type:varchar(36);not null;index" json:"orderId"`
	ProductID string `gorm:"type:varchar(36);not null" json:"productId"`
	// Product hanya di-preload untuk tampilan, tidak ikut disimpan
	Product   *Product  `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
