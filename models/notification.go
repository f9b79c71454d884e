package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tipe notifikasi
const (
	NotificationNewOrder       = "new_order"
	NotificationOrderConfirmed = "order_confirmed"
	NotificationOrderRejected  = "order_rejected"
)

type Notification struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title   string `gorm:"type:varchar(100);not null" json:"title"`
	Message string `gorm:"type:text;not null" json:"message"`
	Type    string `gorm:"type:varchar(50);not null;index" json:"type"`
	// OrderID referensi longgar, bukan foreign key
	OrderID     *string   `gorm:"type:varchar(36);index" json:"orderId,omitempty"`
	FromTableID *string   `gorm:"type:varchar(36)" json:"fromTableId,omitempty"`
	FromTable   *Table    `gorm:"foreignKey:FromTableID" json:"fromTable,omitempty"`
	FromUserID  *string   `gorm:"type:varchar(36)" json:"fromUserId,omitempty"`
	ToUserID    *string   `gorm:"type:varchar(36);index" json:"toUserId,omitempty"`
	ToTableID   *string   `gorm:"type:varchar(36);index" json:"toTableId,omitempty"`
	ToGuestID   *string   `gorm:"type:varchar(64);index" json:"toGuestId,omitempty"`
	IsRead      bool      `gorm:"not null;default:false" json:"isRead"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
