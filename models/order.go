package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status order
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusRejected  = "rejected"
)

// Asal pembuat order
const OrderCreatedByGuest = "guest"

type Order struct {
	ID         string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderCode  string      `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderCode"`
	TableID    *string     `gorm:"type:varchar(36);index" json:"tableId"`
	Table      *Table      `gorm:"foreignKey:TableID" json:"table,omitempty"`
	GuestID    *string     `gorm:"type:varchar(64);index" json:"guestId"`
	Status     string      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalPrice float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"totalPrice"`
	CreatedBy  string      `gorm:"type:varchar(20);not null;default:'guest'" json:"createdBy"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"orderItems"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.OrderCode == "" {
		o.OrderCode = NewOrderCode(time.Now())
	}
	return nil
}

// IsTerminal -> confirmed/rejected tidak bisa diubah lagi
func (o *Order) IsTerminal() bool {
	return IsTerminalStatus(o.Status)
}

// ShortCode -> 5 karakter terakhir kode order, yang ditampilkan ke customer
func (o *Order) ShortCode() string {
	code := o.OrderCode
	if len(code) > 5 {
		code = code[len(code)-5:]
	}
	return strings.ToUpper(code)
}

func IsTerminalStatus(status string) bool {
	return status == OrderStatusConfirmed || status == OrderStatusRejected
}

// NewOrderCode menghasilkan kode yang bisa dibaca manusia, contoh: ORD-20260118-4F9A1C
func NewOrderCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix)
}
