package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableConnection -> satu baris per koneksi customer yang aktif.
// Satu guest bisa punya banyak baris (multi tab), dan satu meja bisa punya banyak guest.
type TableConnection struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableID      string    `gorm:"type:varchar(36);not null;index:idx_table_guest" json:"tableId"`
	GuestID      string    `gorm:"type:varchar(64);not null;index:idx_table_guest" json:"guestId"`
	ConnectionID string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"connectionId"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

func (tc *TableConnection) BeforeCreate(tx *gorm.DB) error {
	if tc.ID == "" {
		tc.ID = uuid.NewString()
	}
	return nil
}
