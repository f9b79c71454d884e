package database

import (
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/utils"
	"gorm.io/gorm"
)

// Migrate menjalankan AutoMigrate untuk semua model
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Notification{},
		&models.TableConnection{},
	)
	if err != nil {
		return err
	}
	utils.InfoLogger.Info("AutoMigrate completed.")
	return nil
}
