package config

import (
	"fmt"

	"github.com/yeremiapane/digital-menu/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB membuka koneksi gorm sesuai DB_DRIVER
func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverMySQL:
		dialector = mysql.Open(cfg.DBDSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if cfg.DBDriver == DriverSQLite {
		// sqlite hanya punya satu writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	utils.InfoLogger.WithField("driver", cfg.DBDriver).Info("Database connected")
	return db, nil
}
