package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/digital-menu/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrateAndSeedIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Seed(db))
	require.NoError(t, Seed(db))

	var users, tables, products int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Table{}).Count(&tables)
	db.Model(&models.Product{}).Count(&products)
	assert.Equal(t, int64(len(demoUsers)), users)
	assert.Equal(t, int64(len(demoTables)), tables)
	assert.Equal(t, int64(len(demoProducts)), products)

	var admin models.User
	require.NoError(t, db.First(&admin, "email = ?", "admin@digitalmenu.local").Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(DemoPassword)))
	assert.NotEmpty(t, admin.ID)
}
