package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/digital-menu/database"
	"github.com/yeremiapane/digital-menu/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testStaffRoles = []string{"admin", "staff", "waiter"}

// setupTestDB -> sqlite in-memory dengan satu koneksi, jadi transaksi yang bersamaan antre
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	db      *gorm.DB
	orders  *OrderService
	table   models.Table
	other   models.Table
	staff   models.User
	chef    models.User
	nasi    models.Product
	teh     models.Product
	soldOut models.Product
}

// newFixture: meja t1 & t2, satu waiter, satu chef (bukan staff), produk $5, $3 dan satu yang habis
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	f := &fixture{db: db}
	f.table = models.Table{Name: "Table 1", TNumber: 1}
	f.other = models.Table{Name: "Table 2", TNumber: 2}
	require.NoError(t, db.Create(&f.table).Error)
	require.NoError(t, db.Create(&f.other).Error)

	f.staff = models.User{Name: "Waiter", Email: "s1@test.local", Password: "x", Role: "waiter"}
	f.chef = models.User{Name: "Chef", Email: "chef@test.local", Password: "x", Role: "chef"}
	require.NoError(t, db.Create(&f.staff).Error)
	require.NoError(t, db.Create(&f.chef).Error)

	f.nasi = models.Product{Name: "Nasi Goreng", Price: 5}
	f.teh = models.Product{Name: "Es Teh", Price: 3}
	f.soldOut = models.Product{Name: "Sate", Price: 7}
	require.NoError(t, db.Create(&f.nasi).Error)
	require.NoError(t, db.Create(&f.teh).Error)
	require.NoError(t, db.Create(&f.soldOut).Error)
	// default:true di kolom menimpa false saat create, jadi di-update terpisah
	require.NoError(t, db.Model(&f.soldOut).Update("is_available", false).Error)

	f.orders = NewOrderService(db, NewGormCatalog(db), testStaffRoles, 5*time.Second)
	return f
}

func (f *fixture) input(guestID string) SubmitOrderInput {
	return SubmitOrderInput{
		TableID: f.table.ID,
		GuestID: guestID,
		CartItems: []CartItem{
			{ProductID: f.nasi.ID, Quantity: 2, Price: 5},
			{ProductID: f.teh.ID, Quantity: 1, Price: 3},
		},
		TotalPrice: 13,
	}
}

func (f *fixture) submit(t *testing.T, guestID string) *models.Order {
	t.Helper()
	res, err := f.orders.SubmitOrder(context.Background(), f.input(guestID))
	require.NoError(t, err)
	return res.Order
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
