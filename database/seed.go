package database

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DemoPassword = "password123"

var demoUsers = []models.User{
	{Name: "Admin", Email: "admin@digitalmenu.local", Role: "admin"},
	{Name: "Waiter One", Email: "waiter1@digitalmenu.local", Role: "waiter"},
	{Name: "Waiter Two", Email: "waiter2@digitalmenu.local", Role: "waiter"},
}

var demoTables = []models.Table{
	{Name: "Table 1", TNumber: 1},
	{Name: "Table 2", TNumber: 2},
	{Name: "Table 3", TNumber: 3},
}

var demoProducts = []models.Product{
	{Name: "Nasi Goreng", Description: "Fried rice with egg", Price: 5},
	{Name: "Mie Ayam", Description: "Chicken noodles", Price: 4.5},
	{Name: "Es Teh", Description: "Iced sweet tea", Price: 1.25},
	{Name: "Kopi Susu", Description: "Milk coffee", Price: 3},
}

// Seed mengisi data demo. Aman dipanggil berulang kali: data dicari berdasarkan
// email / nomor meja / nama produk sebelum dibuat.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		created := 0
		for _, u := range demoUsers {
			u.Password = string(hash)
			ok, err := firstOrCreate(tx, &u, "email = ?", u.Email)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}

		for _, t := range demoTables {
			ok, err := firstOrCreate(tx, &t, "t_number = ?", t.TNumber)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}

		for _, p := range demoProducts {
			ok, err := firstOrCreate(tx, &p, "name = ?", p.Name)
			if err != nil {
				return err
			}
			if ok {
				created++
			}
		}

		utils.InfoLogger.WithFields(logrus.Fields{"created": created}).Info("Demo data seeded")
		return nil
	})
}

func firstOrCreate[T any](tx *gorm.DB, record *T, query string, arg interface{}) (bool, error) {
	var existing T
	err := tx.Where(query, arg).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := tx.Create(record).Error; err != nil {
		return false, err
	}
	return true, nil
}
