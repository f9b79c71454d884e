package services

import (
	"context"

	"github.com/yeremiapane/digital-menu/models"
	"gorm.io/gorm"
)

// Catalog me-resolve product id ke harga dan ketersediaan. Data produk bukan milik pipeline order.
type Catalog interface {
	ResolveProducts(ctx context.Context, ids []string) (map[string]models.Product, error)
}

type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) ResolveProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []models.Product
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, persistence("resolve products", err)
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
