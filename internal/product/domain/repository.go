package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Category    string
	BatteryOnly bool
	SortBy      string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	UpdateStock(ctx context.Context, db *gorm.DB, product *Product) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	// FindByIDForUpdate locks the row until db's transaction ends.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindAll(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Product, error)
	// SoldCounts sums invoice item quantities per product.
	SoldCounts(ctx context.Context, db *gorm.DB) (map[snowflake.ID]int64, error)
}
