package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/product/domain"
	"github.com/smallbiznis/billflow/pkg/db/option"
	"github.com/smallbiznis/billflow/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[domain.Product] {
	return repository.ProvideStore[domain.Product](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return r.store(db).Create(ctx, product)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return r.store(db).Save(ctx, product)
}

func (r *repo) UpdateStock(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return r.store(db).Update(ctx, int64(product.ID), map[string]any{
		"stock_quantity": product.StockQuantity,
		"serial_numbers": product.SerialNumbers,
		"updated_at":     product.UpdatedAt,
	})
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store(db).Delete(ctx, int64(id))
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	return r.store(db).FindByID(ctx, int64(id))
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	return r.store(db).FindByID(ctx, int64(id), option.WithLockForUpdate())
}

func (r *repo) FindAll(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Product, error) {
	opts := []option.QueryOption{option.WithSortBy("name", false)}
	if filter.SortBy != "" {
		opts = []option.QueryOption{option.WithQuerySortBy(filter.SortBy)}
	}
	opts = append(opts, option.WithSortBy("id", false))
	if filter.Category != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "category",
			Operator: option.EQ,
			Value:    filter.Category,
		}))
	}
	if filter.BatteryOnly {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "is_battery",
			Operator: option.EQ,
			Value:    true,
		}))
	}
	return r.store(db).Find(ctx, nil, opts...)
}

type soldRow struct {
	ProductID snowflake.ID
	Sold      int64
}

func (r *repo) SoldCounts(ctx context.Context, db *gorm.DB) (map[snowflake.ID]int64, error) {
	var rows []soldRow
	err := db.WithContext(ctx).
		Table("invoice_items").
		Select("product_id, COALESCE(SUM(quantity), 0) AS sold").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[snowflake.ID]int64, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Sold
	}
	return out, nil
}
