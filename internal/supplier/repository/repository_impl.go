package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/supplier/domain"
	"github.com/smallbiznis/billflow/pkg/db/option"
	"github.com/smallbiznis/billflow/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[domain.Supplier] {
	return repository.ProvideStore[domain.Supplier](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return r.store(db).Create(ctx, supplier)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, supplier *domain.Supplier) error {
	return r.store(db).Save(ctx, supplier)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store(db).Delete(ctx, int64(id))
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Supplier, error) {
	return r.store(db).FindByID(ctx, int64(id))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, name string) ([]*domain.Supplier, error) {
	opts := []option.QueryOption{option.WithSortBy("name", false)}
	if name != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "name",
			Operator: option.ILIKE,
			Value:    "%" + name + "%",
		}))
	}
	return r.store(db).Find(ctx, nil, opts...)
}
