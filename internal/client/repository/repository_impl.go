package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/client/domain"
	"github.com/smallbiznis/billflow/pkg/db/option"
	"github.com/smallbiznis/billflow/pkg/db/pagination"
	"github.com/smallbiznis/billflow/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[domain.Client] {
	return repository.ProvideStore[domain.Client](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return r.store(db).Create(ctx, client)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return r.store(db).Save(ctx, client)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store(db).Delete(ctx, int64(id))
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	return r.store(db).FindByID(ctx, int64(id))
}

func (r *repo) ExistsByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return r.store(db).Exists(ctx, option.ApplyOperator(option.Condition{
		Field:    "email",
		Operator: option.EQ,
		Value:    email,
	}))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListClientFilter, page pagination.Pagination) ([]*domain.Client, error) {
	opts := []option.QueryOption{}
	if filter.Name != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "name",
			Operator: option.ILIKE,
			Value:    "%" + filter.Name + "%",
		}))
	}
	if filter.Email != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "email",
			Operator: option.EQ,
			Value:    filter.Email,
		}))
	}
	opts = append(opts, option.ApplyPagination(page))
	return r.store(db).Find(ctx, nil, opts...)
}
