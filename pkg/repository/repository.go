package repository

import (
	"context"

	"github.com/smallbiznis/billflow/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store for one table.
// Lookups return (nil, nil) when no row matches.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	FindByID(ctx context.Context, id int64, opts ...option.QueryOption) (*T, error)
	Exists(ctx context.Context, opts ...option.QueryOption) (bool, error)
	Create(ctx context.Context, resource *T) error
	Save(ctx context.Context, resource *T) error
	Update(ctx context.Context, id int64, resource any) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, query *T) (int64, error)
	BatchCreate(ctx context.Context, resources []*T) error
}
