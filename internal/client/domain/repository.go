package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	Update(ctx context.Context, db *gorm.DB, client *Client) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	ExistsByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListClientFilter, page pagination.Pagination) ([]*Client, error)
}
