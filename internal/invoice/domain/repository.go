package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status   string
	ClientID snowflake.ID
	From     *time.Time
	To       *time.Time
	Limit    int
}

type Repository interface {
	// Insert writes the invoice row only; items go through InsertItems.
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	InsertItems(ctx context.Context, db *gorm.DB, items []*InvoiceItem) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, at time.Time) error
	DeleteItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ExistsByNumber(ctx context.Context, db *gorm.DB, number string) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Invoice, error)
}
