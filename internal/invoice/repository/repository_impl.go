package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/invoice/domain"
	"github.com/smallbiznis/billflow/pkg/db/option"
	"github.com/smallbiznis/billflow/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) store(db *gorm.DB) repository.Repository[domain.Invoice] {
	return repository.ProvideStore[domain.Invoice](db)
}

func (r *repo) items(db *gorm.DB) repository.Repository[domain.InvoiceItem] {
	return repository.ProvideStore[domain.InvoiceItem](db)
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return r.store(db.Omit(clause.Associations)).Create(ctx, invoice)
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []*domain.InvoiceItem) error {
	return r.items(db.Omit(clause.Associations)).BatchCreate(ctx, items)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return r.store(db.Omit(clause.Associations)).Save(ctx, invoice)
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status string, at time.Time) error {
	return r.store(db).Update(ctx, int64(id), map[string]any{
		"status":     status,
		"updated_at": at,
	})
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) error {
	return db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Delete(&domain.InvoiceItem{}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return r.store(db).Delete(ctx, int64(id))
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return r.store(db).FindByID(ctx, int64(id), withDetails()...)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	opts := append(withDetails(), option.WithLockForUpdate())
	return r.store(db).FindByID(ctx, int64(id), opts...)
}

func (r *repo) ExistsByNumber(ctx context.Context, db *gorm.DB, number string) (bool, error) {
	return r.store(db).Exists(ctx, option.ApplyOperator(option.Condition{
		Field:    "invoice_number",
		Operator: option.EQ,
		Value:    number,
	}))
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Invoice, error) {
	opts := withDetails()
	if filter.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "status",
			Operator: option.EQ,
			Value:    filter.Status,
		}))
	}
	if filter.ClientID != 0 {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "client_id",
			Operator: option.EQ,
			Value:    int64(filter.ClientID),
		}))
	}
	if filter.From != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "date",
			Operator: option.GTE,
			Value:    *filter.From,
		}))
	}
	if filter.To != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "date",
			Operator: option.LTE,
			Value:    *filter.To,
		}))
	}
	opts = append(opts, option.WithSortBy("date", true), option.WithSortBy("id", true), option.WithLimit(filter.Limit))
	return r.store(db).Find(ctx, nil, opts...)
}

func withDetails() []option.QueryOption {
	return []option.QueryOption{
		option.WithPreload("Client"),
		option.WithPreload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}),
		option.WithPreload("Items.Product"),
	}
}
