package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductRequest struct {
	Name                   string          `json:"name"`
	Description            string          `json:"description"`
	Price                  decimal.Decimal `json:"price"`
	Category               string          `json:"category"`
	SupplierID             string          `json:"supplier_id"`
	StockQuantity          int             `json:"stock_quantity"`
	IsBattery              bool            `json:"is_battery"`
	WarrantyDurationMonths *int            `json:"warranty_duration_months"`
	SerialNumbers          []string        `json:"serial_numbers"`
}

type UpdateProductRequest struct {
	ID string `json:"-"`
	ProductRequest
}

type ListRequest struct {
	Category string
	// SortBy is "field" or "field:desc" over SortableFields.
	SortBy string
}

// SortableFields are the columns a product list may be ordered by.
var SortableFields = map[string]struct{}{
	"name":           {},
	"category":       {},
	"price":          {},
	"stock_quantity": {},
	"created_at":     {},
}

type Service interface {
	Create(context.Context, ProductRequest) (Product, error)
	Update(context.Context, UpdateProductRequest) (Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Product, error)
	// List returns every product annotated with its lifetime sold count.
	List(context.Context, ListRequest) ([]Product, error)
	ListBatteries(context.Context) ([]Product, error)
	FindBySerialFragment(ctx context.Context, fragment string) ([]Product, error)
	AvailableSerials(ctx context.Context, id string) ([]string, error)

	// AdjustStock applies adj inside tx with the product row locked.
	AdjustStock(ctx context.Context, tx *gorm.DB, adj StockAdjustment) (*Product, error)
	SoldCounts(ctx context.Context) (map[snowflake.ID]int64, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidWarranty     = errors.New("invalid_warranty")
	ErrInvalidStock        = errors.New("invalid_stock")
	ErrInvalidSortBy       = errors.New("invalid_sort_by")
	ErrDuplicateSerial     = errors.New("duplicate_serial")
	ErrNotFound            = errors.New("not_found")
	ErrSupplierRequired    = errors.New("supplier_required")
	ErrSupplierNotFound    = errors.New("supplier_not_found")
	ErrProductInUse        = errors.New("product_in_use")
	ErrSerialCountMismatch = errors.New("serial_count_mismatch")
	ErrSerialNotInStock    = errors.New("serial_not_in_stock")
	ErrSerialsNotTracked   = errors.New("serials_not_tracked")
)
