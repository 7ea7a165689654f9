package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const DefaultWarrantyMonths = 12

type Product struct {
	ID                     snowflake.ID                `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name                   string                      `gorm:"not null" json:"name"`
	Description            string                      `json:"description,omitempty"`
	Price                  decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	Category               string                      `gorm:"index" json:"category,omitempty"`
	SupplierID             *snowflake.ID               `gorm:"index" json:"supplier_id,omitempty"`
	StockQuantity          int                         `gorm:"not null;default:0" json:"stock_quantity"`
	IsBattery              bool                        `gorm:"not null;default:false" json:"is_battery"`
	WarrantyDurationMonths int                         `gorm:"not null;default:12" json:"warranty_duration_months"`
	SerialNumbers          datatypes.JSONSlice[string] `json:"serial_numbers"`
	CreatedAt              time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time                   `gorm:"not null" json:"updated_at"`

	// Sold is the lifetime quantity across all invoice items; computed on read.
	Sold int64 `gorm:"-" json:"sold"`
}

func (Product) TableName() string { return "products" }

// HasSerial reports whether serial is currently in stock for p.
func (p *Product) HasSerial(serial string) bool {
	for _, s := range p.SerialNumbers {
		if s == serial {
			return true
		}
	}
	return false
}

// StockAdjustment moves units in or out of a product's stock.
// Negative Delta consumes units; Consume names the serials leaving stock
// and Restore the serials coming back.
type StockAdjustment struct {
	ProductID snowflake.ID
	Delta     int
	Consume   []string
	Restore   []string
}
