package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RangeRequest bounds a report by invoice date, inclusive on both ends.
type RangeRequest struct {
	Start time.Time
	End   time.Time
}

type SalesSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalInvoices     int             `json:"total_invoices"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TotalProductsSold int             `json:"total_products_sold"`
}

// ProductPerformance carries both the lifetime sold count and the count
// inside the requested range; revenue is always range-bound.
type ProductPerformance struct {
	ProductID           snowflake.ID    `json:"product_id"`
	ProductName         string          `json:"product_name"`
	Category            string          `json:"category"`
	QuantitySold        int64           `json:"quantity_sold"`
	QuantitySoldInRange int64           `json:"quantity_sold_in_range"`
	Revenue             decimal.Decimal `json:"revenue"`
	RemainingStock      int             `json:"remaining_stock"`
}

type FinancialSummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
}

const (
	StockIn  = "In Stock"
	StockLow = "Low Stock"
	StockOut = "Out of Stock"

	SerialInStock = "In Stock"
	SerialSold    = "Sold"

	WarrantyActive  = "Active"
	WarrantyExpired = "Expired"
	WarrantyNA      = "N/A"

	NoSupplier = "N/A"
)

type InventoryStatus struct {
	ProductID    snowflake.ID    `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Category     string          `json:"category"`
	CurrentStock int             `json:"current_stock"`
	Sold         int64           `json:"sold"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	SupplierName string          `json:"supplier_name"`
	Status       string          `json:"status"`
}

// SerialTrace locates one battery serial either on the shelf or on a sale.
type SerialTrace struct {
	SearchSerialNumber string `json:"search_serial_number"`
	ActualSerialNumber string `json:"actual_serial_number"`
	Status             string `json:"status"`

	ProductID    snowflake.ID    `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	SupplierName string          `json:"supplier_name"`

	CustomerID    *snowflake.ID `json:"customer_id,omitempty"`
	CustomerName  string        `json:"customer_name,omitempty"`
	CustomerPhone string        `json:"customer_phone,omitempty"`
	CustomerEmail string        `json:"customer_email,omitempty"`

	InvoiceNumber string           `json:"invoice_number,omitempty"`
	SaleDate      *time.Time       `json:"sale_date,omitempty"`
	SalePrice     *decimal.Decimal `json:"sale_price,omitempty"`

	WarrantyMonths int        `json:"warranty_months"`
	WarrantyExpiry *time.Time `json:"warranty_expiry,omitempty"`
	WarrantyStatus string     `json:"warranty_status"`
}

type Service interface {
	SalesSummary(ctx context.Context, req RangeRequest) (SalesSummary, error)
	ProductPerformance(ctx context.Context, req RangeRequest) ([]ProductPerformance, error)
	FinancialSummary(ctx context.Context, req RangeRequest) (FinancialSummary, error)
	InventoryStatus(ctx context.Context) ([]InventoryStatus, error)
	BatterySerialTrace(ctx context.Context, fragment string) ([]SerialTrace, error)
}

var (
	ErrInvalidRange  = errors.New("invalid_range")
	ErrInvalidSerial = errors.New("invalid_serial")
	ErrNoSerialMatch = errors.New("no_serial_match")
)
