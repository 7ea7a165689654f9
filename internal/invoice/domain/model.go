// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/billflow/internal/client/domain"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	"gorm.io/datatypes"
)

// Well-known statuses. Any other string is accepted and stored verbatim.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

// Invoice is a bill issued to one client.
type Invoice struct {
	ID            snowflake.ID         `gorm:"primaryKey;autoIncrement:false" json:"id"`
	InvoiceNumber string               `gorm:"not null;uniqueIndex:ux_invoices_number" json:"invoice_number"`
	ClientID      snowflake.ID         `gorm:"not null;index" json:"client_id"`
	Client        *clientdomain.Client `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	Date          time.Time            `gorm:"not null;index" json:"date"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	Items         []InvoiceItem        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Tax           decimal.Decimal      `gorm:"type:decimal(9,2);not null;default:0" json:"tax"`
	Discount      decimal.Decimal      `gorm:"type:decimal(9,2);not null;default:0" json:"discount"`
	Subtotal      decimal.Decimal      `gorm:"type:decimal(19,6);not null;default:0" json:"subtotal"`
	Total         decimal.Decimal      `gorm:"type:decimal(19,6);not null;default:0" json:"total"`
	Status        string               `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	Notes         string               `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time            `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"not null" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is one product line, priced at the moment of sale.
type InvoiceItem struct {
	ID            snowflake.ID                `gorm:"primaryKey;autoIncrement:false" json:"id"`
	InvoiceID     snowflake.ID                `gorm:"not null;index" json:"invoice_id"`
	ProductID     snowflake.ID                `gorm:"not null;index" json:"product_id"`
	Product       *productdomain.Product      `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity      int                         `gorm:"not null" json:"quantity"`
	Price         decimal.Decimal             `gorm:"type:decimal(12,2);not null" json:"price"`
	SerialNumbers datatypes.JSONSlice[string] `json:"serial_numbers,omitempty"`
	CreatedAt     time.Time                   `gorm:"not null" json:"created_at"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

// Amount is price × quantity.
func (i InvoiceItem) Amount() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotals derives subtotal and total from items, tax and discount.
// Tax and discount are percentages of the subtotal.
func ComputeTotals(items []InvoiceItem, tax, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount())
	}
	hundred := decimal.NewFromInt(100)
	taxAmount := subtotal.Mul(tax).Div(hundred)
	discountAmount := subtotal.Mul(discount).Div(hundred)
	return subtotal, subtotal.Add(taxAmount).Sub(discountAmount)
}

// Stats sums invoice totals by exact status.
type Stats struct {
	Total   decimal.Decimal `json:"total"`
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
	Overdue decimal.Decimal `json:"overdue"`
	Count   int64           `json:"count"`
}
