package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceItemRequest struct {
	ProductID     string          `json:"product_id"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	SerialNumbers []string        `json:"serial_numbers"`
}

// InvoiceRequest carries dates as strings; both plain dates and
// RFC 3339 timestamps are accepted.
type InvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number"`
	ClientID      string               `json:"client_id"`
	Date          string               `json:"date"`
	DueDate       string               `json:"due_date"`
	Items         []InvoiceItemRequest `json:"items"`
	Tax           decimal.Decimal      `json:"tax"`
	Discount      decimal.Decimal      `json:"discount"`
	Status        string               `json:"status"`
	Notes         string               `json:"notes"`
}

type UpdateInvoiceRequest struct {
	ID string `json:"-"`
	InvoiceRequest
}

type ListInvoiceRequest struct {
	Status   string
	ClientID string
	From     *time.Time
	To       *time.Time
	// Limit caps the result; zero means no cap.
	Limit int
}

// Document is a rendered invoice file.
type Document struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Service interface {
	Create(context.Context, InvoiceRequest) (Invoice, error)
	Update(context.Context, UpdateInvoiceRequest) (Invoice, error)
	UpdateStatus(ctx context.Context, id string, status string) (Invoice, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Invoice, error)
	// List returns invoices with items, newest date first.
	List(context.Context, ListInvoiceRequest) ([]Invoice, error)
	Stats(context.Context) (Stats, error)
	RenderPDF(ctx context.Context, id string) (Document, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidClient       = errors.New("invalid_client")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidProduct      = errors.New("invalid_product")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidLimit        = errors.New("invalid_limit")
	ErrNotFound            = errors.New("not_found")
	ErrInvoiceNumberExists = errors.New("invoice_number_exists")
)
