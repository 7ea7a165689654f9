package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

// Provider renders billing documents to PDF.
type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
	GenerateReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type InvoiceData struct {
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	Status        string

	BillToName    string
	BillToAddress string
	BillToEmail   string
	BillToPhone   string

	Items []InvoiceItem

	Subtotal string
	Tax      string
	Discount string
	Total    string
	Notes    string
}

type InvoiceItem struct {
	Description string
	Serials     string
	Qty         int
	UnitPrice   string
	Amount      string
}

type ReceiptData struct {
	InvoiceData
	DatePaid string
}
