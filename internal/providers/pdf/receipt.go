package pdf

import (
	"context"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateReceipt renders the paid variant of an invoice.
func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	m := newDocument()

	m.AddRow(15,
		text.NewCol(12, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+receipt.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+receipt.IssueDate, props.Text{Top: 4}),
			text.New("Date paid: "+receipt.DatePaid, props.Text{Top: 8}),
		),
		col.New(6),
	)

	addBillTo(m, receipt.InvoiceData)

	m.AddRow(15,
		text.NewCol(12, receipt.Total+" paid on "+receipt.DatePaid, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	addItems(m, receipt.Items)
	addTotals(m, receipt.InvoiceData)
	addNotes(m, receipt.Notes)

	return generate(m)
}
