package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice InvoiceData) (io.Reader, error) {
	m := newDocument()

	m.AddRow(15,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+invoice.IssueDate, props.Text{Top: 4}),
			text.New("Date due: "+invoice.DueDate, props.Text{Top: 8}),
			text.New("Status: "+invoice.Status, props.Text{Top: 12}),
		),
		col.New(6),
	)

	addBillTo(m, invoice)

	m.AddRow(15,
		text.NewCol(12, invoice.Total+" due "+invoice.DueDate, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	addItems(m, invoice.Items)
	addTotals(m, invoice)
	addNotes(m, invoice.Notes)

	return generate(m)
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func addBillTo(m core.Maroto, invoice InvoiceData) {
	m.AddRow(30,
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(invoice.BillToName, props.Text{Top: 5}),
			text.New(invoice.BillToAddress, props.Text{Top: 9}),
			text.New(invoice.BillToEmail, props.Text{Top: 17}),
			text.New(invoice.BillToPhone, props.Text{Top: 21}),
		),
		col.New(6),
	)
}

func addItems(m core.Maroto, items []InvoiceItem) {
	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range items {
		description := col.New(6).Add(text.New(item.Description, props.Text{Size: 9}))
		if item.Serials != "" {
			description.Add(text.New("S/N: "+item.Serials, props.Text{Size: 7, Top: 5}))
		}
		m.AddRow(12,
			description,
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
}

func addTotals(m core.Maroto, invoice InvoiceData) {
	totalRow := func(label, value string, style fontstyle.Type) {
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, label, props.Text{Size: 9, Style: style}),
			text.NewCol(2, value, props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}
	totalRow("Subtotal", invoice.Subtotal, fontstyle.Normal)
	totalRow("Tax", invoice.Tax, fontstyle.Normal)
	totalRow("Discount", invoice.Discount, fontstyle.Normal)
	totalRow("Total", invoice.Total, fontstyle.Bold)
}

func addNotes(m core.Maroto, notes string) {
	if notes == "" {
		return
	}
	m.AddRow(20,
		col.New(12).Add(
			text.New("Notes", props.Text{Style: fontstyle.Bold, Size: 9}),
			text.New(notes, props.Text{Size: 9, Top: 5}),
		),
	)
}

func generate(m core.Maroto) (io.Reader, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
