package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billflow/internal/invoice/domain"
	"github.com/smallbiznis/billflow/internal/invoice/format"
	"github.com/smallbiznis/billflow/internal/providers/pdf"
)

const pdfContentType = "application/pdf"

var hundred = decimal.NewFromInt(100)

// RenderPDF renders an invoice, or a receipt once it is paid.
func (s *Service) RenderPDF(ctx context.Context, rawID string) (domain.Document, error) {
	invoice, err := s.GetByID(ctx, rawID)
	if err != nil {
		return domain.Document{}, err
	}

	data := buildInvoiceData(invoice)
	kind := "invoice"

	var doc domain.Document
	if strings.EqualFold(invoice.Status, domain.StatusPaid) {
		kind = "receipt"
		doc.Body, err = s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
			InvoiceData: data,
			DatePaid:    format.FormatDate(&invoice.UpdatedAt),
		})
	} else {
		doc.Body, err = s.pdf.GenerateInvoice(ctx, data)
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("render %s pdf: %w", kind, err)
	}

	doc.Filename = slug.Make(kind+" "+invoice.InvoiceNumber) + ".pdf"
	doc.ContentType = pdfContentType
	return doc, nil
}

func buildInvoiceData(invoice domain.Invoice) pdf.InvoiceData {
	subtotal := invoice.Subtotal
	data := pdf.InvoiceData{
		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     format.FormatDate(&invoice.Date),
		DueDate:       format.FormatDate(invoice.DueDate),
		Status:        invoice.Status,
		Subtotal:      format.FormatMoney(subtotal),
		Tax:           fmt.Sprintf("%s (%s)", format.FormatMoney(subtotal.Mul(invoice.Tax).Div(hundred)), format.FormatPercent(invoice.Tax)),
		Discount:      fmt.Sprintf("-%s (%s)", format.FormatMoney(subtotal.Mul(invoice.Discount).Div(hundred)), format.FormatPercent(invoice.Discount)),
		Total:         format.FormatMoney(invoice.Total),
		Notes:         invoice.Notes,
		Items:         buildLineItems(invoice.Items),
	}
	if invoice.Client != nil {
		data.BillToName = invoice.Client.Name
		data.BillToAddress = invoice.Client.Address
		data.BillToEmail = invoice.Client.Email
		data.BillToPhone = invoice.Client.Phone
	}
	return data
}

func buildLineItems(items []domain.InvoiceItem) []pdf.InvoiceItem {
	lines := make([]pdf.InvoiceItem, 0, len(items))
	for _, item := range items {
		description := "Product " + item.ProductID.String()
		if item.Product != nil {
			description = item.Product.Name
		}
		lines = append(lines, pdf.InvoiceItem{
			Description: description,
			Serials:     strings.Join(item.SerialNumbers, ", "),
			Qty:         item.Quantity,
			UnitPrice:   format.FormatMoney(item.Price),
			Amount:      format.FormatMoney(item.Amount()),
		})
	}
	return lines
}
