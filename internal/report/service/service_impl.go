package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/internal/config"
	invoicedomain "github.com/smallbiznis/billflow/internal/invoice/domain"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	"github.com/smallbiznis/billflow/internal/report/domain"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Clock       clock.Clock
	InvoiceSvc  invoicedomain.Service
	ProductSvc  productdomain.Service
	SupplierSvc supplierdomain.Service
	Rules       *config.RulesConfigHolder `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	clock       clock.Clock
	invoiceSvc  invoicedomain.Service
	productSvc  productdomain.Service
	supplierSvc supplierdomain.Service
	rules       *config.RulesConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("report.service"),
		clock:       p.Clock,
		invoiceSvc:  p.InvoiceSvc,
		productSvc:  p.ProductSvc,
		supplierSvc: p.SupplierSvc,
		rules:       p.Rules,
	}
}

func (s *Service) SalesSummary(ctx context.Context, req domain.RangeRequest) (domain.SalesSummary, error) {
	invoices, err := s.invoicesInRange(ctx, req)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	summary := domain.SalesSummary{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TotalInvoices:     len(invoices),
	}
	for _, invoice := range invoices {
		summary.TotalRevenue = summary.TotalRevenue.Add(invoice.Total)
		for _, item := range invoice.Items {
			summary.TotalProductsSold += item.Quantity
		}
	}
	if summary.TotalInvoices > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.
			DivRound(decimal.NewFromInt(int64(summary.TotalInvoices)), 2)
	}
	return summary, nil
}

func (s *Service) ProductPerformance(ctx context.Context, req domain.RangeRequest) ([]domain.ProductPerformance, error) {
	invoices, err := s.invoicesInRange(ctx, req)
	if err != nil {
		return nil, err
	}
	products, err := s.productSvc.List(ctx, productdomain.ListRequest{})
	if err != nil {
		return nil, err
	}

	type tally struct {
		units   int64
		revenue decimal.Decimal
	}
	inRange := make(map[snowflake.ID]*tally)
	for _, invoice := range invoices {
		for _, item := range invoice.Items {
			t, ok := inRange[item.ProductID]
			if !ok {
				t = &tally{revenue: decimal.Zero}
				inRange[item.ProductID] = t
			}
			t.units += int64(item.Quantity)
			t.revenue = t.revenue.Add(item.Amount())
		}
	}

	out := make([]domain.ProductPerformance, 0, len(products))
	for _, product := range products {
		row := domain.ProductPerformance{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Category:       product.Category,
			QuantitySold:   product.Sold,
			Revenue:        decimal.Zero,
			RemainingStock: product.StockQuantity,
		}
		if t, ok := inRange[product.ID]; ok {
			row.QuantitySoldInRange = t.units
			row.Revenue = t.revenue
		}
		out = append(out, row)
	}
	return out, nil
}

// FinancialSummary matches statuses case-insensitively, unlike invoice stats.
// Overdue is pending with an issue date before today.
func (s *Service) FinancialSummary(ctx context.Context, req domain.RangeRequest) (domain.FinancialSummary, error) {
	invoices, err := s.invoicesInRange(ctx, req)
	if err != nil {
		return domain.FinancialSummary{}, err
	}

	today := startOfDay(s.clock.Now())
	summary := domain.FinancialSummary{
		TotalRevenue:  decimal.Zero,
		PaidAmount:    decimal.Zero,
		PendingAmount: decimal.Zero,
		OverdueAmount: decimal.Zero,
	}
	for _, invoice := range invoices {
		summary.TotalRevenue = summary.TotalRevenue.Add(invoice.Total)
		switch {
		case strings.EqualFold(invoice.Status, invoicedomain.StatusPaid):
			summary.PaidAmount = summary.PaidAmount.Add(invoice.Total)
		case strings.EqualFold(invoice.Status, invoicedomain.StatusPending):
			summary.PendingAmount = summary.PendingAmount.Add(invoice.Total)
			if startOfDay(invoice.Date).Before(today) {
				summary.OverdueAmount = summary.OverdueAmount.Add(invoice.Total)
			}
		}
	}
	return summary, nil
}

func (s *Service) InventoryStatus(ctx context.Context) ([]domain.InventoryStatus, error) {
	products, err := s.productSvc.List(ctx, productdomain.ListRequest{})
	if err != nil {
		return nil, err
	}
	suppliers, err := s.supplierNames(ctx)
	if err != nil {
		return nil, err
	}

	threshold := s.rules.Get().LowStockThreshold
	out := make([]domain.InventoryStatus, 0, len(products))
	for _, product := range products {
		out = append(out, domain.InventoryStatus{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Category:     product.Category,
			CurrentStock: product.StockQuantity,
			Sold:         product.Sold,
			UnitPrice:    product.Price,
			TotalValue:   product.Price.Mul(decimal.NewFromInt(int64(product.StockQuantity))),
			SupplierName: supplierName(suppliers, product.SupplierID),
			Status:       stockLabel(product.StockQuantity, threshold),
		})
	}
	return out, nil
}

// BatterySerialTrace lists shelf matches first, then sold matches oldest
// sale first. A serial appears at most once.
func (s *Service) BatterySerialTrace(ctx context.Context, fragment string) ([]domain.SerialTrace, error) {
	search := strings.TrimSpace(fragment)
	if search == "" {
		return nil, domain.ErrInvalidSerial
	}
	needle := strings.ToLower(search)

	products, err := s.productSvc.List(ctx, productdomain.ListRequest{})
	if err != nil {
		return nil, err
	}
	suppliers, err := s.supplierNames(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	results := make([]domain.SerialTrace, 0)

	for _, product := range products {
		for _, serial := range product.SerialNumbers {
			if !strings.Contains(strings.ToLower(serial), needle) {
				continue
			}
			if _, dup := seen[serial]; dup {
				continue
			}
			seen[serial] = struct{}{}

			trace := productTrace(search, serial, product, suppliers)
			trace.Status = domain.SerialInStock
			trace.WarrantyStatus = domain.WarrantyNA
			results = append(results, trace)
		}
	}

	today := startOfDay(s.clock.Now())
	for i := len(invoices) - 1; i >= 0; i-- {
		invoice := invoices[i]
		for _, item := range invoice.Items {
			for _, serial := range item.SerialNumbers {
				if !strings.Contains(strings.ToLower(serial), needle) {
					continue
				}
				if _, dup := seen[serial]; dup {
					continue
				}
				seen[serial] = struct{}{}
				results = append(results, soldTrace(search, serial, invoice, item, suppliers, today))
			}
		}
	}

	if len(results) == 0 {
		return nil, domain.ErrNoSerialMatch
	}
	return results, nil
}

func (s *Service) invoicesInRange(ctx context.Context, req domain.RangeRequest) ([]invoicedomain.Invoice, error) {
	if req.Start.IsZero() || req.End.IsZero() || req.End.Before(req.Start) {
		return nil, domain.ErrInvalidRange
	}
	start, end := req.Start.UTC(), req.End.UTC()
	return s.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{From: &start, To: &end})
}

func (s *Service) supplierNames(ctx context.Context) (map[snowflake.ID]string, error) {
	suppliers, err := s.supplierSvc.List(ctx, supplierdomain.ListSupplierRequest{})
	if err != nil {
		return nil, err
	}
	names := make(map[snowflake.ID]string, len(suppliers))
	for _, supplier := range suppliers {
		names[supplier.ID] = supplier.Name
	}
	return names, nil
}

func productTrace(search, serial string, product productdomain.Product, suppliers map[snowflake.ID]string) domain.SerialTrace {
	return domain.SerialTrace{
		SearchSerialNumber: search,
		ActualSerialNumber: serial,
		ProductID:          product.ID,
		ProductName:        product.Name,
		Category:           product.Category,
		Description:        product.Description,
		Price:              product.Price,
		SupplierName:       supplierName(suppliers, product.SupplierID),
		WarrantyMonths:     product.WarrantyDurationMonths,
	}
}

func soldTrace(search, serial string, invoice invoicedomain.Invoice, item invoicedomain.InvoiceItem, suppliers map[snowflake.ID]string, today time.Time) domain.SerialTrace {
	var trace domain.SerialTrace
	if item.Product != nil {
		trace = productTrace(search, serial, *item.Product, suppliers)
	} else {
		trace = domain.SerialTrace{
			SearchSerialNumber: search,
			ActualSerialNumber: serial,
			ProductID:          item.ProductID,
			SupplierName:       domain.NoSupplier,
		}
	}
	trace.Status = domain.SerialSold
	trace.InvoiceNumber = invoice.InvoiceNumber

	saleDate := startOfDay(invoice.Date)
	salePrice := item.Price
	trace.SaleDate = &saleDate
	trace.SalePrice = &salePrice

	if invoice.Client != nil {
		clientID := invoice.Client.ID
		trace.CustomerID = &clientID
		trace.CustomerName = invoice.Client.Name
		trace.CustomerPhone = invoice.Client.Phone
		trace.CustomerEmail = invoice.Client.Email
	}

	expiry := AddMonths(saleDate, trace.WarrantyMonths)
	trace.WarrantyExpiry = &expiry
	trace.WarrantyStatus = domain.WarrantyExpired
	if expiry.After(today) {
		trace.WarrantyStatus = domain.WarrantyActive
	}
	return trace
}

func supplierName(names map[snowflake.ID]string, id *snowflake.ID) string {
	if id == nil {
		return domain.NoSupplier
	}
	if name, ok := names[*id]; ok && name != "" {
		return name
	}
	return domain.NoSupplier
}

// stockLabel: oversold (negative) stock has nothing on the shelf, so it is
// Out of Stock rather than Low Stock.
func stockLabel(stock, threshold int) string {
	switch {
	case stock <= 0:
		return domain.StockOut
	case stock <= threshold:
		return domain.StockLow
	default:
		return domain.StockIn
	}
}

// AddMonths moves t by months, clamping to the last day of the target
// month: Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
