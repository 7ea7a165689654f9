package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/billflow/internal/client/domain"
	clientrepo "github.com/smallbiznis/billflow/internal/client/repository"
	clientsvc "github.com/smallbiznis/billflow/internal/client/service"
	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/internal/config"
	invoicedomain "github.com/smallbiznis/billflow/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/billflow/internal/invoice/repository"
	invoicesvc "github.com/smallbiznis/billflow/internal/invoice/service"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	productrepo "github.com/smallbiznis/billflow/internal/product/repository"
	productsvc "github.com/smallbiznis/billflow/internal/product/service"
	"github.com/smallbiznis/billflow/internal/providers/pdf"
	"github.com/smallbiznis/billflow/internal/report/domain"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
	supplierrepo "github.com/smallbiznis/billflow/internal/supplier/repository"
	suppliersvc "github.com/smallbiznis/billflow/internal/supplier/service"
	"github.com/smallbiznis/billflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	clk      *clock.FakeClock
	svc      domain.Service
	invoices invoicedomain.Service
	products productdomain.Service
	client   clientdomain.Client
	supplier supplierdomain.Supplier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t,
		&supplierdomain.Supplier{},
		&clientdomain.Client{},
		&productdomain.Product{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	)
	node := testutil.MustNode(t)
	clk := clock.NewFakeClock(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	rules := config.NewStaticRulesConfigHolder(config.DefaultRulesConfig())

	suppliers := suppliersvc.New(suppliersvc.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: supplierrepo.Provide(),
	})
	clients := clientsvc.New(clientsvc.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: clientrepo.Provide(),
	})
	products := productsvc.New(productsvc.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: productrepo.Provide(), SupplierSvc: suppliers,
	})
	invoices := invoicesvc.New(invoicesvc.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: invoicerepo.Provide(),
		ClientSvc: clients, ProductSvc: products, PDF: pdf.New(), Rules: rules,
	})

	ctx := context.Background()
	supplier, err := suppliers.Create(ctx, supplierdomain.SupplierRequest{Name: "Volt Traders"})
	require.NoError(t, err)
	client, err := clients.Create(ctx, clientdomain.ClientRequest{
		Name: "Acme", Email: "billing@acme.test", Phone: "+1 555 0100",
	})
	require.NoError(t, err)

	svc := NewService(Params{
		Log:         log,
		Clock:       clk,
		InvoiceSvc:  invoices,
		ProductSvc:  products,
		SupplierSvc: suppliers,
		Rules:       rules,
	})
	return fixture{clk: clk, svc: svc, invoices: invoices, products: products, client: client, supplier: supplier}
}

func (f fixture) product(t *testing.T, name string, price int64, stock int) productdomain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), productdomain.ProductRequest{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		Category:      "General",
		SupplierID:    f.supplier.ID.String(),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) sell(t *testing.T, date string, p productdomain.Product, qty int, price int64, serials ...string) invoicedomain.Invoice {
	t.Helper()
	inv, err := f.invoices.Create(context.Background(), invoicedomain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Date:     date,
		Items: []invoicedomain.InvoiceItemRequest{{
			ProductID:     p.ID.String(),
			Quantity:      qty,
			Price:         decimal.NewFromInt(price),
			SerialNumbers: serials,
		}},
	})
	require.NoError(t, err)
	return inv
}

func march() domain.RangeRequest {
	return domain.RangeRequest{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestSalesSummaryEmpty(t *testing.T) {
	f := newFixture(t)

	summary, err := f.svc.SalesSummary(context.Background(), march())
	require.NoError(t, err)
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.True(t, summary.AverageOrderValue.IsZero())
	assert.Zero(t, summary.TotalInvoices)
	assert.Zero(t, summary.TotalProductsSold)
}

func TestSalesSummaryInRange(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, "Cable", 10, 100)

	f.sell(t, "2024-03-01", p, 1, 10)
	f.sell(t, "2024-03-31", p, 1, 10)
	f.sell(t, "2024-03-15", p, 1, 5)
	f.sell(t, "2024-02-29", p, 4, 10)

	summary, err := f.svc.SalesSummary(context.Background(), march())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalInvoices)
	assert.Equal(t, 3, summary.TotalProductsSold)
	assert.True(t, decimal.NewFromInt(25).Equal(summary.TotalRevenue), summary.TotalRevenue.String())
	assert.Equal(t, "8.33", summary.AverageOrderValue.StringFixed(2))
}

func TestReportsRejectInvertedRange(t *testing.T) {
	f := newFixture(t)
	r := march()
	r.Start, r.End = r.End, r.Start

	_, err := f.svc.SalesSummary(context.Background(), r)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	_, err = f.svc.FinancialSummary(context.Background(), domain.RangeRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestProductPerformanceSeparatesLifetimeAndRange(t *testing.T) {
	f := newFixture(t)
	cable := f.product(t, "Cable", 10, 100)
	fuse := f.product(t, "Fuse", 2, 50)

	f.sell(t, "2024-02-10", cable, 5, 10)
	f.sell(t, "2024-03-05", cable, 2, 9)

	rows, err := f.svc.ProductPerformance(context.Background(), march())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byName := map[string]domain.ProductPerformance{}
	for _, row := range rows {
		byName[row.ProductName] = row
	}
	assert.Equal(t, int64(7), byName["Cable"].QuantitySold)
	assert.Equal(t, int64(2), byName["Cable"].QuantitySoldInRange)
	assert.True(t, decimal.NewFromInt(18).Equal(byName["Cable"].Revenue))
	assert.Equal(t, 93, byName["Cable"].RemainingStock)

	assert.Equal(t, fuse.ID, byName["Fuse"].ProductID)
	assert.Zero(t, byName["Fuse"].QuantitySold)
	assert.True(t, byName["Fuse"].Revenue.IsZero())
}

func TestFinancialSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, "Cable", 10, 100)

	old := f.sell(t, "2024-03-01", p, 1, 40)
	f.sell(t, "2024-03-10", p, 1, 20)
	paid := f.sell(t, "2024-03-02", p, 1, 100)
	shouty := f.sell(t, "2024-03-03", p, 1, 7)
	f.sell(t, "2024-01-01", p, 1, 1000)

	_, err := f.invoices.UpdateStatus(ctx, paid.ID.String(), "paid")
	require.NoError(t, err)
	_, err = f.invoices.UpdateStatus(ctx, shouty.ID.String(), "PAID")
	require.NoError(t, err)
	_, err = f.invoices.UpdateStatus(ctx, old.ID.String(), "Pending")
	require.NoError(t, err)

	summary, err := f.svc.FinancialSummary(ctx, march())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(167).Equal(summary.TotalRevenue), summary.TotalRevenue.String())
	assert.True(t, decimal.NewFromInt(107).Equal(summary.PaidAmount), summary.PaidAmount.String())
	assert.True(t, decimal.NewFromInt(60).Equal(summary.PendingAmount), summary.PendingAmount.String())
	// issued today is not yet overdue
	assert.True(t, decimal.NewFromInt(40).Equal(summary.OverdueAmount), summary.OverdueAmount.String())
}

func TestInventoryStatusLabels(t *testing.T) {
	f := newFixture(t)
	f.product(t, "Empty", 10, 0)
	f.product(t, "Few", 10, 3)
	f.product(t, "Edge", 10, 5)
	f.product(t, "Plenty", 10, 10)
	oversold := f.product(t, "Oversold", 10, 1)
	f.sell(t, "2024-03-01", oversold, 2, 10)

	rows, err := f.svc.InventoryStatus(context.Background())
	require.NoError(t, err)

	byName := map[string]domain.InventoryStatus{}
	for _, row := range rows {
		byName[row.ProductName] = row
	}
	assert.Equal(t, domain.StockOut, byName["Empty"].Status)
	assert.Equal(t, domain.StockLow, byName["Few"].Status)
	assert.Equal(t, domain.StockLow, byName["Edge"].Status)
	assert.Equal(t, domain.StockIn, byName["Plenty"].Status)
	assert.Equal(t, domain.StockOut, byName["Oversold"].Status)
	assert.Equal(t, -1, byName["Oversold"].CurrentStock)
	assert.Equal(t, int64(2), byName["Oversold"].Sold)

	assert.True(t, decimal.NewFromInt(100).Equal(byName["Plenty"].TotalValue))
	assert.Equal(t, "Volt Traders", byName["Plenty"].SupplierName)
}

func TestBatterySerialTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	warranty := 1
	batt, err := f.products.Create(ctx, productdomain.ProductRequest{
		Name:                   "12V Battery",
		Price:                  decimal.NewFromInt(120),
		Category:               "Batteries",
		SupplierID:             f.supplier.ID.String(),
		IsBattery:              true,
		WarrantyDurationMonths: &warranty,
		SerialNumbers:          []string{"A1", "A2", "A3"},
	})
	require.NoError(t, err)

	before, err := f.svc.BatterySerialTrace(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, domain.SerialInStock, before[0].Status)
	assert.Equal(t, domain.WarrantyNA, before[0].WarrantyStatus)
	assert.Equal(t, "A1", before[0].ActualSerialNumber)
	assert.Equal(t, "a1", before[0].SearchSerialNumber)
	assert.Equal(t, "Volt Traders", before[0].SupplierName)

	inv := f.sell(t, "2024-01-31", batt, 1, 110, "A1")

	after, err := f.svc.BatterySerialTrace(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, after, 1)
	sold := after[0]
	assert.Equal(t, domain.SerialSold, sold.Status)
	assert.Equal(t, inv.InvoiceNumber, sold.InvoiceNumber)
	assert.Equal(t, "Acme", sold.CustomerName)
	assert.Equal(t, "+1 555 0100", sold.CustomerPhone)
	require.NotNil(t, sold.SalePrice)
	assert.True(t, decimal.NewFromInt(110).Equal(*sold.SalePrice))
	require.NotNil(t, sold.WarrantyExpiry)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), *sold.WarrantyExpiry)
	assert.Equal(t, domain.WarrantyExpired, sold.WarrantyStatus)

	all, err := f.svc.BatterySerialTrace(ctx, "a")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.SerialInStock, all[0].Status)
	assert.Equal(t, domain.SerialInStock, all[1].Status)
	assert.Equal(t, domain.SerialSold, all[2].Status)

	_, err = f.svc.BatterySerialTrace(ctx, "zz")
	assert.ErrorIs(t, err, domain.ErrNoSerialMatch)
	_, err = f.svc.BatterySerialTrace(ctx, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidSerial)
}

func TestWarrantyActiveUntilExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batt, err := f.products.Create(ctx, productdomain.ProductRequest{
		Name:          "Deep Cycle",
		Price:         decimal.NewFromInt(300),
		SupplierID:    f.supplier.ID.String(),
		IsBattery:     true,
		SerialNumbers: []string{"DC-9"},
	})
	require.NoError(t, err)
	f.sell(t, "2024-03-01", batt, 1, 300, "DC-9")

	got, err := f.svc.BatterySerialTrace(ctx, "dc-9")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].WarrantyMonths)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *got[0].WarrantyExpiry)
	assert.Equal(t, domain.WarrantyActive, got[0].WarrantyStatus)

	f.clk.Set(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	got, err = f.svc.BatterySerialTrace(ctx, "dc-9")
	require.NoError(t, err)
	assert.Equal(t, domain.WarrantyExpired, got[0].WarrantyStatus)
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, day(2024, 2, 29), AddMonths(day(2024, 1, 31), 1))
	assert.Equal(t, day(2023, 2, 28), AddMonths(day(2023, 1, 31), 1))
	assert.Equal(t, day(2025, 1, 15), AddMonths(day(2024, 1, 15), 12))
	assert.Equal(t, day(2024, 4, 30), AddMonths(day(2024, 3, 31), 1))
	assert.Equal(t, day(2024, 3, 31), AddMonths(day(2024, 3, 31), 0))
}
