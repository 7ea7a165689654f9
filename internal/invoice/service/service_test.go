package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/billflow/internal/client/domain"
	clientrepo "github.com/smallbiznis/billflow/internal/client/repository"
	clientsvc "github.com/smallbiznis/billflow/internal/client/service"
	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/internal/config"
	"github.com/smallbiznis/billflow/internal/invoice/domain"
	"github.com/smallbiznis/billflow/internal/invoice/repository"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	productrepo "github.com/smallbiznis/billflow/internal/product/repository"
	productsvc "github.com/smallbiznis/billflow/internal/product/service"
	"github.com/smallbiznis/billflow/internal/providers/pdf"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
	supplierrepo "github.com/smallbiznis/billflow/internal/supplier/repository"
	suppliersvc "github.com/smallbiznis/billflow/internal/supplier/service"
	"github.com/smallbiznis/billflow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	svc      domain.Service
	products productdomain.Service
	clients  clientdomain.Service
	client   clientdomain.Client
	supplier supplierdomain.Supplier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t,
		&supplierdomain.Supplier{},
		&clientdomain.Client{},
		&productdomain.Product{},
		&domain.Invoice{},
		&domain.InvoiceItem{},
	)
	node := testutil.MustNode(t)
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	suppliers := suppliersvc.New(suppliersvc.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: supplierrepo.Provide(),
	})
	clients := clientsvc.New(clientsvc.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: clientrepo.Provide(),
	})
	products := productsvc.New(productsvc.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Repo: productrepo.Provide(), SupplierSvc: suppliers,
	})

	ctx := context.Background()
	supplier, err := suppliers.Create(ctx, supplierdomain.SupplierRequest{Name: "Volt Traders"})
	require.NoError(t, err)
	client, err := clients.Create(ctx, clientdomain.ClientRequest{Name: "Acme", Email: "billing@acme.test"})
	require.NoError(t, err)

	svc := New(Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		ClientSvc:  clients,
		ProductSvc: products,
		PDF:        pdf.New(),
		Rules:      config.NewStaticRulesConfigHolder(config.DefaultRulesConfig()),
	})
	return fixture{db: db, svc: svc, products: products, clients: clients, client: client, supplier: supplier}
}

func (f fixture) plain(t *testing.T, name string, price int64, stock int) productdomain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), productdomain.ProductRequest{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		SupplierID:    f.supplier.ID.String(),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) battery(t *testing.T, serials ...string) productdomain.Product {
	t.Helper()
	p, err := f.products.Create(context.Background(), productdomain.ProductRequest{
		Name:          "12V Battery",
		Price:         decimal.NewFromInt(120),
		SupplierID:    f.supplier.ID.String(),
		IsBattery:     true,
		SerialNumbers: serials,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) stock(t *testing.T, p productdomain.Product) int {
	t.Helper()
	got, err := f.products.GetByID(context.Background(), p.ID.String())
	require.NoError(t, err)
	return got.StockQuantity
}

func item(p productdomain.Product, qty int, price string, serials ...string) domain.InvoiceItemRequest {
	return domain.InvoiceItemRequest{
		ProductID:     p.ID.String(),
		Quantity:      qty,
		Price:         decimal.RequireFromString(price),
		SerialNumbers: serials,
	}
}

func TestCreateAndDeleteMoveStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.plain(t, "P", 100, 10)

	inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Date:     "2024-03-01",
		Items:    []domain.InvoiceItemRequest{item(p, 2, "90")},
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(180).Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, decimal.NewFromInt(180).Equal(inv.Total), inv.Total.String())
	assert.Equal(t, domain.StatusPending, inv.Status)
	require.Len(t, inv.Items, 1)
	assert.True(t, decimal.NewFromInt(90).Equal(inv.Items[0].Price))
	assert.Equal(t, 8, f.stock(t, p))

	require.NoError(t, f.svc.Delete(ctx, inv.ID.String()))
	assert.Equal(t, 10, f.stock(t, p))

	_, err = f.svc.GetByID(ctx, inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, inv.ID.String()), domain.ErrNotFound)
}

func TestCreateAppliesTaxAndDiscount(t *testing.T) {
	f := newFixture(t)
	a := f.plain(t, "A", 10, 100)
	b := f.plain(t, "B", 10, 100)

	inv, err := f.svc.Create(context.Background(), domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Date:     "2024-03-01",
		Items:    []domain.InvoiceItemRequest{item(a, 3, "19.99"), item(b, 1, "0.03")},
		Tax:      decimal.RequireFromString("7.25"),
		Discount: decimal.RequireFromString("2.5"),
	})
	require.NoError(t, err)

	// 3×19.99 + 0.03 = 60.00; 60 + 4.35 − 1.50
	assert.True(t, decimal.RequireFromString("60").Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, decimal.RequireFromString("62.85").Equal(inv.Total), inv.Total.String())
}

func TestCreateGeneratesInvoiceNumber(t *testing.T) {
	f := newFixture(t)
	p := f.plain(t, "P", 100, 10)

	inv, err := f.svc.Create(context.Background(), domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Items:    []domain.InvoiceItemRequest{item(p, 1, "100")},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"), inv.InvoiceNumber)
	assert.Len(t, inv.InvoiceNumber, len("INV-")+26)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), inv.Date.UTC())
}

func TestCreateRejectsDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.plain(t, "P", 100, 10)

	req := domain.InvoiceRequest{
		InvoiceNumber: "INV-0001",
		ClientID:      f.client.ID.String(),
		Date:          "2024-03-01",
		Items:         []domain.InvoiceItemRequest{item(p, 1, "100")},
	}
	_, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvoiceNumberExists)
	assert.Equal(t, 9, f.stock(t, p))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.plain(t, "P", 100, 10)
	base := func() domain.InvoiceRequest {
		return domain.InvoiceRequest{
			ClientID: f.client.ID.String(),
			Date:     "2024-03-01",
			Items:    []domain.InvoiceItemRequest{item(p, 1, "100")},
		}
	}

	cases := map[string]struct {
		mutate func(*domain.InvoiceRequest)
		want   error
	}{
		"missing client":  {func(r *domain.InvoiceRequest) { r.ClientID = "" }, domain.ErrInvalidClient},
		"bad date":        {func(r *domain.InvoiceRequest) { r.Date = "yesterday" }, domain.ErrInvalidDate},
		"zero quantity":   {func(r *domain.InvoiceRequest) { r.Items[0].Quantity = 0 }, domain.ErrInvalidQuantity},
		"free item":       {func(r *domain.InvoiceRequest) { r.Items[0].Price = decimal.Zero }, domain.ErrInvalidPrice},
		"sub-cent price":  {func(r *domain.InvoiceRequest) { r.Items[0].Price = decimal.RequireFromString("1.001") }, domain.ErrInvalidPrice},
		"negative tax":    {func(r *domain.InvoiceRequest) { r.Tax = decimal.NewFromInt(-1) }, domain.ErrInvalidRate},
		"bad product id":  {func(r *domain.InvoiceRequest) { r.Items[0].ProductID = "abc" }, domain.ErrInvalidProduct},
		"unknown client":  {func(r *domain.InvoiceRequest) { r.ClientID = "12345" }, clientdomain.ErrNotFound},
		"unknown product": {func(r *domain.InvoiceRequest) { r.Items[0].ProductID = "12345" }, productdomain.ErrNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := base()
			tc.mutate(&req)
			_, err := f.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 10, f.stock(t, p))
}

func TestCreateRollsBackStockOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.plain(t, "A", 10, 5)
	batt := f.battery(t, "A1", "A2")

	_, err := f.svc.Create(ctx, domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Date:     "2024-03-01",
		Items:    []domain.InvoiceItemRequest{item(a, 2, "10"), item(batt, 1, "120", "ZZ")},
	})
	assert.ErrorIs(t, err, productdomain.ErrSerialNotInStock)

	assert.Equal(t, 5, f.stock(t, a))
	invoices, err := f.svc.List(ctx, domain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestUpdateNetsLikeDeleteThenCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.plain(t, "A", 10, 10)
	b := f.plain(t, "B", 20, 5)

	inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Date:     "2024-03-01",
		Items:    []domain.InvoiceItemRequest{item(a, 3, "10")},
	})
	require.NoError(t, err)
	assert.Equal(t, 7, f.stock(t, a))

	other, err := f.clients.Create(ctx, clientdomain.ClientRequest{Name: "Globex", Email: "ap@globex.test"})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, domain.UpdateInvoiceRequest{
		ID: inv.ID.String(),
		InvoiceRequest: domain.InvoiceRequest{
			ClientID: other.ID.String(),
			Date:     "2024-03-02",
			Items:    []domain.InvoiceItemRequest{item(a, 1, "10"), item(b, 2, "20")},
			Tax:      decimal.NewFromInt(10),
			Status:   "paid",
			Notes:    "revised",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 9, f.stock(t, a))
	assert.Equal(t, 3, f.stock(t, b))
	assert.Equal(t, inv.InvoiceNumber, updated.InvoiceNumber)
	assert.Equal(t, other.ID, updated.ClientID)
	assert.Equal(t, "paid", updated.Status)
	assert.Equal(t, "revised", updated.Notes)
	require.Len(t, updated.Items, 2)
	assert.True(t, decimal.NewFromInt(50).Equal(updated.Subtotal))
	assert.True(t, decimal.NewFromInt(55).Equal(updated.Total))

	_, err = f.svc.Update(ctx, domain.UpdateInvoiceRequest{
		ID:             "424242",
		InvoiceRequest: domain.InvoiceRequest{ClientID: f.client.ID.String()},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateFailureKeepsOriginal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.plain(t, "A", 10, 10)

	inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Date:     "2024-03-01",
		Items:    []domain.InvoiceItemRequest{item(a, 3, "10")},
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, domain.UpdateInvoiceRequest{
		ID: inv.ID.String(),
		InvoiceRequest: domain.InvoiceRequest{
			ClientID: "777",
			Date:     "2024-03-01",
			Items:    []domain.InvoiceItemRequest{item(a, 1, "10")},
		},
	})
	assert.ErrorIs(t, err, clientdomain.ErrNotFound)

	assert.Equal(t, 7, f.stock(t, a))
	got, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
}

func TestBatterySerialsFollowInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	batt := f.battery(t, "A1", "A2", "A3")

	_, err := f.svc.Create(ctx, domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Items:    []domain.InvoiceItemRequest{item(batt, 2, "120", "A1")},
	})
	assert.ErrorIs(t, err, productdomain.ErrSerialCountMismatch)

	inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
		ClientID: f.client.ID.String(),
		Items:    []domain.InvoiceItemRequest{item(batt, 1, "120", "A1")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, []string(inv.Items[0].SerialNumbers))

	serials, err := f.products.AvailableSerials(ctx, batt.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A3"}, serials)
	assert.Equal(t, 2, f.stock(t, batt))

	require.NoError(t, f.svc.Delete(ctx, inv.ID.String()))
	serials, err = f.products.AvailableSerials(ctx, batt.ID.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2", "A3"}, serials)
	assert.Equal(t, 3, f.stock(t, batt))
}

func TestDeleteAfterBatteryFlagChange(t *testing.T) {
	t.Run("battery becomes plain", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		batt := f.battery(t, "A1", "A2")

		inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
			ClientID: f.client.ID.String(),
			Items:    []domain.InvoiceItemRequest{item(batt, 1, "120", "A1")},
		})
		require.NoError(t, err)

		_, err = f.products.Update(ctx, productdomain.UpdateProductRequest{
			ID: batt.ID.String(),
			ProductRequest: productdomain.ProductRequest{
				Name:          batt.Name,
				Price:         batt.Price,
				SupplierID:    f.supplier.ID.String(),
				StockQuantity: 5,
			},
		})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, inv.ID.String()))
		assert.Equal(t, 6, f.stock(t, batt))
	})

	t.Run("plain becomes battery", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		p := f.plain(t, "Charger", 40, 10)

		inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
			ClientID: f.client.ID.String(),
			Items:    []domain.InvoiceItemRequest{item(p, 2, "40")},
		})
		require.NoError(t, err)

		_, err = f.products.Update(ctx, productdomain.UpdateProductRequest{
			ID: p.ID.String(),
			ProductRequest: productdomain.ProductRequest{
				Name:          p.Name,
				Price:         p.Price,
				SupplierID:    f.supplier.ID.String(),
				IsBattery:     true,
				SerialNumbers: []string{"S1"},
			},
		})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, inv.ID.String()))
		serials, err := f.products.AvailableSerials(ctx, p.ID.String())
		require.NoError(t, err)
		assert.Equal(t, []string{"S1"}, serials)
		assert.Equal(t, 1, f.stock(t, p))
	})
}

func TestStatusAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.plain(t, "P", 10, 100)

	create := func(price string) domain.Invoice {
		inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
			ClientID: f.client.ID.String(),
			Date:     "2024-03-01",
			Items:    []domain.InvoiceItemRequest{item(p, 1, price)},
		})
		require.NoError(t, err)
		return inv
	}
	paid := create("100")
	create("40")
	odd := create("7")
	late := create("3")

	_, err := f.svc.UpdateStatus(ctx, paid.ID.String(), "paid")
	require.NoError(t, err)
	got, err := f.svc.UpdateStatus(ctx, odd.ID.String(), "Paid")
	require.NoError(t, err)
	assert.Equal(t, "Paid", got.Status)
	_, err = f.svc.UpdateStatus(ctx, late.ID.String(), "overdue")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, late.ID.String(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	_, err = f.svc.UpdateStatus(ctx, "31337", "paid")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Count)
	assert.True(t, decimal.NewFromInt(150).Equal(stats.Total), stats.Total.String())
	assert.True(t, decimal.NewFromInt(100).Equal(stats.Paid), stats.Paid.String())
	assert.True(t, decimal.NewFromInt(40).Equal(stats.Pending), stats.Pending.String())
	assert.True(t, decimal.NewFromInt(3).Equal(stats.Overdue), stats.Overdue.String())

	assert.Equal(t, 96, f.stock(t, p))
}

func TestListFiltersAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.plain(t, "P", 10, 100)
	other, err := f.clients.Create(ctx, clientdomain.ClientRequest{Name: "Globex", Email: "ap@globex.test"})
	require.NoError(t, err)

	for i, date := range []string{"2024-01-10", "2024-02-10", "2024-03-10"} {
		clientID := f.client.ID.String()
		if i == 2 {
			clientID = other.ID.String()
		}
		_, err := f.svc.Create(ctx, domain.InvoiceRequest{
			ClientID: clientID,
			Date:     date,
			Items:    []domain.InvoiceItemRequest{item(p, 1, "10")},
		})
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, domain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-03-10", all[0].Date.UTC().Format("2006-01-02"))
	assert.Equal(t, "2024-01-10", all[2].Date.UTC().Format("2006-01-02"))

	mine, err := f.svc.List(ctx, domain.ListInvoiceRequest{ClientID: f.client.ID.String()})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := f.svc.List(ctx, domain.ListInvoiceRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)
	feb, err := f.svc.List(ctx, domain.ListInvoiceRequest{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, feb, 1)

	latest, err := f.svc.List(ctx, domain.ListInvoiceRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "2024-03-10", latest[0].Date.UTC().Format("2006-01-02"))

	_, err = f.svc.List(ctx, domain.ListInvoiceRequest{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)

	_, err = f.svc.List(ctx, domain.ListInvoiceRequest{ClientID: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidClient)
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.plain(t, "P", 10, 100)

	inv, err := f.svc.Create(ctx, domain.InvoiceRequest{
		InvoiceNumber: "INV-2024-7",
		ClientID:      f.client.ID.String(),
		Date:          "2024-03-01",
		Items:         []domain.InvoiceItemRequest{item(p, 2, "10")},
	})
	require.NoError(t, err)

	doc, err := f.svc.RenderPDF(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "invoice-inv-2024-7.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	body, err := io.ReadAll(doc.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	_, err = f.svc.UpdateStatus(ctx, inv.ID.String(), "paid")
	require.NoError(t, err)
	doc, err = f.svc.RenderPDF(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "receipt-inv-2024-7.pdf", doc.Filename)
}
