package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/billflow/internal/client/domain"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultSupplierName = "Default Supplier"
	defaultClientName   = "Walk-in Customer"
	defaultClientEmail  = "walk-in@billflow.local"
)

type demoProduct struct {
	name     string
	category string
	price    string
	stock    int
	serials  []string
}

var demoProducts = []demoProduct{
	{name: "Solar Inverter 3kW", category: "Inverters", price: "450.00", stock: 10},
	{name: "MC4 Connector Pair", category: "Accessories", price: "4.50", stock: 200},
	{name: "Lithium Battery 12V 100Ah", category: "Batteries", price: "320.00",
		serials: []string{"LB12-0001", "LB12-0002", "LB12-0003"}},
}

// EnsureDemoData seeds a supplier, a walk-in client and a small catalog.
// Rows are matched by name or email, so repeated runs are no-ops.
func EnsureDemoData(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		supplier, err := ensureSupplierTx(ctx, tx, node)
		if err != nil {
			return err
		}
		if err := ensureClientTx(ctx, tx, node); err != nil {
			return err
		}
		for _, p := range demoProducts {
			if err := ensureProductTx(ctx, tx, node, supplier.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureSupplierTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (supplierdomain.Supplier, error) {
	var supplier supplierdomain.Supplier
	err := tx.WithContext(ctx).Where("name = ?", defaultSupplierName).First(&supplier).Error
	if err == nil {
		return supplier, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return supplier, err
	}
	now := time.Now().UTC()
	supplier = supplierdomain.Supplier{
		ID:        node.Generate(),
		Name:      defaultSupplierName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return supplier, tx.WithContext(ctx).Create(&supplier).Error
}

func ensureClientTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	var client clientdomain.Client
	err := tx.WithContext(ctx).Where("email = ?", defaultClientEmail).First(&client).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	now := time.Now().UTC()
	client = clientdomain.Client{
		ID:        node.Generate(),
		Name:      defaultClientName,
		Email:     defaultClientEmail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&client).Error
}

func ensureProductTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, supplierID snowflake.ID, p demoProduct) error {
	var product productdomain.Product
	err := tx.WithContext(ctx).Where("name = ?", p.name).First(&product).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	isBattery := len(p.serials) > 0
	stock := p.stock
	if isBattery {
		stock = len(p.serials)
	}
	now := time.Now().UTC()
	product = productdomain.Product{
		ID:                     node.Generate(),
		Name:                   p.name,
		Category:               p.category,
		Price:                  decimal.RequireFromString(p.price),
		SupplierID:             &supplierID,
		StockQuantity:          stock,
		IsBattery:              isBattery,
		WarrantyDurationMonths: productdomain.DefaultWarrantyMonths,
		SerialNumbers:          datatypes.JSONSlice[string](p.serials),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	return tx.WithContext(ctx).Create(&product).Error
}
