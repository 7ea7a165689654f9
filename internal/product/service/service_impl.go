package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/clock"
	obsmetrics "github.com/smallbiznis/billflow/internal/observability/metrics"
	"github.com/smallbiznis/billflow/internal/product/domain"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
	"github.com/smallbiznis/billflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	SupplierSvc supplierdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	supplierSvc supplierdomain.Service
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("product.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		supplierSvc: p.SupplierSvc,
		metrics:     p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.ProductRequest) (domain.Product, error) {
	product := domain.Product{ID: s.genID.Generate()}
	if err := s.apply(ctx, &product, req); err != nil {
		return domain.Product{}, err
	}

	now := s.clock.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.repo.Insert(ctx, s.db, &product); err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}

	s.log.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.Bool("is_battery", product.IsBattery),
		zap.Int("stock_quantity", product.StockQuantity),
	)
	return product, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateProductRequest) (domain.Product, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}

	if err := s.apply(ctx, product, req.ProductRequest); err != nil {
		return domain.Product{}, err
	}
	product.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, product); err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}

	if err := s.attachSold(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		if db.IsForeignKeyErr(err) {
			return domain.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Product, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Product{}, err
	}

	product, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Product{}, err
	}
	if product == nil {
		return domain.Product{}, domain.ErrNotFound
	}

	if err := s.attachSold(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Product, error) {
	sortBy := strings.ToLower(strings.TrimSpace(req.SortBy))
	if sortBy != "" {
		field, dir, _ := strings.Cut(sortBy, ":")
		if _, ok := domain.SortableFields[field]; !ok || (dir != "" && dir != "asc" && dir != "desc") {
			return nil, domain.ErrInvalidSortBy
		}
	}
	return s.list(ctx, domain.ListFilter{Category: strings.TrimSpace(req.Category), SortBy: sortBy})
}

func (s *Service) ListBatteries(ctx context.Context) ([]domain.Product, error) {
	return s.list(ctx, domain.ListFilter{BatteryOnly: true})
}

func (s *Service) FindBySerialFragment(ctx context.Context, fragment string) ([]domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(fragment))
	if needle == "" {
		return []domain.Product{}, nil
	}

	all, err := s.list(ctx, domain.ListFilter{})
	if err != nil {
		return nil, err
	}

	matches := make([]domain.Product, 0)
	for _, product := range all {
		for _, serial := range product.SerialNumbers {
			if strings.Contains(strings.ToLower(serial), needle) {
				matches = append(matches, product)
				break
			}
		}
	}
	return matches, nil
}

func (s *Service) AvailableSerials(ctx context.Context, rawID string) ([]string, error) {
	product, err := s.GetByID(ctx, rawID)
	if err != nil {
		return nil, err
	}
	serials := make([]string, len(product.SerialNumbers))
	copy(serials, product.SerialNumbers)
	return serials, nil
}

func (s *Service) AdjustStock(ctx context.Context, tx *gorm.DB, adj domain.StockAdjustment) (*domain.Product, error) {
	product, err := s.repo.FindByIDForUpdate(ctx, tx, adj.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	if !product.IsBattery {
		if len(adj.Consume) > 0 || (adj.Delta <= 0 && len(adj.Restore) > 0) {
			return nil, domain.ErrSerialsNotTracked
		}
		// The product may have stopped tracking serials since the sale.
		if len(adj.Restore) > 0 {
			s.log.Warn("dropping serials restored to untracked product",
				zap.String("product_id", product.ID.String()),
				zap.Strings("serial_numbers", adj.Restore),
			)
		}
		product.StockQuantity += adj.Delta
		if product.StockQuantity < 0 {
			s.log.Warn("product oversold",
				zap.String("product_id", product.ID.String()),
				zap.Int("stock_quantity", product.StockQuantity),
			)
		}
	} else {
		if err := moveSerials(product, adj); err != nil {
			return nil, err
		}
		if adj.Delta > 0 && len(adj.Restore) != adj.Delta {
			s.log.Warn("restored units without matching serials",
				zap.String("product_id", product.ID.String()),
				zap.Int("delta", adj.Delta),
				zap.Int("serials", len(adj.Restore)),
			)
		}
		product.StockQuantity = len(product.SerialNumbers)
	}
	product.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateStock(ctx, tx, product); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	reason := "restore"
	if adj.Delta < 0 {
		reason = "sale"
	}
	s.metrics.RecordStockAdjustment(ctx, reason, int64(adj.Delta))

	return product, nil
}

func (s *Service) SoldCounts(ctx context.Context) (map[snowflake.ID]int64, error) {
	return s.repo.SoldCounts(ctx, s.db)
}

// moveSerials keeps a battery's serial list in step with the unit delta.
// A restore never fails on a count mismatch: whatever serials come back are
// appended.
func moveSerials(product *domain.Product, adj domain.StockAdjustment) error {
	switch {
	case adj.Delta < 0:
		if len(adj.Consume) != -adj.Delta || len(adj.Restore) > 0 {
			return domain.ErrSerialCountMismatch
		}
		remaining := make([]string, 0, len(product.SerialNumbers))
		consume := make(map[string]struct{}, len(adj.Consume))
		for _, serial := range adj.Consume {
			if _, dup := consume[serial]; dup || !product.HasSerial(serial) {
				return fmt.Errorf("%w: %s", domain.ErrSerialNotInStock, serial)
			}
			consume[serial] = struct{}{}
		}
		for _, serial := range product.SerialNumbers {
			if _, ok := consume[serial]; !ok {
				remaining = append(remaining, serial)
			}
		}
		product.SerialNumbers = remaining
	case adj.Delta > 0:
		if len(adj.Consume) > 0 {
			return domain.ErrSerialCountMismatch
		}
		for _, serial := range adj.Restore {
			if !product.HasSerial(serial) {
				product.SerialNumbers = append(product.SerialNumbers, serial)
			}
		}
	default:
		if len(adj.Consume) > 0 || len(adj.Restore) > 0 {
			return domain.ErrSerialCountMismatch
		}
	}
	return nil
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter) ([]domain.Product, error) {
	items, err := s.repo.FindAll(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	sold, err := s.repo.SoldCounts(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("sold counts: %w", err)
	}

	products := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		item.Sold = sold[item.ID]
		products = append(products, *item)
	}
	return products, nil
}

func (s *Service) attachSold(ctx context.Context, product *domain.Product) error {
	sold, err := s.repo.SoldCounts(ctx, s.db)
	if err != nil {
		return fmt.Errorf("sold counts: %w", err)
	}
	product.Sold = sold[product.ID]
	return nil
}

// apply copies every mutable field from req onto product.
func (s *Service) apply(ctx context.Context, product *domain.Product, req domain.ProductRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ErrInvalidName
	}
	if req.Price.IsNegative() {
		return domain.ErrInvalidPrice
	}

	warranty := domain.DefaultWarrantyMonths
	if req.WarrantyDurationMonths != nil {
		warranty = *req.WarrantyDurationMonths
	}
	if warranty < 0 {
		return domain.ErrInvalidWarranty
	}

	supplierID, err := s.resolveSupplier(ctx, req.SupplierID)
	if err != nil {
		return err
	}

	serials, err := normalizeSerials(req.SerialNumbers)
	if err != nil {
		return err
	}

	product.Name = name
	product.Description = strings.TrimSpace(req.Description)
	product.Price = req.Price
	product.Category = strings.TrimSpace(req.Category)
	product.SupplierID = &supplierID
	product.IsBattery = req.IsBattery
	product.WarrantyDurationMonths = warranty
	product.SerialNumbers = datatypes.NewJSONSlice(serials)

	if req.IsBattery {
		product.StockQuantity = len(serials)
	} else {
		if req.StockQuantity < 0 {
			return domain.ErrInvalidStock
		}
		product.StockQuantity = req.StockQuantity
	}
	return nil
}

func (s *Service) resolveSupplier(ctx context.Context, raw string) (snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.ErrSupplierRequired
	}

	supplier, err := s.supplierSvc.GetByID(ctx, raw)
	if err != nil {
		if errors.Is(err, supplierdomain.ErrNotFound) || errors.Is(err, supplierdomain.ErrInvalidID) {
			return 0, domain.ErrSupplierNotFound
		}
		return 0, err
	}
	return supplier.ID, nil
}

func normalizeSerials(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		serial := strings.TrimSpace(raw)
		if serial == "" {
			continue
		}
		if _, dup := seen[serial]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateSerial, serial)
		}
		seen[serial] = struct{}{}
		out = append(out, serial)
	}
	return out, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
