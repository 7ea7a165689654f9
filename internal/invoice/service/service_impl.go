package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/billflow/internal/client/domain"
	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/internal/config"
	"github.com/smallbiznis/billflow/internal/invoice/domain"
	"github.com/smallbiznis/billflow/internal/invoice/format"
	"github.com/smallbiznis/billflow/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/billflow/internal/observability/metrics"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	"github.com/smallbiznis/billflow/internal/providers/pdf"
	"github.com/smallbiznis/billflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ClientSvc  clientdomain.Service
	ProductSvc productdomain.Service
	PDF        pdf.Provider
	Rules      *config.RulesConfigHolder `optional:"true"`
	Metrics    *obsmetrics.Metrics       `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clientSvc  clientdomain.Service
	productSvc productdomain.Service
	pdf        pdf.Provider
	rules      *config.RulesConfigHolder
	metrics    *obsmetrics.Metrics
	entropy    io.Reader
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		clientSvc:  p.ClientSvc,
		productSvc: p.ProductSvc,
		pdf:        p.PDF,
		rules:      p.Rules,
		metrics:    p.Metrics,
		entropy:    ulid.DefaultEntropy(),
	}
}

// draft is a validated request with every id parsed.
type draft struct {
	clientID snowflake.ID
	date     time.Time
	dueDate  *time.Time
	tax      decimal.Decimal
	discount decimal.Decimal
	status   string
	notes    string
	items    []draftItem
}

type draftItem struct {
	productID snowflake.ID
	quantity  int
	price     decimal.Decimal
	serials   []string
}

func (s *Service) Create(ctx context.Context, req domain.InvoiceRequest) (domain.Invoice, error) {
	d, err := s.parseRequest(req)
	if err != nil {
		return domain.Invoice{}, err
	}

	var id snowflake.ID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := s.resolveNumber(ctx, tx, req.InvoiceNumber)
		if err != nil {
			return err
		}

		if _, err := s.clientSvc.Resolve(ctx, tx, d.clientID); err != nil {
			return err
		}

		now := s.clock.Now()
		invoice := &domain.Invoice{
			ID:            s.genID.Generate(),
			InvoiceNumber: number,
			CreatedAt:     now,
		}
		d.applyTo(invoice, now)

		items, err := s.consumeItems(ctx, tx, invoice, d.items)
		if err != nil {
			return err
		}
		invoice.Subtotal, invoice.Total = domain.ComputeTotals(items, invoice.Tax, invoice.Discount)

		if err := s.repo.Insert(ctx, tx, invoice); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrInvoiceNumberExists
			}
			return fmt.Errorf("insert invoice: %w", err)
		}
		if err := s.insertItems(ctx, tx, items); err != nil {
			return err
		}

		id = invoice.ID
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	created, err := s.load(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}

	s.metrics.RecordInvoiceCreated(ctx, created.Status)
	s.invoiceLog(ctx, created).Info("invoice created",
		zap.Int("items", len(created.Items)),
		zap.String("total", created.Total.String()),
	)
	return created, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Invoice{}, err
	}
	d, err := s.parseRequest(req.InvoiceRequest)
	if err != nil {
		return domain.Invoice{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		if err := s.restoreItems(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.repo.DeleteItems(ctx, tx, invoice.ID); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}

		if d.clientID != invoice.ClientID {
			if _, err := s.clientSvc.Resolve(ctx, tx, d.clientID); err != nil {
				return err
			}
		}
		d.applyTo(invoice, s.clock.Now())
		invoice.Client = nil
		invoice.Items = nil

		items, err := s.consumeItems(ctx, tx, invoice, d.items)
		if err != nil {
			return err
		}
		invoice.Subtotal, invoice.Total = domain.ComputeTotals(items, invoice.Tax, invoice.Discount)

		if err := s.repo.Update(ctx, tx, invoice); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return s.insertItems(ctx, tx, items)
	})
	if err != nil {
		return domain.Invoice{}, err
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	s.invoiceLog(ctx, updated).Info("invoice updated",
		zap.Int("items", len(updated.Items)),
		zap.String("total", updated.Total.String()),
	)
	return updated, nil
}

func (s *Service) UpdateStatus(ctx context.Context, rawID string, status string) (domain.Invoice, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if strings.TrimSpace(status) == "" {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	previous := invoice.Status
	if err := s.repo.UpdateStatus(ctx, s.db, id, status, s.clock.Now()); err != nil {
		return domain.Invoice{}, fmt.Errorf("update invoice status: %w", err)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	s.metrics.RecordInvoiceStatusChange(ctx, status)
	s.invoiceLog(ctx, updated).Info("invoice status changed",
		zap.String("from", previous),
		zap.String("to", status),
	)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	var deleted *domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return domain.ErrNotFound
		}

		if err := s.restoreItems(ctx, tx, invoice); err != nil {
			return err
		}
		if err := s.repo.DeleteItems(ctx, tx, invoice.ID); err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		if err := s.repo.Delete(ctx, tx, invoice.ID); err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		deleted = invoice
		return nil
	})
	if err != nil {
		return err
	}

	s.invoiceLog(ctx, *deleted).Info("invoice deleted")
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Invoice, error) {
	id, err := parseID(rawID, domain.ErrInvalidID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return s.load(ctx, id)
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) ([]domain.Invoice, error) {
	if req.Limit < 0 {
		return nil, domain.ErrInvalidLimit
	}
	filter := domain.ListFilter{
		Status: strings.TrimSpace(req.Status),
		From:   req.From,
		To:     req.To,
		Limit:  req.Limit,
	}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := parseID(raw, domain.ErrInvalidClient)
		if err != nil {
			return nil, err
		}
		filter.ClientID = clientID
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item != nil {
			invoices = append(invoices, *item)
		}
	}
	return invoices, nil
}

// Stats buckets totals by exact status; "Paid" is not "paid".
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	invoices, err := s.List(ctx, domain.ListInvoiceRequest{})
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{
		Total:   decimal.Zero,
		Paid:    decimal.Zero,
		Pending: decimal.Zero,
		Overdue: decimal.Zero,
		Count:   int64(len(invoices)),
	}
	for _, invoice := range invoices {
		stats.Total = stats.Total.Add(invoice.Total)
		switch invoice.Status {
		case domain.StatusPaid:
			stats.Paid = stats.Paid.Add(invoice.Total)
		case domain.StatusPending:
			stats.Pending = stats.Pending.Add(invoice.Total)
		case domain.StatusOverdue:
			stats.Overdue = stats.Overdue.Add(invoice.Total)
		}
	}
	return stats, nil
}

func (s *Service) load(ctx context.Context, id snowflake.ID) (domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}
	return *invoice, nil
}

// consumeItems takes each line out of stock and returns the rows to insert.
func (s *Service) consumeItems(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice, lines []draftItem) ([]domain.InvoiceItem, error) {
	items := make([]domain.InvoiceItem, 0, len(lines))
	for _, line := range lines {
		_, err := s.productSvc.AdjustStock(ctx, tx, productdomain.StockAdjustment{
			ProductID: line.productID,
			Delta:     -line.quantity,
			Consume:   line.serials,
		})
		if err != nil {
			return nil, err
		}

		items = append(items, domain.InvoiceItem{
			ID:            s.genID.Generate(),
			InvoiceID:     invoice.ID,
			ProductID:     line.productID,
			Quantity:      line.quantity,
			Price:         line.price,
			SerialNumbers: datatypes.NewJSONSlice(line.serials),
			CreatedAt:     invoice.UpdatedAt,
		})
	}
	return items, nil
}

// restoreItems puts every unit and serial of invoice back into stock.
func (s *Service) restoreItems(ctx context.Context, tx *gorm.DB, invoice *domain.Invoice) error {
	for _, item := range invoice.Items {
		_, err := s.productSvc.AdjustStock(ctx, tx, productdomain.StockAdjustment{
			ProductID: item.ProductID,
			Delta:     item.Quantity,
			Restore:   []string(item.SerialNumbers),
		})
		if err != nil {
			if errors.Is(err, productdomain.ErrNotFound) {
				s.invoiceLog(ctx, *invoice).Warn("product missing while restoring stock",
					zap.String("product_id", item.ProductID.String()),
				)
				continue
			}
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}

func (s *Service) insertItems(ctx context.Context, tx *gorm.DB, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]*domain.InvoiceItem, 0, len(items))
	for i := range items {
		rows = append(rows, &items[i])
	}
	if err := s.repo.InsertItems(ctx, tx, rows); err != nil {
		return fmt.Errorf("insert invoice items: %w", err)
	}
	return nil
}

// resolveNumber returns the caller's number or a generated one, checked
// against existing invoices either way.
func (s *Service) resolveNumber(ctx context.Context, tx *gorm.DB, requested string) (string, error) {
	number := strings.TrimSpace(requested)
	if number == "" {
		generated, err := format.FormatInvoiceNumber(s.rules.Get().InvoiceNumberPrefix, s.clock.Now(), s.entropy)
		if err != nil {
			return "", err
		}
		number = generated
	}

	exists, err := s.repo.ExistsByNumber(ctx, tx, number)
	if err != nil {
		return "", fmt.Errorf("check invoice number: %w", err)
	}
	if exists {
		return "", domain.ErrInvoiceNumberExists
	}
	return number, nil
}

func (s *Service) parseRequest(req domain.InvoiceRequest) (draft, error) {
	clientID, err := parseID(req.ClientID, domain.ErrInvalidClient)
	if err != nil {
		return draft{}, err
	}

	d := draft{
		clientID: clientID,
		tax:      req.Tax,
		discount: req.Discount,
		status:   req.Status,
		notes:    strings.TrimSpace(req.Notes),
	}
	if strings.TrimSpace(d.status) == "" {
		d.status = domain.StatusPending
	}

	if strings.TrimSpace(req.Date) == "" {
		now := s.clock.Now().UTC()
		d.date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else if d.date, err = format.ParseDate(req.Date); err != nil {
		return draft{}, domain.ErrInvalidDate
	}
	if strings.TrimSpace(req.DueDate) != "" {
		due, err := format.ParseDate(req.DueDate)
		if err != nil {
			return draft{}, domain.ErrInvalidDate
		}
		d.dueDate = &due
	}

	if !validRate(d.tax) || !validRate(d.discount) {
		return draft{}, domain.ErrInvalidRate
	}

	d.items = make([]draftItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := parseID(item.ProductID, domain.ErrInvalidProduct)
		if err != nil {
			return draft{}, err
		}
		if item.Quantity <= 0 {
			return draft{}, domain.ErrInvalidQuantity
		}
		if !item.Price.IsPositive() || !item.Price.Equal(item.Price.Round(2)) {
			return draft{}, domain.ErrInvalidPrice
		}
		d.items = append(d.items, draftItem{
			productID: productID,
			quantity:  item.Quantity,
			price:     item.Price,
			serials:   cleanSerials(item.SerialNumbers),
		})
	}
	return d, nil
}

func (d draft) applyTo(invoice *domain.Invoice, now time.Time) {
	invoice.ClientID = d.clientID
	invoice.Date = d.date
	invoice.DueDate = d.dueDate
	invoice.Tax = d.tax
	invoice.Discount = d.discount
	invoice.Status = d.status
	invoice.Notes = d.notes
	invoice.UpdatedAt = now
}

func (s *Service) invoiceLog(ctx context.Context, invoice domain.Invoice) *zap.Logger {
	return logger.WithInvoice(logger.WithContext(ctx, s.log), invoice.ID.String(), invoice.InvoiceNumber)
}

// validRate accepts non-negative percentages with at most two decimals.
func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.Equal(rate.Round(2))
}

func cleanSerials(in []string) []string {
	out := make([]string, 0, len(in))
	for _, raw := range in {
		if serial := strings.TrimSpace(raw); serial != "" {
			out = append(out, serial)
		}
	}
	return out
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
