package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/internal/supplier/domain"
	"github.com/smallbiznis/billflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("supplier.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.SupplierRequest) (domain.Supplier, error) {
	if err := validate(req); err != nil {
		return domain.Supplier{}, err
	}

	now := s.clock.Now()
	supplier := domain.Supplier{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &supplier); err != nil {
		return domain.Supplier{}, fmt.Errorf("insert supplier: %w", err)
	}

	s.log.Info("supplier created", zap.String("supplier_id", supplier.ID.String()))
	return supplier, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSupplierRequest) (domain.Supplier, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Supplier{}, err
	}
	if err := validate(req.SupplierRequest); err != nil {
		return domain.Supplier{}, err
	}

	supplier, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	if supplier == nil {
		return domain.Supplier{}, domain.ErrNotFound
	}

	supplier.Name = strings.TrimSpace(req.Name)
	supplier.Email = strings.TrimSpace(req.Email)
	supplier.Phone = strings.TrimSpace(req.Phone)
	supplier.Address = strings.TrimSpace(req.Address)
	supplier.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, supplier); err != nil {
		return domain.Supplier{}, fmt.Errorf("update supplier: %w", err)
	}
	return *supplier, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	supplier, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if supplier == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		if db.IsForeignKeyErr(err) {
			return domain.ErrSupplierInUse
		}
		return fmt.Errorf("delete supplier: %w", err)
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Supplier, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Supplier{}, err
	}

	supplier, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Supplier{}, err
	}
	if supplier == nil {
		return domain.Supplier{}, domain.ErrNotFound
	}
	return *supplier, nil
}

func (s *Service) List(ctx context.Context, req domain.ListSupplierRequest) ([]domain.Supplier, error) {
	items, err := s.repo.List(ctx, s.db, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}

	suppliers := make([]domain.Supplier, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		suppliers = append(suppliers, *item)
	}
	return suppliers, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func validate(req domain.SupplierRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return domain.ErrInvalidName
	}
	if email := strings.TrimSpace(req.Email); email != "" && !strings.Contains(email, "@") {
		return domain.ErrInvalidEmail
	}
	return nil
}
