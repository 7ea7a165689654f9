package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/internal/client/domain"
	"github.com/smallbiznis/billflow/internal/clock"
	"github.com/smallbiznis/billflow/pkg/db"
	"github.com/smallbiznis/billflow/pkg/db/pagination"
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
		log:   p.Log.Named("client.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.ClientRequest) (domain.Client, error) {
	name, email, err := validate(req)
	if err != nil {
		return domain.Client{}, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, s.db, email)
	if err != nil {
		return domain.Client{}, err
	}
	if exists {
		return domain.Client{}, domain.ErrEmailExists
	}

	now := s.clock.Now()
	client := domain.Client{
		ID:        s.genID.Generate(),
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &client); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Client{}, domain.ErrEmailExists
		}
		return domain.Client{}, fmt.Errorf("insert client: %w", err)
	}

	s.log.Info("client created", zap.String("client_id", client.ID.String()))
	return client, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateClientRequest) (domain.Client, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Client{}, err
	}
	name, email, err := validate(req.ClientRequest)
	if err != nil {
		return domain.Client{}, err
	}

	client, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Client{}, err
	}
	if client == nil {
		return domain.Client{}, domain.ErrNotFound
	}

	if email != client.Email {
		exists, err := s.repo.ExistsByEmail(ctx, s.db, email)
		if err != nil {
			return domain.Client{}, err
		}
		if exists {
			return domain.Client{}, domain.ErrEmailExists
		}
	}

	client.Name = name
	client.Email = email
	client.Phone = strings.TrimSpace(req.Phone)
	client.Address = strings.TrimSpace(req.Address)
	client.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, client); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Client{}, domain.ErrEmailExists
		}
		return domain.Client{}, fmt.Errorf("update client: %w", err)
	}
	return *client, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := s.parseID(rawID)
	if err != nil {
		return err
	}

	client, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if client == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		if db.IsForeignKeyErr(err) {
			return domain.ErrClientInUse
		}
		return fmt.Errorf("delete client: %w", err)
	}

	s.log.Info("client deleted", zap.String("client_id", id.String()))
	return nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Client, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Client{}, err
	}

	client, err := s.Resolve(ctx, s.db, id)
	if err != nil {
		return domain.Client{}, err
	}
	return *client, nil
}

func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	if tx == nil {
		tx = s.db
	}
	client, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, req domain.ListClientRequest) (domain.ListClientResponse, error) {
	filter := domain.ListClientFilter{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListClientResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(client *domain.Client) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        client.ID.String(),
			CreatedAt: client.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	clients := make([]domain.Client, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		clients = append(clients, *item)
	}

	resp := domain.ListClientResponse{Clients: clients}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func validate(req domain.ClientRequest) (string, string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", "", domain.ErrInvalidName
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return "", "", domain.ErrInvalidEmail
	}
	return name, email, nil
}
