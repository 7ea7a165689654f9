package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/billflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListClientRequest struct {
	PageToken string
	PageSize  int32
	Name      string
	Email     string
}

type ListClientFilter struct {
	Name  string
	Email string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type ClientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateClientRequest struct {
	ID string `json:"-"`
	ClientRequest
}

type Service interface {
	Create(context.Context, ClientRequest) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)

	// Resolve loads a client inside the caller's transaction.
	Resolve(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Client, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrEmailExists  = errors.New("email_exists")
	ErrClientInUse  = errors.New("client_in_use")
)
