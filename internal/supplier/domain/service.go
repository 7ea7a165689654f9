package domain

import (
	"context"
	"errors"
)

type SupplierRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type UpdateSupplierRequest struct {
	ID string `json:"-"`
	SupplierRequest
}

type ListSupplierRequest struct {
	Name string
}

type Service interface {
	Create(context.Context, SupplierRequest) (Supplier, error)
	Update(context.Context, UpdateSupplierRequest) (Supplier, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Supplier, error)
	List(context.Context, ListSupplierRequest) ([]Supplier, error)
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
	ErrSupplierInUse = errors.New("supplier_in_use")
)
