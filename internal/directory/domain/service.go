package domain

import (
	"context"

	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCustomer(ctx context.Context, db *gorm.DB, c *Customer) error
	FindCustomer(ctx context.Context, db *gorm.DB, id CustomerID) (*Customer, error)
	SearchCustomers(ctx context.Context, db *gorm.DB, filter SearchFilter) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, db *gorm.DB, c *Customer) (bool, error)

	InsertSupplier(ctx context.Context, db *gorm.DB, s *Supplier) error
	FindSupplier(ctx context.Context, db *gorm.DB, id SupplierID) (*Supplier, error)
	SearchSuppliers(ctx context.Context, db *gorm.DB, filter SearchFilter) ([]*Supplier, error)
	UpdateSupplier(ctx context.Context, db *gorm.DB, s *Supplier) (bool, error)
	SetSupplierActive(ctx context.Context, db *gorm.DB, id SupplierID, active bool) (bool, error)
}

type ListRequest struct {
	pagination.Pagination
	Query string `form:"q"`
}

type ListCustomersResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type ListSuppliersResponse struct {
	pagination.PageInfo
	Suppliers []Supplier `json:"suppliers"`
}

type Service interface {
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	GetCustomer(ctx context.Context, id CustomerID) (*Customer, error)
	ListCustomers(ctx context.Context, req ListRequest) (ListCustomersResponse, error)
	// UpdateCustomer returns the stored customer and whether anything changed.
	UpdateCustomer(ctx context.Context, req UpdateCustomerRequest) (*Customer, bool, error)

	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*Supplier, error)
	GetSupplier(ctx context.Context, id SupplierID) (*Supplier, error)
	ListSuppliers(ctx context.Context, req ListRequest) (ListSuppliersResponse, error)
	UpdateSupplier(ctx context.Context, req UpdateSupplierRequest) (*Supplier, bool, error)
	SetSupplierActive(ctx context.Context, id SupplierID, active bool, user string) (*Supplier, error)

	// EnsureCustomer and EnsureSupplier validate references inside the
	// caller's transaction and return a not-found error for unknown ids.
	EnsureCustomer(ctx context.Context, db *gorm.DB, id CustomerID) error
	EnsureSupplier(ctx context.Context, db *gorm.DB, id SupplierID) error
}
