package domain

import (
	"context"
	"time"

	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sale *Sale) error
	InsertItems(ctx context.Context, db *gorm.DB, items []SaleItem) error
	FindByID(ctx context.Context, db *gorm.DB, id SaleID) (*Sale, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Sale, error)
	SummarizeSince(ctx context.Context, db *gorm.DB, since time.Time) (Summary, error)
}

type ListSalesRequest struct {
	pagination.Pagination
	CustomerID directorydomain.CustomerID `form:"customer_id"`
}

type ListSalesResponse struct {
	pagination.PageInfo
	Sales []Sale `json:"sales"`
}

type Service interface {
	CreateSale(ctx context.Context, req CreateSaleRequest) (CreateSaleResult, error)
	Get(ctx context.Context, id SaleID) (*Sale, error)
	List(ctx context.Context, req ListSalesRequest) (ListSalesResponse, error)
	SummarizeSince(ctx context.Context, since time.Time) (Summary, error)
}
