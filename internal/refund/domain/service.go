package domain

import (
	"context"

	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, r *Return) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Return, error)
	// ReturnedQuantities sums returned units per medicine for one sale.
	ReturnedQuantities(ctx context.Context, db *gorm.DB, saleID saledomain.SaleID) (map[inventorydomain.MedicineID]int, error)
}

type ListReturnsRequest struct {
	pagination.Pagination
	SaleID     saledomain.SaleID          `form:"sale_id"`
	MedicineID inventorydomain.MedicineID `form:"medicine_id"`
}

type ListReturnsResponse struct {
	pagination.PageInfo
	Returns []Return `json:"returns"`
}

type Service interface {
	AddReturn(ctx context.Context, req AddReturnRequest) (AddReturnResult, error)
	List(ctx context.Context, req ListReturnsRequest) (ListReturnsResponse, error)
	RefundableLines(ctx context.Context, saleID saledomain.SaleID) ([]RefundableLine, error)
}
