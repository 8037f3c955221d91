package domain

import (
	"context"

	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	InsertAdjustment(ctx context.Context, db *gorm.DB, adj *StockAdjustment) error
	ListAdjustments(ctx context.Context, db *gorm.DB, filter AdjustmentFilter) ([]*StockAdjustment, error)
	InsertActivity(ctx context.Context, db *gorm.DB, entry *ActivityLog) error
	ListActivity(ctx context.Context, db *gorm.DB, filter ActivityFilter) ([]*ActivityLog, error)
}

// Recorder writes the audit trail for stock movements.
type Recorder interface {
	// RecordAdjustment must be called with the transaction that changed
	// the quantity, so both commit or roll back together.
	RecordAdjustment(ctx context.Context, tx *gorm.DB, in AdjustmentInput) (AdjustmentID, error)
	// RecordActivity hands the entry to the activity queue. Failures are
	// logged and counted, never returned.
	RecordActivity(ctx context.Context, user, action string, metadata map[string]any)
}

type ListAdjustmentsRequest struct {
	pagination.Pagination
	MedicineID inventorydomain.MedicineID `form:"medicine_id"`
}

type ListAdjustmentsResponse struct {
	pagination.PageInfo
	Adjustments []StockAdjustment `json:"adjustments"`
}

type ListActivityRequest struct {
	pagination.Pagination
	User     string `form:"user"`
	Contains string `form:"q"`
}

type ListActivityResponse struct {
	pagination.PageInfo
	Entries []ActivityLog `json:"entries"`
}

type Service interface {
	ListAdjustments(ctx context.Context, req ListAdjustmentsRequest) (ListAdjustmentsResponse, error)
	ListActivity(ctx context.Context, req ListActivityRequest) (ListActivityResponse, error)
}
