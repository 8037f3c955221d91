package domain

import (
	"context"
	"time"

	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, m *Medicine) error
	FindByID(ctx context.Context, db *gorm.DB, id MedicineID) (*Medicine, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Medicine, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	CountLowStock(ctx context.Context, db *gorm.DB) (int64, error)

	// CompareAndSetQuantity writes newQuantity and the status derived from
	// it only if the stored quantity still equals expectedOld.
	CompareAndSetQuantity(ctx context.Context, db *gorm.DB, id MedicineID, expectedOld, newQuantity int, at time.Time) (bool, error)
	// UpdateDetails writes every non-quantity column of m, guarded by the
	// quantity the caller last observed.
	UpdateDetails(ctx context.Context, db *gorm.DB, m *Medicine, expectedQuantity int) (bool, error)
}

// Ledger is the single write path for medicine quantities.
type Ledger interface {
	ReadQuantity(ctx context.Context, db *gorm.DB, id MedicineID) (StockLevel, error)
	// ApplyDelta moves the quantity from expectedOld to expectedOld+delta.
	// It fails with an insufficient stock error before writing when the
	// result would be negative, and with a conflict when another writer
	// changed the quantity since expectedOld was read.
	ApplyDelta(ctx context.Context, db *gorm.DB, id MedicineID, delta, expectedOld int) (int, error)
}

type ListMedicinesRequest struct {
	pagination.Pagination
	Query        string `form:"q"`
	LowStockOnly bool   `form:"low_stock"`
}

type ListMedicinesResponse struct {
	pagination.PageInfo
	Medicines []Medicine `json:"medicines"`
}

type Service interface {
	CreateMedicine(ctx context.Context, req CreateMedicineRequest) (*Medicine, error)
	Get(ctx context.Context, id MedicineID) (*Medicine, error)
	List(ctx context.Context, req ListMedicinesRequest) (ListMedicinesResponse, error)
	LowStock(ctx context.Context) ([]Medicine, error)
}
