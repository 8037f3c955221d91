package repository

import (
	"context"

	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/refund/domain"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ret *domain.Return) error {
	return db.WithContext(ctx).Create(ret).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Return, error) {
	var items []*domain.Return
	stmt := db.WithContext(ctx).Model(&domain.Return{})
	if filter.SaleID > 0 {
		stmt = stmt.Where("sale_id = ?", filter.SaleID)
	}
	if filter.MedicineID > 0 {
		stmt = stmt.Where("medicine_id = ?", filter.MedicineID)
	}
	if filter.BeforeID > 0 {
		stmt = stmt.Where("id < ?", filter.BeforeID)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReturnedQuantities(ctx context.Context, db *gorm.DB, saleID saledomain.SaleID) (map[inventorydomain.MedicineID]int, error) {
	var rows []struct {
		MedicineID inventorydomain.MedicineID
		Returned   int
	}
	err := db.WithContext(ctx).Model(&domain.Return{}).
		Select("medicine_id, SUM(quantity) AS returned").
		Where("sale_id = ?", saleID).
		Group("medicine_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[inventorydomain.MedicineID]int, len(rows))
	for _, row := range rows {
		out[row.MedicineID] = row.Returned
	}
	return out, nil
}
