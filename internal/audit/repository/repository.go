package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/apotek/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertAdjustment(ctx context.Context, db *gorm.DB, adj *domain.StockAdjustment) error {
	return db.WithContext(ctx).Create(adj).Error
}

func (r *repo) ListAdjustments(ctx context.Context, db *gorm.DB, filter domain.AdjustmentFilter) ([]*domain.StockAdjustment, error) {
	var items []*domain.StockAdjustment
	stmt := db.WithContext(ctx).Model(&domain.StockAdjustment{})

	if filter.MedicineID != 0 {
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

func (r *repo) InsertActivity(ctx context.Context, db *gorm.DB, entry *domain.ActivityLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) ListActivity(ctx context.Context, db *gorm.DB, filter domain.ActivityFilter) ([]*domain.ActivityLog, error) {
	var items []*domain.ActivityLog
	stmt := db.WithContext(ctx).Model(&domain.ActivityLog{})

	if user := strings.TrimSpace(filter.User); user != "" {
		stmt = stmt.Where("user_name = ?", user)
	}
	if contains := strings.ToLower(strings.TrimSpace(filter.Contains)); contains != "" {
		stmt = stmt.Where("LOWER(action) LIKE ?", "%"+contains+"%")
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
