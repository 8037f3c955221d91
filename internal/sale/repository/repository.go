package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/internal/sale/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(sale).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id domain.SaleID) (*domain.Sale, error) {
	var sale domain.Sale
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") }).
		Where("id = ?", id).
		Take(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Sale, error) {
	var items []*domain.Sale
	stmt := db.WithContext(ctx).Model(&domain.Sale{}).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("position asc") })
	if filter.CustomerID > 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
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

func (r *repo) SummarizeSince(ctx context.Context, db *gorm.DB, since time.Time) (domain.Summary, error) {
	var row struct {
		Count   int64
		Revenue decimal.NullDecimal
	}
	err := db.WithContext(ctx).Model(&domain.Sale{}).
		Select("COUNT(*) AS count, SUM(total) AS revenue").
		Where("created_at >= ?", since).
		Scan(&row).Error
	if err != nil {
		return domain.Summary{}, err
	}

	summary := domain.Summary{Count: row.Count, Revenue: decimal.Zero}
	if row.Revenue.Valid {
		summary.Revenue = row.Revenue.Decimal.Round(2)
	}
	return summary, nil
}
