package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/internal/report/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) RecentSales(ctx context.Context, db *gorm.DB, since time.Time, limit int) ([]domain.SaleRow, error) {
	var rows []domain.SaleRow
	err := db.WithContext(ctx).Table("sales AS s").
		Select("s.id AS sale_id, s.customer_id AS customer_id, COALESCE(c.name, '') AS customer_name, s.total AS total, s.created_at AS created_at").
		Joins("LEFT JOIN customers c ON c.id = s.customer_id").
		Where("s.created_at >= ?", since).
		Order("s.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Total = rows[i].Total.Round(2)
	}
	return rows, nil
}

func (r *repo) StockValue(ctx context.Context, db *gorm.DB) (decimal.Decimal, error) {
	return sum(ctx, db.Table("medicines"), "SUM(quantity * unit_price)")
}

func (r *repo) CountCustomers(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Table("customers").Count(&count).Error
	return count, err
}

func (r *repo) CustomerSpending(ctx context.Context, db *gorm.DB) (decimal.Decimal, error) {
	return sum(ctx, db.Table("sales").Where("customer_id IS NOT NULL"), "SUM(total)")
}

func (r *repo) TopCustomers(ctx context.Context, db *gorm.DB, limit int) ([]domain.CustomerSpend, error) {
	var rows []struct {
		CustomerID int64
		Name       string
		Sales      int64
		Spent      decimal.NullDecimal
	}
	err := db.WithContext(ctx).Table("sales AS s").
		Select("c.id AS customer_id, c.name AS name, COUNT(s.id) AS sales, SUM(s.total) AS spent").
		Joins("JOIN customers c ON c.id = s.customer_id").
		Group("c.id, c.name").
		Order("spent DESC, c.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.CustomerSpend, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CustomerSpend{
			CustomerID: row.CustomerID,
			Name:       row.Name,
			Sales:      row.Sales,
			Spent:      row.Spent.Decimal.Round(2),
		})
	}
	return out, nil
}

// sum scans one aggregate; an empty table yields zero.
func sum(ctx context.Context, stmt *gorm.DB, expr string) (decimal.Decimal, error) {
	var row struct {
		Value decimal.NullDecimal
	}
	if err := stmt.WithContext(ctx).Select(expr + " AS value").Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	if !row.Value.Valid {
		return decimal.Zero, nil
	}
	return row.Value.Decimal.Round(2), nil
}
