package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/apotek/internal/inventory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// quantityStatusSQL derives status against the minimum stock stored at
// the moment the row is written.
const quantityStatusSQL = "CASE WHEN ? <= 0 THEN ? WHEN ? < minimum_stock THEN ? ELSE ? END"

func (r *repo) Insert(ctx context.Context, db *gorm.DB, m *domain.Medicine) error {
	return db.WithContext(ctx).Create(m).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id domain.MedicineID) (*domain.Medicine, error) {
	var m domain.Medicine
	err := db.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Medicine, error) {
	var items []*domain.Medicine
	stmt := db.WithContext(ctx).Model(&domain.Medicine{})

	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		like := "%" + query + "%"
		if id, err := strconv.ParseInt(query, 10, 64); err == nil {
			stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ? OR id = ?", like, like, id)
		} else {
			stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(category) LIKE ?", like, like)
		}
	}
	if filter.LowStockOnly {
		stmt = stmt.Where("quantity < minimum_stock")
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

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Medicine{}).Count(&count).Error
	return count, err
}

func (r *repo) CountLowStock(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Medicine{}).
		Where("quantity < minimum_stock").
		Count(&count).Error
	return count, err
}

func (r *repo) CompareAndSetQuantity(ctx context.Context, db *gorm.DB, id domain.MedicineID, expectedOld, newQuantity int, at time.Time) (bool, error) {
	status := gorm.Expr(quantityStatusSQL,
		newQuantity, domain.StatusOutOfStock,
		newQuantity, domain.StatusLowStock,
		domain.StatusOK,
	)
	res := db.WithContext(ctx).Model(&domain.Medicine{}).
		Where("id = ? AND quantity = ?", id, expectedOld).
		Updates(map[string]any{
			"quantity":   newQuantity,
			"status":     status,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) UpdateDetails(ctx context.Context, db *gorm.DB, m *domain.Medicine, expectedQuantity int) (bool, error) {
	// The quantity guard makes the stored quantity known here.
	status := domain.StatusFor(expectedQuantity, m.MinimumStock)
	res := db.WithContext(ctx).Model(&domain.Medicine{}).
		Where("id = ? AND quantity = ?", m.ID, expectedQuantity).
		Updates(map[string]any{
			"name":          m.Name,
			"category":      m.Category,
			"unit_price":    m.UnitPrice,
			"minimum_stock": m.MinimumStock,
			"supplier_id":   m.SupplierID,
			"status":        status,
			"updated_at":    m.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
