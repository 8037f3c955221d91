package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/apotek/internal/directory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) error {
	return db.WithContext(ctx).Create(c).Error
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, id domain.CustomerID) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).Where("id = ?", id).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repo) SearchCustomers(ctx context.Context, db *gorm.DB, filter domain.SearchFilter) ([]*domain.Customer, error) {
	var items []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if q := likePattern(filter.Query); q != "" {
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?", q, q, q)
	}
	stmt = page(stmt, filter)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateCustomer(ctx context.Context, db *gorm.DB, c *domain.Customer) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Customer{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":  c.Name,
			"phone": c.Phone,
			"email": c.Email,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertSupplier(ctx context.Context, db *gorm.DB, s *domain.Supplier) error {
	return db.WithContext(ctx).Create(s).Error
}

func (r *repo) FindSupplier(ctx context.Context, db *gorm.DB, id domain.SupplierID) (*domain.Supplier, error) {
	var s domain.Supplier
	err := db.WithContext(ctx).Where("id = ?", id).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) SearchSuppliers(ctx context.Context, db *gorm.DB, filter domain.SearchFilter) ([]*domain.Supplier, error) {
	var items []*domain.Supplier
	stmt := db.WithContext(ctx).Model(&domain.Supplier{})
	if q := likePattern(filter.Query); q != "" {
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(email) LIKE ?", q, q, q, q)
	}
	stmt = page(stmt, filter)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateSupplier(ctx context.Context, db *gorm.DB, s *domain.Supplier) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Supplier{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"name":    s.Name,
			"company": s.Company,
			"phone":   s.Phone,
			"email":   s.Email,
			"active":  s.Active,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) SetSupplierActive(ctx context.Context, db *gorm.DB, id domain.SupplierID, active bool) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Supplier{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func page(stmt *gorm.DB, filter domain.SearchFilter) *gorm.DB {
	if filter.BeforeID > 0 {
		stmt = stmt.Where("id < ?", filter.BeforeID)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	return stmt
}

func likePattern(query string) string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ""
	}
	return "%" + query + "%"
}
