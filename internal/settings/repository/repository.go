package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/apotek/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB) (*domain.Settings, error) {
	var s domain.Settings
	err := db.WithContext(ctx).Where("id = ?", domain.SingletonID).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, s *domain.Settings) error {
	s.ID = domain.SingletonID
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(s).Error
}
