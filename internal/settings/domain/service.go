package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB) (*Settings, error)
	Upsert(ctx context.Context, db *gorm.DB, s *Settings) error
}

// Reader is what the sale path needs from settings.
type Reader interface {
	// TaxRate returns the current tax rate in percent. It is read on
	// every call and never cached.
	TaxRate(ctx context.Context) (decimal.Decimal, error)
}

type Service interface {
	Reader
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, req UpdateSettingsRequest) (*Settings, error)
}
