package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SingletonID is the primary key of the only settings row.
const SingletonID int64 = 1

type Settings struct {
	ID           int64           `gorm:"primaryKey;autoIncrement:false" json:"-"`
	PharmacyName string          `gorm:"type:varchar(255);not null" json:"pharmacy_name"`
	Address      string          `gorm:"type:text" json:"address"`
	Phone        string          `gorm:"type:varchar(64)" json:"phone"`
	TaxRate      decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"tax_rate"`
	Currency     string          `gorm:"type:varchar(16);not null" json:"currency"`
	UpdatedBy    string          `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Settings) TableName() string { return "settings" }

type UpdateSettingsRequest struct {
	PharmacyName string          `json:"pharmacy_name"`
	Address      string          `json:"address"`
	Phone        string          `json:"phone"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Currency     string          `json:"currency"`
	User         string          `json:"-"`
}
