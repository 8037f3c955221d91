package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
)

type MedicineID int64

func (id MedicineID) String() string { return strconv.FormatInt(int64(id), 10) }

type Status string

const (
	StatusOK         Status = "ok"
	StatusLowStock   Status = "low stock"
	StatusOutOfStock Status = "out of stock"
)

// DefaultMinimumStock applies when a medicine is created without one.
const DefaultMinimumStock = 10

// PriceScale is the number of decimal places every stored price keeps.
const PriceScale = 2

// ValidPrice reports whether p is positive and already at PriceScale.
// A price with finer precision would be rounded by the store and no longer
// match the line totals computed from it.
func ValidPrice(p decimal.Decimal) bool {
	return p.IsPositive() && p.Equal(p.Round(PriceScale))
}

// StatusFor derives the stock status. It is the only way a status is
// produced; the stored column mirrors it for read queries.
func StatusFor(quantity, minimumStock int) Status {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity < minimumStock:
		return StatusLowStock
	default:
		return StatusOK
	}
}

type Medicine struct {
	ID           MedicineID                  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string                      `gorm:"type:varchar(255);not null" json:"name"`
	Category     string                      `gorm:"type:varchar(255)" json:"category"`
	Quantity     int                         `gorm:"not null" json:"quantity"`
	MinimumStock int                         `gorm:"not null" json:"minimum_stock"`
	UnitPrice    decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	SupplierID   *directorydomain.SupplierID `json:"supplier_id,omitempty"`
	Status       Status                      `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt    time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Medicine) TableName() string { return "medicines" }

// StockLevel is the ledger's view of one medicine.
type StockLevel struct {
	Quantity     int
	MinimumStock int
	UnitPrice    decimal.Decimal
	Status       Status
}

type CreateMedicineRequest struct {
	Name         string                      `json:"name"`
	Category     string                      `json:"category"`
	Quantity     int                         `json:"quantity"`
	MinimumStock *int                        `json:"minimum_stock"`
	UnitPrice    decimal.Decimal             `json:"unit_price"`
	SupplierID   *directorydomain.SupplierID `json:"supplier_id"`
	User         string                      `json:"-"`
}

type ListFilter struct {
	Query        string
	LowStockOnly bool
	BeforeID     int64
	Limit        int
}
