package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
)

type ReturnID int64

func (id ReturnID) String() string { return strconv.FormatInt(int64(id), 10) }

// Return is a customer return of units back into stock.
type Return struct {
	ID           ReturnID                    `gorm:"primaryKey;autoIncrement" json:"id"`
	MedicineID   inventorydomain.MedicineID  `gorm:"not null;index" json:"medicine_id"`
	SaleID       *saledomain.SaleID          `gorm:"index" json:"sale_id,omitempty"`
	CustomerID   *directorydomain.CustomerID `json:"customer_id,omitempty"`
	Quantity     int                         `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	RefundAmount decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"refund_amount"`
	Reason       string                      `gorm:"type:varchar(255)" json:"reason"`
	CreatedBy    string                      `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt    time.Time                   `gorm:"not null" json:"created_at"`
}

func (Return) TableName() string { return "sale_returns" }

type AddReturnRequest struct {
	MedicineID inventorydomain.MedicineID  `json:"medicine_id"`
	Quantity   int                         `json:"quantity"`
	SaleID     *saledomain.SaleID          `json:"sale_id"`
	CustomerID *directorydomain.CustomerID `json:"customer_id"`
	Reason     string                      `json:"reason"`
	User       string                      `json:"-"`
}

type AddReturnResult struct {
	ReturnID     ReturnID        `json:"return_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// RefundableLine is the per medicine view of a sale used to build a return.
type RefundableLine struct {
	MedicineID inventorydomain.MedicineID `json:"medicine_id"`
	UnitPrice  decimal.Decimal            `json:"unit_price"`
	Sold       int                        `json:"sold"`
	Returned   int                        `json:"returned"`
	Remaining  int                        `json:"remaining"`
}

type ListFilter struct {
	SaleID     saledomain.SaleID
	MedicineID inventorydomain.MedicineID
	BeforeID   int64
	Limit      int
}
