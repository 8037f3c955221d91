package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
)

type SaleID int64

func (id SaleID) String() string { return strconv.FormatInt(int64(id), 10) }

var hundred = decimal.NewFromInt(100)

type Sale struct {
	ID         SaleID                      `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID *directorydomain.CustomerID `gorm:"index" json:"customer_id,omitempty"`
	Subtotal   decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	TaxRate    decimal.Decimal             `gorm:"type:numeric(5,2);not null" json:"tax_rate"`
	Tax        decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"tax"`
	Total      decimal.Decimal             `gorm:"type:numeric(12,2);not null" json:"total"`
	CreatedBy  string                      `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt  time.Time                   `gorm:"not null;index" json:"created_at"`
	Items      []SaleItem                  `gorm:"foreignKey:SaleID" json:"items,omitempty"`
}

func (Sale) TableName() string { return "sales" }

// SaleItem is one cart line with the price captured at sale time.
type SaleItem struct {
	ID         int64                      `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID     SaleID                     `gorm:"not null;index" json:"sale_id"`
	Position   int                        `gorm:"not null" json:"position"`
	MedicineID inventorydomain.MedicineID `gorm:"not null;index" json:"medicine_id"`
	Quantity   int                        `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal            `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	LineTotal  decimal.Decimal            `gorm:"type:numeric(12,2);not null" json:"line_total"`
}

func (SaleItem) TableName() string { return "sale_items" }

type CartItem struct {
	MedicineID inventorydomain.MedicineID `json:"medicine_id"`
	Quantity   int                        `json:"quantity"`
	UnitPrice  decimal.Decimal            `json:"unit_price"`
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the exact line totals and rounds only the derived
// money figures to cents.
func ComputeTotals(items []CartItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

type CreateSaleRequest struct {
	CustomerID *directorydomain.CustomerID `json:"customer_id"`
	Items      []CartItem                  `json:"items"`
	User       string                      `json:"-"`
}

type CreateSaleResult struct {
	SaleID   SaleID          `json:"sale_id"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type ListFilter struct {
	CustomerID directorydomain.CustomerID
	BeforeID   int64
	Limit      int
}

// Summary is the raw sales figure for a time window.
type Summary struct {
	Count   int64
	Revenue decimal.Decimal
}
