package domain

import (
	"context"

	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
)

type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

const (
	ReasonStockIn  = "Stock IN"
	ReasonStockOut = "Stock OUT"
	ReasonEdit     = "Manual edit"
)

type AdjustStockRequest struct {
	MedicineID  inventorydomain.MedicineID  `json:"-"`
	NewQuantity int                         `json:"new_quantity"`
	SupplierID  *directorydomain.SupplierID `json:"supplier_id"`
	Reason      string                      `json:"reason"`
	User        string                      `json:"-"`
}

// MoveStockRequest is a relative movement, as entered on a receiving or
// write-off form.
type MoveStockRequest struct {
	MedicineID inventorydomain.MedicineID  `json:"-"`
	Direction  Direction                   `json:"direction"`
	Quantity   int                         `json:"quantity"`
	SupplierID *directorydomain.SupplierID `json:"supplier_id"`
	Reason     string                      `json:"reason"`
	User       string                      `json:"-"`
}

// EditMedicineRequest carries only the fields being changed.
type EditMedicineRequest struct {
	MedicineID   inventorydomain.MedicineID  `json:"-"`
	Name         *string                     `json:"name"`
	Category     *string                     `json:"category"`
	Quantity     *int                        `json:"quantity"`
	UnitPrice    *decimal.Decimal            `json:"unit_price"`
	MinimumStock *int                        `json:"minimum_stock"`
	SupplierID   *directorydomain.SupplierID `json:"supplier_id"`
	Reason       string                      `json:"reason"`
	User         string                      `json:"-"`
}

type Service interface {
	AdjustStock(ctx context.Context, req AdjustStockRequest) (auditdomain.AdjustmentID, error)
	MoveStock(ctx context.Context, req MoveStockRequest) (auditdomain.AdjustmentID, error)
	EditMedicine(ctx context.Context, req EditMedicineRequest) (bool, error)
}
