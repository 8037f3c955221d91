package domain

import (
	"strconv"
	"time"

	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"gorm.io/datatypes"
)

type AdjustmentID int64

func (id AdjustmentID) String() string { return strconv.FormatInt(int64(id), 10) }

type LogID int64

// StockAdjustment is the append-only record of one quantity change.
type StockAdjustment struct {
	ID          AdjustmentID                `gorm:"primaryKey;autoIncrement" json:"id"`
	MedicineID  inventorydomain.MedicineID  `gorm:"not null;index" json:"medicine_id"`
	OldQuantity int                         `gorm:"not null" json:"old_quantity"`
	NewQuantity int                         `gorm:"not null" json:"new_quantity"`
	Change      int                         `gorm:"not null" json:"change"`
	SupplierID  *directorydomain.SupplierID `json:"supplier_id,omitempty"`
	Reason      string                      `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedBy   string                      `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt   time.Time                   `gorm:"not null" json:"created_at"`
}

func (StockAdjustment) TableName() string { return "stock_adjustments" }

// ActivityLog is a best-effort, human-readable event. EventID is the
// queue event id and makes redelivered events idempotent.
type ActivityLog struct {
	ID        LogID             `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   int64             `gorm:"not null;uniqueIndex" json:"event_id"`
	User      string            `gorm:"column:user_name;type:varchar(255)" json:"user"`
	Action    string            `gorm:"type:text;not null" json:"action"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

type AdjustmentInput struct {
	MedicineID  inventorydomain.MedicineID
	OldQuantity int
	NewQuantity int
	SupplierID  *directorydomain.SupplierID
	Reason      string
	User        string
}

type AdjustmentFilter struct {
	MedicineID inventorydomain.MedicineID
	BeforeID   int64
	Limit      int
}

type ActivityFilter struct {
	User     string
	Contains string
	BeforeID int64
	Limit    int
}
