package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Dashboard holds raw figures only. Formatting is left to the caller.
type Dashboard struct {
	TotalMedicines int64           `json:"total_medicines"`
	LowStockCount  int64           `json:"low_stock_count"`
	TodaySales     int64           `json:"today_sales"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
}

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

const (
	RecentSalesLimit  = 10
	TopCustomersLimit = 5
)

type SalesReportRequest struct {
	Period Period `form:"period"`
}

type SaleRow struct {
	SaleID       int64           `json:"sale_id"`
	CustomerID   *int64          `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SalesReport struct {
	Period       Period          `json:"period"`
	Since        time.Time       `json:"since"`
	TotalSales   int64           `json:"total_sales"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Recent       []SaleRow       `json:"recent"`
}

type LowStockRow struct {
	MedicineID   int64  `json:"medicine_id"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	MinimumStock int    `json:"minimum_stock"`
}

type StockReport struct {
	TotalMedicines int64           `json:"total_medicines"`
	TotalValue     decimal.Decimal `json:"total_value"`
	LowStockCount  int64           `json:"low_stock_count"`
	LowStock       []LowStockRow   `json:"low_stock"`
}

type CustomerSpend struct {
	CustomerID int64           `json:"customer_id"`
	Name       string          `json:"name"`
	Sales      int64           `json:"sales"`
	Spent      decimal.Decimal `json:"spent"`
}

type CustomersReport struct {
	TotalCustomers int64           `json:"total_customers"`
	TotalSpending  decimal.Decimal `json:"total_spending"`
	TopCustomers   []CustomerSpend `json:"top_customers"`
}

// Repository reads across the sales, medicines and customers tables.
type Repository interface {
	RecentSales(ctx context.Context, db *gorm.DB, since time.Time, limit int) ([]SaleRow, error)
	StockValue(ctx context.Context, db *gorm.DB) (decimal.Decimal, error)
	CountCustomers(ctx context.Context, db *gorm.DB) (int64, error)
	CustomerSpending(ctx context.Context, db *gorm.DB) (decimal.Decimal, error)
	TopCustomers(ctx context.Context, db *gorm.DB, limit int) ([]CustomerSpend, error)
}

type Service interface {
	Dashboard(ctx context.Context) (Dashboard, error)
	SalesReport(ctx context.Context, req SalesReportRequest) (SalesReport, error)
	StockReport(ctx context.Context) (StockReport, error)
	CustomersReport(ctx context.Context) (CustomersReport, error)
}
