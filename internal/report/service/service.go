package service

import (
	"context"
	"time"

	"github.com/smallbiznis/apotek/internal/apperror"
	"github.com/smallbiznis/apotek/internal/clock"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/report/domain"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Clock     clock.Clock
	Repo      domain.Repository
	Medicines inventorydomain.Repository
	Sales     saledomain.Service
}

type Service struct {
	db        *gorm.DB
	clock     clock.Clock
	repo      domain.Repository
	medicines inventorydomain.Repository
	sales     saledomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		clock:     p.Clock,
		repo:      p.Repo,
		medicines: p.Medicines,
		sales:     p.Sales,
	}
}

func (s *Service) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	total, err := s.medicines.Count(ctx, s.db)
	if err != nil {
		return domain.Dashboard{}, apperror.FromStore("count medicines", err)
	}
	low, err := s.medicines.CountLowStock(ctx, s.db)
	if err != nil {
		return domain.Dashboard{}, apperror.FromStore("count low stock", err)
	}

	summary, err := s.sales.SummarizeSince(ctx, startOfDay(s.clock.Now()))
	if err != nil {
		return domain.Dashboard{}, err
	}

	return domain.Dashboard{
		TotalMedicines: total,
		LowStockCount:  low,
		TodaySales:     summary.Count,
		TodayRevenue:   summary.Revenue,
	}, nil
}

// SalesReport counts sales from the start of the period up to now. A week
// is today plus the six days before it; a month starts on its first day.
func (s *Service) SalesReport(ctx context.Context, req domain.SalesReportRequest) (domain.SalesReport, error) {
	period := req.Period
	if period == "" {
		period = domain.PeriodToday
	}
	since, err := periodStart(period, s.clock.Now())
	if err != nil {
		return domain.SalesReport{}, err
	}

	summary, err := s.sales.SummarizeSince(ctx, since)
	if err != nil {
		return domain.SalesReport{}, err
	}
	recent, err := s.repo.RecentSales(ctx, s.db, since, domain.RecentSalesLimit)
	if err != nil {
		return domain.SalesReport{}, apperror.FromStore("recent sales", err)
	}

	return domain.SalesReport{
		Period:       period,
		Since:        since,
		TotalSales:   summary.Count,
		TotalRevenue: summary.Revenue,
		Recent:       recent,
	}, nil
}

func (s *Service) StockReport(ctx context.Context) (domain.StockReport, error) {
	total, err := s.medicines.Count(ctx, s.db)
	if err != nil {
		return domain.StockReport{}, apperror.FromStore("count medicines", err)
	}
	value, err := s.repo.StockValue(ctx, s.db)
	if err != nil {
		return domain.StockReport{}, apperror.FromStore("stock value", err)
	}
	low, err := s.medicines.List(ctx, s.db, inventorydomain.ListFilter{LowStockOnly: true})
	if err != nil {
		return domain.StockReport{}, apperror.FromStore("list low stock", err)
	}

	report := domain.StockReport{
		TotalMedicines: total,
		TotalValue:     value,
		LowStockCount:  int64(len(low)),
		LowStock:       make([]domain.LowStockRow, 0, len(low)),
	}
	for _, m := range low {
		report.LowStock = append(report.LowStock, domain.LowStockRow{
			MedicineID:   int64(m.ID),
			Name:         m.Name,
			Quantity:     m.Quantity,
			MinimumStock: m.MinimumStock,
		})
	}
	return report, nil
}

func (s *Service) CustomersReport(ctx context.Context) (domain.CustomersReport, error) {
	total, err := s.repo.CountCustomers(ctx, s.db)
	if err != nil {
		return domain.CustomersReport{}, apperror.FromStore("count customers", err)
	}
	spending, err := s.repo.CustomerSpending(ctx, s.db)
	if err != nil {
		return domain.CustomersReport{}, apperror.FromStore("customer spending", err)
	}
	top, err := s.repo.TopCustomers(ctx, s.db, domain.TopCustomersLimit)
	if err != nil {
		return domain.CustomersReport{}, apperror.FromStore("top customers", err)
	}

	return domain.CustomersReport{
		TotalCustomers: total,
		TotalSpending:  spending,
		TopCustomers:   top,
	}, nil
}

func periodStart(period domain.Period, now time.Time) (time.Time, error) {
	today := startOfDay(now)
	switch period {
	case domain.PeriodToday:
		return today, nil
	case domain.PeriodWeek:
		return today.AddDate(0, 0, -6), nil
	case domain.PeriodMonth:
		return today.AddDate(0, 0, 1-today.Day()), nil
	default:
		return time.Time{}, apperror.InvalidInput("period", "must be today, week or month")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
