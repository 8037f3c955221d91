package service

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/apotek/internal/apperror"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/observability/logger"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"github.com/smallbiznis/apotek/internal/observability/tracing"
	"github.com/smallbiznis/apotek/internal/sale/domain"
	settingsdomain "github.com/smallbiznis/apotek/internal/settings/domain"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      domain.Repository
	Ledger    inventorydomain.Ledger
	Recorder  auditdomain.Recorder
	Settings  settingsdomain.Reader
	Directory directorydomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      domain.Repository
	ledger    inventorydomain.Ledger
	recorder  auditdomain.Recorder
	settings  settingsdomain.Reader
	directory directorydomain.Service
	metrics   *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("sale.service"),
		clock:     p.Clock,
		repo:      p.Repo,
		ledger:    p.Ledger,
		recorder:  p.Recorder,
		settings:  p.Settings,
		directory: p.Directory,
		metrics:   p.Metrics,
	}
}

// CreateSale records the sale, its lines and one stock adjustment per line
// in a single transaction. The quantity read inside the transaction is the
// one the ledger write is checked against; the earlier availability check
// only rejects carts that cannot succeed.
func (s *Service) CreateSale(ctx context.Context, req domain.CreateSaleRequest) (_ domain.CreateSaleResult, err error) {
	ctx, span := tracing.Start(ctx, "sale.CreateSale", attribute.Int("lines", len(req.Items)))
	defer func() { tracing.End(span, err) }()

	if err := validateCart(req.Items); err != nil {
		return domain.CreateSaleResult{}, err
	}

	taxRate, err := s.settings.TaxRate(ctx)
	if err != nil {
		return domain.CreateSaleResult{}, err
	}
	totals := domain.ComputeTotals(req.Items, taxRate)

	if req.CustomerID != nil {
		if err := s.directory.EnsureCustomer(ctx, s.db, *req.CustomerID); err != nil {
			return domain.CreateSaleResult{}, err
		}
	}
	if err := s.checkAvailability(ctx, req.Items); err != nil {
		return domain.CreateSaleResult{}, err
	}

	sale := domain.Sale{
		CustomerID: req.CustomerID,
		Subtotal:   totals.Subtotal,
		TaxRate:    taxRate,
		Tax:        totals.Tax,
		Total:      totals.Total,
		CreatedBy:  req.User,
		CreatedAt:  s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &sale); err != nil {
			return apperror.FromStore("insert sale", err)
		}

		items := make([]domain.SaleItem, 0, len(req.Items))
		for i, item := range req.Items {
			items = append(items, domain.SaleItem{
				SaleID:     sale.ID,
				Position:   i + 1,
				MedicineID: item.MedicineID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				LineTotal:  item.LineTotal(),
			})
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return apperror.FromStore("insert sale items", err)
		}

		reason := fmt.Sprintf("Sale %d", sale.ID)
		for _, item := range items {
			level, err := s.ledger.ReadQuantity(ctx, tx, item.MedicineID)
			if err != nil {
				return err
			}
			newQuantity, err := s.ledger.ApplyDelta(ctx, tx, item.MedicineID, -item.Quantity, level.Quantity)
			if err != nil {
				return err
			}
			if _, err := s.recorder.RecordAdjustment(ctx, tx, auditdomain.AdjustmentInput{
				MedicineID:  item.MedicineID,
				OldQuantity: level.Quantity,
				NewQuantity: newQuantity,
				Reason:      reason,
				User:        req.User,
			}); err != nil {
				return err
			}
		}
		sale.Items = items
		return nil
	})
	if err != nil {
		return domain.CreateSaleResult{}, apperror.FromStore("create sale", err)
	}

	s.metrics.RecordSaleCreated(ctx, len(sale.Items))
	logger.WithContext(ctx, s.log).Info("sale created",
		zap.Int64("sale_id", int64(sale.ID)),
		zap.Int("lines", len(sale.Items)),
		zap.String("total", sale.Total.StringFixed(2)),
	)

	metadata := map[string]any{
		"sale_id": int64(sale.ID),
		"lines":   len(sale.Items),
	}
	if sale.CustomerID != nil {
		metadata["customer_id"] = int64(*sale.CustomerID)
	}
	s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Sale %d created: %s", sale.ID, sale.Total.StringFixed(2)), metadata)

	return domain.CreateSaleResult{
		SaleID:   sale.ID,
		Subtotal: sale.Subtotal,
		Tax:      sale.Tax,
		Total:    sale.Total,
	}, nil
}

func validateCart(items []domain.CartItem) error {
	if len(items) == 0 {
		return apperror.InvalidQuantity("items", "cart is empty")
	}
	for i, item := range items {
		if item.MedicineID <= 0 {
			return apperror.InvalidInput(fmt.Sprintf("items[%d].medicine_id", i), "is required")
		}
		if item.Quantity <= 0 {
			return apperror.InvalidQuantity(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if !inventorydomain.ValidPrice(item.UnitPrice) {
			return apperror.InvalidInput(fmt.Sprintf("items[%d].unit_price", i), "must be positive with at most 2 decimal places")
		}
	}
	return nil
}

// checkAvailability compares the summed request per medicine against the
// stored quantity. It runs outside the transaction.
func (s *Service) checkAvailability(ctx context.Context, items []domain.CartItem) error {
	requested := make(map[inventorydomain.MedicineID]int, len(items))
	order := make([]inventorydomain.MedicineID, 0, len(items))
	for _, item := range items {
		if _, seen := requested[item.MedicineID]; !seen {
			order = append(order, item.MedicineID)
		}
		requested[item.MedicineID] += item.Quantity
	}

	for _, id := range order {
		level, err := s.ledger.ReadQuantity(ctx, s.db, id)
		if err != nil {
			return err
		}
		if level.Quantity < requested[id] {
			return &apperror.InsufficientStockError{
				MedicineID: int64(id),
				Available:  level.Quantity,
				Requested:  requested[id],
			}
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id domain.SaleID) (*domain.Sale, error) {
	sale, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, apperror.FromStore("get sale", err)
	}
	if sale == nil {
		return nil, apperror.NotFound("sale", int64(id))
	}
	return sale, nil
}

func (s *Service) List(ctx context.Context, req domain.ListSalesRequest) (domain.ListSalesResponse, error) {
	beforeID, err := req.BeforeID()
	if err != nil {
		return domain.ListSalesResponse{}, apperror.InvalidInput("page_token", err.Error())
	}
	limit := req.Limit()

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		CustomerID: req.CustomerID,
		BeforeID:   beforeID,
		Limit:      limit,
	})
	if err != nil {
		return domain.ListSalesResponse{}, apperror.FromStore("list sales", err)
	}

	items, info := pagination.BuildCursorPageInfo(items, limit, func(item *domain.Sale) int64 { return int64(item.ID) })
	resp := domain.ListSalesResponse{PageInfo: info, Sales: make([]domain.Sale, 0, len(items))}
	for _, item := range items {
		resp.Sales = append(resp.Sales, *item)
	}
	return resp, nil
}

func (s *Service) SummarizeSince(ctx context.Context, since time.Time) (domain.Summary, error) {
	summary, err := s.repo.SummarizeSince(ctx, s.db, since)
	if err != nil {
		return domain.Summary{}, apperror.FromStore("summarize sales", err)
	}
	return summary, nil
}
