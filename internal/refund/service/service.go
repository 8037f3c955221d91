package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/internal/apperror"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/observability/logger"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"github.com/smallbiznis/apotek/internal/observability/tracing"
	"github.com/smallbiznis/apotek/internal/refund/domain"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultReason = "Return"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      domain.Repository
	Sales     saledomain.Repository
	Ledger    inventorydomain.Ledger
	Recorder  auditdomain.Recorder
	Directory directorydomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      domain.Repository
	sales     saledomain.Repository
	ledger    inventorydomain.Ledger
	recorder  auditdomain.Recorder
	directory directorydomain.Service
	metrics   *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("refund.service"),
		clock:     p.Clock,
		repo:      p.Repo,
		sales:     p.Sales,
		ledger:    p.Ledger,
		recorder:  p.Recorder,
		directory: p.Directory,
		metrics:   p.Metrics,
	}
}

// saleLine is every line of one medicine on a sale, folded together.
type saleLine struct {
	sold      int
	unitPrice decimal.Decimal
}

func linesByMedicine(sale *saledomain.Sale) (map[inventorydomain.MedicineID]saleLine, []inventorydomain.MedicineID) {
	lines := make(map[inventorydomain.MedicineID]saleLine, len(sale.Items))
	order := make([]inventorydomain.MedicineID, 0, len(sale.Items))
	for _, item := range sale.Items {
		line, seen := lines[item.MedicineID]
		if !seen {
			// the first line's captured price is the refund price
			line.unitPrice = item.UnitPrice
			order = append(order, item.MedicineID)
		}
		line.sold += item.Quantity
		lines[item.MedicineID] = line
	}
	return lines, order
}

// AddReturn puts returned units back into stock. When a sale is referenced
// the refund uses the price captured on the sale and the cumulative
// returned quantity may never exceed what was sold.
func (s *Service) AddReturn(ctx context.Context, req domain.AddReturnRequest) (_ domain.AddReturnResult, err error) {
	ctx, span := tracing.Start(ctx, "refund.AddReturn")
	defer func() { tracing.End(span, err) }()

	if req.Quantity <= 0 {
		return domain.AddReturnResult{}, apperror.InvalidQuantity("quantity", "must be positive")
	}
	if req.MedicineID <= 0 {
		return domain.AddReturnResult{}, apperror.InvalidInput("medicine_id", "is required")
	}

	ret := domain.Return{
		MedicineID: req.MedicineID,
		SaleID:     req.SaleID,
		CustomerID: req.CustomerID,
		Quantity:   req.Quantity,
		Reason:     strings.TrimSpace(req.Reason),
		CreatedBy:  req.User,
		CreatedAt:  s.clock.Now(),
	}
	if ret.Reason == "" {
		ret.Reason = defaultReason
		if req.SaleID != nil {
			ret.Reason = fmt.Sprintf("Return for sale %d", *req.SaleID)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, err := s.ledger.ReadQuantity(ctx, tx, req.MedicineID)
		if err != nil {
			return err
		}
		ret.UnitPrice = level.UnitPrice

		if req.SaleID != nil {
			unitPrice, customerID, err := s.checkAgainstSale(ctx, tx, *req.SaleID, req.MedicineID, req.Quantity)
			if err != nil {
				return err
			}
			ret.UnitPrice = unitPrice
			if ret.CustomerID == nil {
				ret.CustomerID = customerID
			}
		}
		if req.CustomerID != nil {
			if err := s.directory.EnsureCustomer(ctx, tx, *req.CustomerID); err != nil {
				return err
			}
		}

		ret.RefundAmount = ret.UnitPrice.Mul(decimal.NewFromInt(int64(ret.Quantity))).Round(2)
		if err := s.repo.Insert(ctx, tx, &ret); err != nil {
			return apperror.FromStore("insert return", err)
		}

		newQuantity, err := s.ledger.ApplyDelta(ctx, tx, req.MedicineID, req.Quantity, level.Quantity)
		if err != nil {
			return err
		}
		_, err = s.recorder.RecordAdjustment(ctx, tx, auditdomain.AdjustmentInput{
			MedicineID:  req.MedicineID,
			OldQuantity: level.Quantity,
			NewQuantity: newQuantity,
			Reason:      ret.Reason,
			User:        req.User,
		})
		return err
	})
	if err != nil {
		return domain.AddReturnResult{}, apperror.FromStore("add return", err)
	}

	s.metrics.RecordReturnCreated(ctx)
	logger.WithContext(ctx, s.log).Info("return processed",
		zap.Int64("return_id", int64(ret.ID)),
		zap.Int64("medicine_id", int64(ret.MedicineID)),
		zap.Int("quantity", ret.Quantity),
	)

	metadata := map[string]any{
		"return_id":   int64(ret.ID),
		"medicine_id": int64(ret.MedicineID),
		"quantity":    ret.Quantity,
	}
	if ret.SaleID != nil {
		metadata["sale_id"] = int64(*ret.SaleID)
	}
	s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Return %d processed: %s", ret.ID, ret.RefundAmount.StringFixed(2)), metadata)

	return domain.AddReturnResult{ReturnID: ret.ID, RefundAmount: ret.RefundAmount}, nil
}

func (s *Service) checkAgainstSale(ctx context.Context, tx *gorm.DB, saleID saledomain.SaleID, medicineID inventorydomain.MedicineID, quantity int) (decimal.Decimal, *directorydomain.CustomerID, error) {
	sale, err := s.sales.FindByID(ctx, tx, saleID)
	if err != nil {
		return decimal.Zero, nil, apperror.FromStore("load sale", err)
	}
	if sale == nil {
		return decimal.Zero, nil, apperror.NotFound("sale", int64(saleID))
	}

	lines, _ := linesByMedicine(sale)
	line, ok := lines[medicineID]
	if !ok {
		return decimal.Zero, nil, apperror.NotFound("sale line", int64(medicineID))
	}

	returned, err := s.repo.ReturnedQuantities(ctx, tx, saleID)
	if err != nil {
		return decimal.Zero, nil, apperror.FromStore("sum returns", err)
	}
	if quantity > line.sold-returned[medicineID] {
		return decimal.Zero, nil, &apperror.ReturnExceedsSaleError{
			SaleID:     int64(saleID),
			MedicineID: int64(medicineID),
			Sold:       line.sold,
			Returned:   returned[medicineID],
			Requested:  quantity,
		}
	}
	return line.unitPrice, sale.CustomerID, nil
}

// RefundableLines lists each medicine on the sale with how many units can
// still be returned.
func (s *Service) RefundableLines(ctx context.Context, saleID saledomain.SaleID) ([]domain.RefundableLine, error) {
	sale, err := s.sales.FindByID(ctx, s.db, saleID)
	if err != nil {
		return nil, apperror.FromStore("load sale", err)
	}
	if sale == nil {
		return nil, apperror.NotFound("sale", int64(saleID))
	}

	returned, err := s.repo.ReturnedQuantities(ctx, s.db, saleID)
	if err != nil {
		return nil, apperror.FromStore("sum returns", err)
	}

	lines, order := linesByMedicine(sale)
	out := make([]domain.RefundableLine, 0, len(order))
	for _, id := range order {
		line := lines[id]
		out = append(out, domain.RefundableLine{
			MedicineID: id,
			UnitPrice:  line.unitPrice,
			Sold:       line.sold,
			Returned:   returned[id],
			Remaining:  max(line.sold-returned[id], 0),
		})
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, req domain.ListReturnsRequest) (domain.ListReturnsResponse, error) {
	beforeID, err := req.BeforeID()
	if err != nil {
		return domain.ListReturnsResponse{}, apperror.InvalidInput("page_token", err.Error())
	}
	limit := req.Limit()

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		SaleID:     req.SaleID,
		MedicineID: req.MedicineID,
		BeforeID:   beforeID,
		Limit:      limit,
	})
	if err != nil {
		return domain.ListReturnsResponse{}, apperror.FromStore("list returns", err)
	}

	items, info := pagination.BuildCursorPageInfo(items, limit, func(item *domain.Return) int64 { return int64(item.ID) })
	resp := domain.ListReturnsResponse{PageInfo: info, Returns: make([]domain.Return, 0, len(items))}
	for _, item := range items {
		resp.Returns = append(resp.Returns, *item)
	}
	return resp, nil
}
