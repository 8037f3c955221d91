package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/apotek/internal/apperror"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	"github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"github.com/smallbiznis/apotek/internal/observability/tracing"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const initialStockReason = "Initial stock"

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Repo      domain.Repository
	Ledger    domain.Ledger
	Recorder  auditdomain.Recorder
	Directory directorydomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	repo      domain.Repository
	ledger    domain.Ledger
	recorder  auditdomain.Recorder
	directory directorydomain.Service
	metrics   *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("inventory.service"),
		clock:     p.Clock,
		repo:      p.Repo,
		ledger:    p.Ledger,
		recorder:  p.Recorder,
		directory: p.Directory,
		metrics:   p.Metrics,
	}
}

// CreateMedicine inserts the medicine with zero stock and books any
// opening quantity through the ledger, so the first stock adjustment
// explains where the initial units came from.
func (s *Service) CreateMedicine(ctx context.Context, req domain.CreateMedicineRequest) (_ *domain.Medicine, err error) {
	ctx, span := tracing.Start(ctx, "inventory.CreateMedicine")
	defer func() { tracing.End(span, err) }()

	minimum := domain.DefaultMinimumStock
	if req.MinimumStock != nil {
		minimum = *req.MinimumStock
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		return nil, apperror.InvalidInput("name", "is required")
	case !domain.ValidPrice(req.UnitPrice):
		return nil, apperror.InvalidInput("unit_price", "must be positive with at most 2 decimal places")
	case req.Quantity < 0:
		return nil, apperror.InvalidQuantity("quantity", "must not be negative")
	case minimum < 0:
		return nil, apperror.InvalidQuantity("minimum_stock", "must not be negative")
	}

	now := s.clock.Now()
	medicine := domain.Medicine{
		Name:         name,
		Category:     strings.TrimSpace(req.Category),
		Quantity:     0,
		MinimumStock: minimum,
		UnitPrice:    req.UnitPrice,
		SupplierID:   req.SupplierID,
		Status:       domain.StatusFor(0, minimum),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.SupplierID != nil {
			if err := s.directory.EnsureSupplier(ctx, tx, *req.SupplierID); err != nil {
				return err
			}
		}
		if err := s.repo.Insert(ctx, tx, &medicine); err != nil {
			return apperror.FromStore("insert medicine", err)
		}
		if req.Quantity == 0 {
			return nil
		}

		quantity, err := s.ledger.ApplyDelta(ctx, tx, medicine.ID, req.Quantity, 0)
		if err != nil {
			return err
		}
		if _, err := s.recorder.RecordAdjustment(ctx, tx, auditdomain.AdjustmentInput{
			MedicineID:  medicine.ID,
			OldQuantity: 0,
			NewQuantity: quantity,
			SupplierID:  req.SupplierID,
			Reason:      initialStockReason,
			User:        req.User,
		}); err != nil {
			return err
		}
		medicine.Quantity = quantity
		medicine.Status = domain.StatusFor(quantity, minimum)
		return nil
	})
	if err != nil {
		return nil, apperror.FromStore("create medicine", err)
	}

	if medicine.Quantity > 0 {
		s.metrics.RecordStockAdjustment(ctx, "initial")
	}
	s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Medicine %d added: %s", medicine.ID, medicine.Name), map[string]any{
		"medicine_id": int64(medicine.ID),
		"quantity":    medicine.Quantity,
	})
	return &medicine, nil
}

func (s *Service) Get(ctx context.Context, id domain.MedicineID) (*domain.Medicine, error) {
	m, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, apperror.FromStore("get medicine", err)
	}
	if m == nil {
		return nil, apperror.NotFound("medicine", int64(id))
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, req domain.ListMedicinesRequest) (domain.ListMedicinesResponse, error) {
	beforeID, err := req.BeforeID()
	if err != nil {
		return domain.ListMedicinesResponse{}, apperror.InvalidInput("page_token", err.Error())
	}
	limit := req.Limit()

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Query:        req.Query,
		LowStockOnly: req.LowStockOnly,
		BeforeID:     beforeID,
		Limit:        limit,
	})
	if err != nil {
		return domain.ListMedicinesResponse{}, apperror.FromStore("list medicines", err)
	}

	items, info := pagination.BuildCursorPageInfo(items, limit, func(m *domain.Medicine) int64 { return int64(m.ID) })
	resp := domain.ListMedicinesResponse{PageInfo: info, Medicines: make([]domain.Medicine, 0, len(items))}
	for _, item := range items {
		resp.Medicines = append(resp.Medicines, *item)
	}
	return resp, nil
}

// LowStock returns every medicine below its minimum stock, newest first.
func (s *Service) LowStock(ctx context.Context) ([]domain.Medicine, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListFilter{LowStockOnly: true})
	if err != nil {
		return nil, apperror.FromStore("list low stock", err)
	}
	out := make([]domain.Medicine, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	s.log.Debug("low stock listed", zap.Int("count", len(out)))
	return out, nil
}
