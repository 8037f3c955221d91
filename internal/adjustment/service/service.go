package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/apotek/internal/adjustment/domain"
	"github.com/smallbiznis/apotek/internal/apperror"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/observability/logger"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"github.com/smallbiznis/apotek/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Medicines inventorydomain.Repository
	Ledger    inventorydomain.Ledger
	Recorder  auditdomain.Recorder
	Directory directorydomain.Service
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	medicines inventorydomain.Repository
	ledger    inventorydomain.Ledger
	recorder  auditdomain.Recorder
	directory directorydomain.Service
	metrics   *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("adjustment.service"),
		clock:     p.Clock,
		medicines: p.Medicines,
		ledger:    p.Ledger,
		recorder:  p.Recorder,
		directory: p.Directory,
		metrics:   p.Metrics,
	}
}

// movement is one applied quantity change, reported after commit.
type movement struct {
	id          auditdomain.AdjustmentID
	medicineID  inventorydomain.MedicineID
	oldQuantity int
	newQuantity int
}

// apply moves the medicine to the quantity target derives from the stored
// one and writes the matching adjustment, all on tx.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, id inventorydomain.MedicineID, target func(old int) (int, error), supplierID *directorydomain.SupplierID, reason, user string) (movement, error) {
	if supplierID != nil {
		if err := s.directory.EnsureSupplier(ctx, tx, *supplierID); err != nil {
			return movement{}, err
		}
	}

	level, err := s.ledger.ReadQuantity(ctx, tx, id)
	if err != nil {
		return movement{}, err
	}
	newQuantity, err := target(level.Quantity)
	if err != nil {
		return movement{}, err
	}
	if newQuantity == level.Quantity {
		return movement{}, apperror.InvalidQuantity("quantity", "unchanged")
	}

	applied, err := s.ledger.ApplyDelta(ctx, tx, id, newQuantity-level.Quantity, level.Quantity)
	if err != nil {
		return movement{}, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = domain.ReasonStockIn
		if applied < level.Quantity {
			reason = domain.ReasonStockOut
		}
	}
	adjID, err := s.recorder.RecordAdjustment(ctx, tx, auditdomain.AdjustmentInput{
		MedicineID:  id,
		OldQuantity: level.Quantity,
		NewQuantity: applied,
		SupplierID:  supplierID,
		Reason:      reason,
		User:        user,
	})
	if err != nil {
		return movement{}, err
	}
	return movement{id: adjID, medicineID: id, oldQuantity: level.Quantity, newQuantity: applied}, nil
}

func (s *Service) report(ctx context.Context, sourceType, user string, m movement) {
	s.metrics.RecordStockAdjustment(ctx, sourceType)
	logger.WithContext(ctx, s.log).Info("stock adjusted",
		zap.Int64("adjustment_id", int64(m.id)),
		zap.Int64("medicine_id", int64(m.medicineID)),
		zap.Int("old_quantity", m.oldQuantity),
		zap.Int("new_quantity", m.newQuantity),
	)
	s.recorder.RecordActivity(ctx, user,
		fmt.Sprintf("Stock adjustment %d for %d (%+d)", m.id, m.medicineID, m.newQuantity-m.oldQuantity),
		map[string]any{
			"adjustment_id": int64(m.id),
			"medicine_id":   int64(m.medicineID),
		},
	)
}

// AdjustStock sets an absolute quantity, as after a stock count.
func (s *Service) AdjustStock(ctx context.Context, req domain.AdjustStockRequest) (_ auditdomain.AdjustmentID, err error) {
	ctx, span := tracing.Start(ctx, "adjustment.AdjustStock")
	defer func() { tracing.End(span, err) }()

	var applied movement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err = s.apply(ctx, tx, req.MedicineID, func(int) (int, error) {
			return req.NewQuantity, nil
		}, req.SupplierID, req.Reason, req.User)
		return err
	})
	if err != nil {
		return 0, apperror.FromStore("adjust stock", err)
	}

	s.report(ctx, "manual", req.User, applied)
	return applied.id, nil
}

func (s *Service) MoveStock(ctx context.Context, req domain.MoveStockRequest) (_ auditdomain.AdjustmentID, err error) {
	ctx, span := tracing.Start(ctx, "adjustment.MoveStock")
	defer func() { tracing.End(span, err) }()

	if req.Quantity <= 0 {
		return 0, apperror.InvalidQuantity("quantity", "must be positive")
	}
	var sign int
	switch req.Direction {
	case domain.DirectionIn:
		sign = 1
	case domain.DirectionOut:
		sign = -1
	default:
		return 0, apperror.InvalidInput("direction", "must be in or out")
	}

	var applied movement
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err = s.apply(ctx, tx, req.MedicineID, func(old int) (int, error) {
			return old + sign*req.Quantity, nil
		}, req.SupplierID, req.Reason, req.User)
		return err
	})
	if err != nil {
		return 0, apperror.FromStore("move stock", err)
	}

	s.report(ctx, "movement", req.User, applied)
	return applied.id, nil
}

// EditMedicine updates catalog fields. A changed quantity goes through the
// ledger and is recorded like any other adjustment.
func (s *Service) EditMedicine(ctx context.Context, req domain.EditMedicineRequest) (_ bool, err error) {
	ctx, span := tracing.Start(ctx, "adjustment.EditMedicine")
	defer func() { tracing.End(span, err) }()

	var (
		changed bool
		moved   *movement
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.medicines.FindByID(ctx, tx, req.MedicineID)
		if err != nil {
			return apperror.FromStore("load medicine", err)
		}
		if current == nil {
			return apperror.NotFound("medicine", int64(req.MedicineID))
		}

		updated, detailsChanged, err := applyEdits(*current, req)
		if err != nil {
			return err
		}
		if updated.SupplierID != nil && detailsChanged {
			if err := s.directory.EnsureSupplier(ctx, tx, *updated.SupplierID); err != nil {
				return err
			}
		}

		quantity := current.Quantity
		if req.Quantity != nil && *req.Quantity != current.Quantity {
			reason := req.Reason
			if strings.TrimSpace(reason) == "" {
				reason = domain.ReasonEdit
			}
			m, err := s.apply(ctx, tx, req.MedicineID, func(int) (int, error) {
				return *req.Quantity, nil
			}, nil, reason, req.User)
			if err != nil {
				return err
			}
			moved = &m
			quantity = m.newQuantity
			changed = true
		}

		if !detailsChanged {
			return nil
		}
		updated.UpdatedAt = s.clock.Now()
		ok, err := s.medicines.UpdateDetails(ctx, tx, &updated, quantity)
		if err != nil {
			return apperror.FromStore("update medicine", err)
		}
		if !ok {
			return apperror.Conflict("medicine", int64(req.MedicineID))
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, apperror.FromStore("edit medicine", err)
	}

	if moved != nil {
		s.report(ctx, "edit", req.User, *moved)
	}
	if changed {
		s.recorder.RecordActivity(ctx, req.User, fmt.Sprintf("Medicine %d updated", req.MedicineID), map[string]any{
			"medicine_id": int64(req.MedicineID),
		})
	}
	return changed, nil
}

// applyEdits returns the medicine with the requested non-quantity fields
// applied and whether any of them differ from the stored values.
func applyEdits(m inventorydomain.Medicine, req domain.EditMedicineRequest) (inventorydomain.Medicine, bool, error) {
	changed := false

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return m, false, apperror.InvalidInput("name", "is required")
		}
		changed = changed || name != m.Name
		m.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		changed = changed || category != m.Category
		m.Category = category
	}
	if req.UnitPrice != nil {
		if !inventorydomain.ValidPrice(*req.UnitPrice) {
			return m, false, apperror.InvalidInput("unit_price", "must be positive with at most 2 decimal places")
		}
		changed = changed || !req.UnitPrice.Equal(m.UnitPrice)
		m.UnitPrice = *req.UnitPrice
	}
	if req.MinimumStock != nil {
		if *req.MinimumStock < 0 {
			return m, false, apperror.InvalidQuantity("minimum_stock", "must not be negative")
		}
		changed = changed || *req.MinimumStock != m.MinimumStock
		m.MinimumStock = *req.MinimumStock
	}
	if req.SupplierID != nil {
		changed = changed || m.SupplierID == nil || *m.SupplierID != *req.SupplierID
		id := *req.SupplierID
		m.SupplierID = &id
	}
	return m, changed, nil
}
