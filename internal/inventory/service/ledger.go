package service

import (
	"context"

	"github.com/smallbiznis/apotek/internal/apperror"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type LedgerParams struct {
	fx.In

	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

type Ledger struct {
	clock   clock.Clock
	repo    domain.Repository
	metrics *metrics.Metrics
}

func NewLedger(p LedgerParams) domain.Ledger {
	return &Ledger{
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (l *Ledger) ReadQuantity(ctx context.Context, db *gorm.DB, id domain.MedicineID) (domain.StockLevel, error) {
	m, err := l.repo.FindByID(ctx, db, id)
	if err != nil {
		return domain.StockLevel{}, apperror.FromStore("read quantity", err)
	}
	if m == nil {
		return domain.StockLevel{}, apperror.NotFound("medicine", int64(id))
	}
	return domain.StockLevel{
		Quantity:     m.Quantity,
		MinimumStock: m.MinimumStock,
		UnitPrice:    m.UnitPrice,
		Status:       domain.StatusFor(m.Quantity, m.MinimumStock),
	}, nil
}

func (l *Ledger) ApplyDelta(ctx context.Context, db *gorm.DB, id domain.MedicineID, delta, expectedOld int) (int, error) {
	if delta == 0 {
		return 0, apperror.InvalidQuantity("delta", "must not be zero")
	}
	if expectedOld < 0 {
		return 0, apperror.InvalidQuantity("expected_quantity", "must not be negative")
	}

	newQuantity := expectedOld + delta
	if newQuantity < 0 {
		return 0, &apperror.InsufficientStockError{
			MedicineID: int64(id),
			Available:  expectedOld,
			Requested:  -delta,
		}
	}

	ok, err := l.repo.CompareAndSetQuantity(ctx, db, id, expectedOld, newQuantity, l.clock.Now())
	if err != nil {
		return 0, apperror.FromStore("apply stock delta", err)
	}
	if ok {
		return newQuantity, nil
	}

	current, err := l.repo.FindByID(ctx, db, id)
	if err != nil {
		return 0, apperror.FromStore("apply stock delta", err)
	}
	if current == nil {
		return 0, apperror.NotFound("medicine", int64(id))
	}
	l.metrics.RecordConflict(ctx, "apply_delta")
	return 0, apperror.Conflict("medicine", int64(id))
}
