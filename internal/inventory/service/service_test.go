package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/internal/apperror"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	auditrepository "github.com/smallbiznis/apotek/internal/audit/repository"
	auditservice "github.com/smallbiznis/apotek/internal/audit/service"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/dbtest"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	directoryrepository "github.com/smallbiznis/apotek/internal/directory/repository"
	directoryservice "github.com/smallbiznis/apotek/internal/directory/service"
	"github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/inventory/repository"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	db        *gorm.DB
	clock     *clock.FakeClock
	publisher *dbtest.Publisher
	repo      domain.Repository
	ledger    domain.Ledger
	audit     auditdomain.Repository
	directory directorydomain.Service
	svc       domain.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	conn := dbtest.Open(t)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	publisher := &dbtest.Publisher{}
	auditRepo := auditrepository.Provide()
	recorder := auditservice.NewRecorder(auditservice.RecorderParams{
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Repo:      auditRepo,
		Publisher: publisher,
	})
	directory := directoryservice.NewService(directoryservice.Params{
		DB:       conn,
		Log:      log,
		Clock:    clk,
		Repo:     directoryrepository.Provide(),
		Recorder: recorder,
	})

	repo := repository.Provide()
	ledger := NewLedger(LedgerParams{Clock: clk, Repo: repo})
	svc := NewService(Params{
		DB:        conn,
		Log:       log,
		Clock:     clk,
		Repo:      repo,
		Ledger:    ledger,
		Recorder:  recorder,
		Directory: directory,
	})

	return &harness{
		db:        conn,
		clock:     clk,
		publisher: publisher,
		repo:      repo,
		ledger:    ledger,
		audit:     auditRepo,
		directory: directory,
		svc:       svc,
	}
}

func (h *harness) createMedicine(t *testing.T, name string, quantity, minimum int, price string) *domain.Medicine {
	t.Helper()
	m, err := h.svc.CreateMedicine(context.Background(), domain.CreateMedicineRequest{
		Name:         name,
		Category:     "Analgesic",
		Quantity:     quantity,
		MinimumStock: &minimum,
		UnitPrice:    decimal.RequireFromString(price),
		User:         "alice",
	})
	require.NoError(t, err)
	return m
}

func (h *harness) adjustments(t *testing.T, id domain.MedicineID) []*auditdomain.StockAdjustment {
	t.Helper()
	items, err := h.audit.ListAdjustments(context.Background(), h.db, auditdomain.AdjustmentFilter{MedicineID: id})
	require.NoError(t, err)
	return items
}

func TestCreateMedicineRecordsInitialStock(t *testing.T) {
	h := newHarness(t)

	m := h.createMedicine(t, "Paracetamol 500mg", 10, 5, "2.00")

	assert.Equal(t, 10, m.Quantity)
	assert.Equal(t, domain.StatusOK, m.Status)

	stored, err := h.svc.Get(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Quantity)
	assert.Equal(t, domain.StatusOK, stored.Status)
	assert.True(t, stored.UnitPrice.Equal(decimal.RequireFromString("2.00")))

	adjs := h.adjustments(t, m.ID)
	require.Len(t, adjs, 1)
	assert.Equal(t, 0, adjs[0].OldQuantity)
	assert.Equal(t, 10, adjs[0].NewQuantity)
	assert.Equal(t, 10, adjs[0].Change)
	assert.Equal(t, initialStockReason, adjs[0].Reason)
	assert.Equal(t, "alice", adjs[0].CreatedBy)

	assert.Contains(t, h.publisher.Actions(), "Medicine 1 added: Paracetamol 500mg")
}

func TestCreateMedicineWithoutStock(t *testing.T) {
	h := newHarness(t)

	m, err := h.svc.CreateMedicine(context.Background(), domain.CreateMedicineRequest{
		Name:      "Ibuprofen",
		UnitPrice: decimal.RequireFromString("3.50"),
	})
	require.NoError(t, err)

	assert.Equal(t, 0, m.Quantity)
	assert.Equal(t, domain.DefaultMinimumStock, m.MinimumStock)
	assert.Equal(t, domain.StatusOutOfStock, m.Status)
	assert.Empty(t, h.adjustments(t, m.ID))
}

func TestCreateMedicineValidation(t *testing.T) {
	h := newHarness(t)
	unknownSupplier := directorydomain.SupplierID(99)
	negative := -1

	tests := []struct {
		name string
		req  domain.CreateMedicineRequest
		kind apperror.Kind
	}{
		{"blank name", domain.CreateMedicineRequest{Name: " ", UnitPrice: decimal.NewFromInt(1)}, apperror.KindInvalidInput},
		{"zero price", domain.CreateMedicineRequest{Name: "A", UnitPrice: decimal.Zero}, apperror.KindInvalidInput},
		{"sub-cent price", domain.CreateMedicineRequest{Name: "A", UnitPrice: decimal.RequireFromString("0.335")}, apperror.KindInvalidInput},
		{"negative quantity", domain.CreateMedicineRequest{Name: "A", UnitPrice: decimal.NewFromInt(1), Quantity: -1}, apperror.KindInvalidQuantity},
		{"negative minimum", domain.CreateMedicineRequest{Name: "A", UnitPrice: decimal.NewFromInt(1), MinimumStock: &negative}, apperror.KindInvalidQuantity},
		{"unknown supplier", domain.CreateMedicineRequest{Name: "A", UnitPrice: decimal.NewFromInt(1), SupplierID: &unknownSupplier}, apperror.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateMedicine(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}

	count, err := h.repo.Count(context.Background(), h.db)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateMedicineWithSupplier(t *testing.T) {
	h := newHarness(t)
	supplier, err := h.directory.CreateSupplier(context.Background(), directorydomain.CreateSupplierRequest{Name: "Medika"})
	require.NoError(t, err)

	minimum := 5
	m, err := h.svc.CreateMedicine(context.Background(), domain.CreateMedicineRequest{
		Name:         "Amoxicillin",
		Quantity:     20,
		MinimumStock: &minimum,
		UnitPrice:    decimal.RequireFromString("7.25"),
		SupplierID:   &supplier.ID,
	})
	require.NoError(t, err)

	adjs := h.adjustments(t, m.ID)
	require.Len(t, adjs, 1)
	require.NotNil(t, adjs[0].SupplierID)
	assert.Equal(t, supplier.ID, *adjs[0].SupplierID)
}

func TestLedgerApplyDelta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.createMedicine(t, "Paracetamol", 10, 5, "2.00")

	quantity, err := h.ledger.ApplyDelta(ctx, h.db, m.ID, -7, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, quantity)

	level, err := h.ledger.ReadQuantity(ctx, h.db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, level.Quantity)
	assert.Equal(t, domain.StatusLowStock, level.Status)

	stored, err := h.repo.FindByID(ctx, h.db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLowStock, stored.Status)

	quantity, err = h.ledger.ApplyDelta(ctx, h.db, m.ID, -3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, quantity)

	stored, err = h.repo.FindByID(ctx, h.db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOutOfStock, stored.Status)
}

func TestLedgerRejectsNegativeResult(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.createMedicine(t, "Paracetamol", 3, 5, "2.00")

	_, err := h.ledger.ApplyDelta(ctx, h.db, m.ID, -4, 3)
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)

	var insufficient *apperror.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Available)
	assert.Equal(t, 4, insufficient.Requested)

	level, err := h.ledger.ReadQuantity(ctx, h.db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, level.Quantity)
}

func TestLedgerStaleExpectedQuantityConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.createMedicine(t, "Paracetamol", 10, 5, "2.00")

	_, err := h.ledger.ApplyDelta(ctx, h.db, m.ID, -1, 9)
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.True(t, apperror.IsRetryable(err))

	level, err := h.ledger.ReadQuantity(ctx, h.db, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, level.Quantity)
}

func TestLedgerUnknownMedicine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ledger.ReadQuantity(ctx, h.db, 42)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = h.ledger.ApplyDelta(ctx, h.db, 42, 1, 0)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLedgerRejectsInvalidDelta(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := h.createMedicine(t, "Paracetamol", 10, 5, "2.00")

	_, err := h.ledger.ApplyDelta(ctx, h.db, m.ID, 0, 10)
	assert.ErrorIs(t, err, apperror.ErrInvalidQuantity)

	_, err = h.ledger.ApplyDelta(ctx, h.db, m.ID, 1, -1)
	assert.ErrorIs(t, err, apperror.ErrInvalidQuantity)
}

func TestValidPrice(t *testing.T) {
	assert.True(t, domain.ValidPrice(decimal.RequireFromString("0.34")))
	assert.True(t, domain.ValidPrice(decimal.RequireFromString("2.500")))
	assert.False(t, domain.ValidPrice(decimal.RequireFromString("0.335")))
	assert.False(t, domain.ValidPrice(decimal.Zero))
	assert.False(t, domain.ValidPrice(decimal.RequireFromString("-1")))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, domain.StatusOutOfStock, domain.StatusFor(0, 5))
	assert.Equal(t, domain.StatusOutOfStock, domain.StatusFor(-1, 0))
	assert.Equal(t, domain.StatusLowStock, domain.StatusFor(4, 5))
	assert.Equal(t, domain.StatusOK, domain.StatusFor(5, 5))
	assert.Equal(t, domain.StatusOK, domain.StatusFor(1, 0))
}

func TestListAndLowStock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.createMedicine(t, "Paracetamol", 10, 5, "2.00")
	h.createMedicine(t, "Ibuprofen", 2, 5, "3.00")
	h.createMedicine(t, "Cough Syrup", 0, 1, "4.00")

	resp, err := h.svc.List(ctx, domain.ListMedicinesRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, resp.Medicines, 2)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "Cough Syrup", resp.Medicines[0].Name)

	next, err := h.svc.List(ctx, domain.ListMedicinesRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: resp.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, next.Medicines, 1)
	assert.False(t, next.HasMore)
	assert.Equal(t, "Paracetamol", next.Medicines[0].Name)

	search, err := h.svc.List(ctx, domain.ListMedicinesRequest{Query: "IBU"})
	require.NoError(t, err)
	require.Len(t, search.Medicines, 1)
	assert.Equal(t, "Ibuprofen", search.Medicines[0].Name)

	low, err := h.svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Cough Syrup", low[0].Name)
	assert.Equal(t, "Ibuprofen", low[1].Name)
}
