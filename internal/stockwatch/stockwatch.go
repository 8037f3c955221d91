package stockwatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	"github.com/smallbiznis/apotek/internal/lock"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	jobName    = "low_stock_scan"
	lockKey    = "apotek:lock:low_stock_scan"
	jobTimeout = 30 * time.Second
	// maxListed caps how many names go into one activity entry.
	maxListed = 20
)

var ErrInvalidConfig = errors.New("stockwatch: invalid config")

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	Inventory  inventorydomain.Service
	Recorder   auditdomain.Recorder
	Locker     *lock.Locker        `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
	JobMetrics *metrics.JobMetrics `optional:"true"`
}

// Watcher periodically reports medicines below their minimum stock to the
// activity log.
type Watcher struct {
	log        *zap.Logger
	clock      clock.Clock
	spec       string
	inventory  inventorydomain.Service
	recorder   auditdomain.Recorder
	locker     *lock.Locker
	metrics    *metrics.Metrics
	jobMetrics *metrics.JobMetrics
	cron       *cron.Cron
}

func New(p Params) (*Watcher, error) {
	if p.Log == nil || p.Clock == nil || p.Inventory == nil || p.Recorder == nil {
		return nil, ErrInvalidConfig
	}
	spec := strings.TrimSpace(p.Config.LowStockScanSpec)
	if spec == "" {
		spec = "@every 1h"
	}
	return &Watcher{
		log:        p.Log.Named("stockwatch").With(zap.String("component", "stockwatch")),
		clock:      p.Clock,
		spec:       spec,
		inventory:  p.Inventory,
		recorder:   p.Recorder,
		locker:     p.Locker,
		metrics:    p.Metrics,
		jobMetrics: p.JobMetrics,
		cron:       cron.New(),
	}, nil
}

func (w *Watcher) Start() error {
	if _, err := w.cron.AddFunc(w.spec, func() {
		if err := w.RunOnce(context.Background()); err != nil {
			w.log.Error("low stock scan failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %s: %w", jobName, err)
	}
	w.cron.Start()
	w.log.Info("stockwatch started", zap.String("spec", w.spec))
	return nil
}

func (w *Watcher) Stop(ctx context.Context) {
	stopped := w.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	w.log.Info("stockwatch stopped")
}

// RunOnce performs one scan. When a Redis locker is configured only one
// instance runs the scan at a time; the others skip it.
func (w *Watcher) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	if w.locker != nil {
		token, ok, err := w.locker.TryLock(ctx, lockKey, jobTimeout)
		if err != nil {
			w.jobMetrics.IncError(jobName, err)
			return fmt.Errorf("%s: acquire lock: %w", jobName, err)
		}
		if !ok {
			w.jobMetrics.IncLockSkip(jobName)
			w.log.Debug("scan skipped, lock held elsewhere")
			return nil
		}
		defer func() {
			if err := w.locker.Release(context.Background(), lockKey, token); err != nil {
				w.log.Warn("failed to release lock", zap.Error(err))
			}
		}()
	}

	start := w.clock.Now()
	w.jobMetrics.IncRun(jobName)
	found, err := w.scan(ctx)
	w.jobMetrics.ObserveDuration(jobName, w.clock.Now().Sub(start))
	if err != nil {
		w.jobMetrics.IncError(jobName, err)
		if errors.Is(err, context.DeadlineExceeded) {
			w.log.Warn("scan timed out", zap.Duration("timeout", jobTimeout), zap.Error(err))
			return nil
		}
		return fmt.Errorf("%s: %w", jobName, err)
	}
	w.metrics.RecordLowStockScan(ctx, found)
	return nil
}

func (w *Watcher) scan(ctx context.Context) (int, error) {
	items, err := w.inventory.LowStock(ctx)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	names := make([]string, 0, min(len(items), maxListed))
	ids := make([]int64, 0, len(items))
	for i, item := range items {
		ids = append(ids, int64(item.ID))
		if i < maxListed {
			names = append(names, fmt.Sprintf("%s (%d/%d)", item.Name, item.Quantity, item.MinimumStock))
		}
	}
	action := fmt.Sprintf("Low stock: %s", strings.Join(names, ", "))
	if extra := len(items) - len(names); extra > 0 {
		action = fmt.Sprintf("%s and %d more", action, extra)
	}

	w.recorder.RecordActivity(ctx, "", action, map[string]any{
		"medicine_ids": ids,
		"count":        len(items),
	})
	return len(items), nil
}
