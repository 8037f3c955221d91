package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/activity"
	"github.com/smallbiznis/apotek/internal/apperror"
	"github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/audit/masking"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/observability/logger"
	"github.com/smallbiznis/apotek/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const systemUser = "system"

type RecorderParams struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Publisher activity.Publisher
	Metrics   *metrics.Metrics `optional:"true"`
}

type Recorder struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	publisher activity.Publisher
	metrics   *metrics.Metrics
}

func NewRecorder(p RecorderParams) domain.Recorder {
	return &Recorder{
		log:       p.Log.Named("audit.recorder"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		publisher: p.Publisher,
		metrics:   p.Metrics,
	}
}

func (r *Recorder) RecordAdjustment(ctx context.Context, tx *gorm.DB, in domain.AdjustmentInput) (domain.AdjustmentID, error) {
	if in.NewQuantity == in.OldQuantity {
		return 0, apperror.InvalidQuantity("quantity", "adjustment does not change the quantity")
	}
	if in.NewQuantity < 0 || in.OldQuantity < 0 {
		return 0, apperror.InvalidQuantity("quantity", "must not be negative")
	}

	adj := domain.StockAdjustment{
		MedicineID:  in.MedicineID,
		OldQuantity: in.OldQuantity,
		NewQuantity: in.NewQuantity,
		Change:      in.NewQuantity - in.OldQuantity,
		SupplierID:  in.SupplierID,
		Reason:      strings.TrimSpace(in.Reason),
		CreatedBy:   strings.TrimSpace(in.User),
		CreatedAt:   r.clock.Now(),
	}
	if err := r.repo.InsertAdjustment(ctx, tx, &adj); err != nil {
		return 0, apperror.FromStore("record stock adjustment", err)
	}
	return adj.ID, nil
}

func (r *Recorder) RecordActivity(ctx context.Context, user, action string, metadata map[string]any) {
	action = strings.TrimSpace(action)
	if action == "" {
		return
	}
	user = strings.TrimSpace(user)
	if user == "" {
		user = systemUser
	}

	event := activity.Event{
		ID:         r.genID.Generate(),
		User:       user,
		Action:     action,
		Metadata:   masking.MaskJSON(metadata),
		OccurredAt: r.clock.Now(),
	}

	if err := r.publisher.Publish(ctx, event); err != nil {
		reason := "publish_failed"
		if errors.Is(err, activity.ErrQueueFull) {
			reason = "queue_full"
		}
		r.metrics.RecordActivityDropped(ctx, reason)
		logger.WithContext(ctx, r.log).Warn("failed to publish activity",
			zap.String("action", action),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return
	}
	r.metrics.RecordActivityPublished(ctx)
}
