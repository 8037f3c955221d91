package service

import (
	"context"

	"github.com/smallbiznis/apotek/internal/activity"
	"github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityWriter stores delivered activity events. It is the queue's sink
// and runs outside any business transaction.
type ActivityWriter struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewActivityWriter(conn *gorm.DB, log *zap.Logger, repo domain.Repository) activity.Sink {
	return &ActivityWriter{
		db:   conn,
		log:  log.Named("audit.activity_writer"),
		repo: repo,
	}
}

func (w *ActivityWriter) Write(ctx context.Context, e activity.Event) error {
	entry := domain.ActivityLog{
		EventID:   e.ID.Int64(),
		User:      e.User,
		Action:    e.Action,
		CreatedAt: e.OccurredAt.UTC(),
	}
	if len(e.Metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(e.Metadata)
	}

	err := w.repo.InsertActivity(ctx, w.db, &entry)
	if db.IsDuplicateKeyErr(err) {
		w.log.Debug("activity already stored", zap.Int64("event_id", entry.EventID))
		return nil
	}
	return err
}
