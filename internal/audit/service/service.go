package service

import (
	"context"

	"github.com/smallbiznis/apotek/internal/apperror"
	"github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("audit.service"),
		repo: p.Repo,
	}
}

func (s *Service) ListAdjustments(ctx context.Context, req domain.ListAdjustmentsRequest) (domain.ListAdjustmentsResponse, error) {
	beforeID, err := req.BeforeID()
	if err != nil {
		return domain.ListAdjustmentsResponse{}, apperror.InvalidInput("page_token", err.Error())
	}
	limit := req.Limit()

	items, err := s.repo.ListAdjustments(ctx, s.db, domain.AdjustmentFilter{
		MedicineID: req.MedicineID,
		BeforeID:   beforeID,
		Limit:      limit,
	})
	if err != nil {
		return domain.ListAdjustmentsResponse{}, apperror.FromStore("list stock adjustments", err)
	}

	items, info := pagination.BuildCursorPageInfo(items, limit, func(item *domain.StockAdjustment) int64 {
		return int64(item.ID)
	})
	resp := domain.ListAdjustmentsResponse{PageInfo: info, Adjustments: make([]domain.StockAdjustment, 0, len(items))}
	for _, item := range items {
		resp.Adjustments = append(resp.Adjustments, *item)
	}
	return resp, nil
}

func (s *Service) ListActivity(ctx context.Context, req domain.ListActivityRequest) (domain.ListActivityResponse, error) {
	beforeID, err := req.BeforeID()
	if err != nil {
		return domain.ListActivityResponse{}, apperror.InvalidInput("page_token", err.Error())
	}
	limit := req.Limit()

	items, err := s.repo.ListActivity(ctx, s.db, domain.ActivityFilter{
		User:     req.User,
		Contains: req.Contains,
		BeforeID: beforeID,
		Limit:    limit,
	})
	if err != nil {
		return domain.ListActivityResponse{}, apperror.FromStore("list activity", err)
	}

	items, info := pagination.BuildCursorPageInfo(items, limit, func(item *domain.ActivityLog) int64 {
		return int64(item.ID)
	})
	resp := domain.ListActivityResponse{PageInfo: info, Entries: make([]domain.ActivityLog, 0, len(items))}
	for _, item := range items {
		resp.Entries = append(resp.Entries, *item)
	}
	return resp, nil
}
