package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/apotek/internal/apperror"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/smallbiznis/apotek/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var maxTaxRate = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Repo     domain.Repository
	Defaults *config.StoreDefaultsHolder
	Recorder auditdomain.Recorder
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	repo     domain.Repository
	defaults *config.StoreDefaultsHolder
	recorder auditdomain.Recorder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("settings.service"),
		clock:    p.Clock,
		repo:     p.Repo,
		defaults: p.Defaults,
		recorder: p.Recorder,
	}
}

// NewReader exposes the tax rate lookup on its own so coordinators do not
// depend on the settings write path.
func NewReader(svc domain.Service) domain.Reader {
	return svc
}

// Get returns the stored settings, or the store defaults when nothing has
// been saved yet.
func (s *Service) Get(ctx context.Context) (*domain.Settings, error) {
	stored, err := s.repo.Find(ctx, s.db)
	if err != nil {
		return nil, apperror.FromStore("get settings", err)
	}
	if stored != nil {
		return stored, nil
	}

	defaults := s.defaults.Get()
	return &domain.Settings{
		ID:           domain.SingletonID,
		PharmacyName: defaults.PharmacyName,
		Address:      defaults.Address,
		Phone:        defaults.Phone,
		TaxRate:      defaults.TaxRate,
		Currency:     defaults.Currency,
	}, nil
}

func (s *Service) TaxRate(ctx context.Context) (decimal.Decimal, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return current.TaxRate, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateSettingsRequest) (*domain.Settings, error) {
	updated := domain.Settings{
		ID:           domain.SingletonID,
		PharmacyName: strings.TrimSpace(req.PharmacyName),
		Address:      strings.TrimSpace(req.Address),
		Phone:        strings.TrimSpace(req.Phone),
		TaxRate:      req.TaxRate.Round(2),
		Currency:     strings.ToUpper(strings.TrimSpace(req.Currency)),
		UpdatedBy:    strings.TrimSpace(req.User),
		UpdatedAt:    s.clock.Now(),
	}
	switch {
	case updated.PharmacyName == "":
		return nil, apperror.InvalidInput("pharmacy_name", "is required")
	case updated.Currency == "":
		return nil, apperror.InvalidInput("currency", "is required")
	case updated.TaxRate.IsNegative() || updated.TaxRate.GreaterThan(maxTaxRate):
		return nil, apperror.InvalidInput("tax_rate", "must be between 0 and 100")
	}

	if err := s.repo.Upsert(ctx, s.db, &updated); err != nil {
		return nil, apperror.FromStore("update settings", err)
	}

	s.log.Info("settings updated", zap.String("tax_rate", updated.TaxRate.String()), zap.String("currency", updated.Currency))
	s.recorder.RecordActivity(ctx, req.User, "Settings updated", map[string]any{
		"tax_rate": updated.TaxRate.StringFixed(2),
		"currency": updated.Currency,
		"phone":    updated.Phone,
		"address":  updated.Address,
	})
	return &updated, nil
}
