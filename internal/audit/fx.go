package audit

import (
	"github.com/smallbiznis/apotek/internal/audit/repository"
	"github.com/smallbiznis/apotek/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewRecorder),
	fx.Provide(service.NewActivityWriter),
	fx.Provide(service.NewService),
)
