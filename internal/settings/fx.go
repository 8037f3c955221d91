package settings

import (
	"github.com/smallbiznis/apotek/internal/settings/repository"
	"github.com/smallbiznis/apotek/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(service.NewReader),
)
