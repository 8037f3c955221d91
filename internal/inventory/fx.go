package inventory

import (
	"github.com/smallbiznis/apotek/internal/inventory/repository"
	"github.com/smallbiznis/apotek/internal/inventory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewLedger),
	fx.Provide(service.NewService),
)
