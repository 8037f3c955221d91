package adjustment

import (
	"github.com/smallbiznis/apotek/internal/adjustment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("adjustment.service",
	fx.Provide(service.NewService),
)
