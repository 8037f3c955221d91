package stockwatch

import (
	"context"

	"github.com/smallbiznis/apotek/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("stockwatch",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg config.Config, w *Watcher) {
	if !cfg.LowStockScanEnabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return w.Start()
		},
		OnStop: func(ctx context.Context) error {
			w.Stop(ctx)
			return nil
		},
	})
}
