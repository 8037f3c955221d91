package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/activity"
	"github.com/smallbiznis/apotek/internal/adjustment"
	"github.com/smallbiznis/apotek/internal/audit"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/smallbiznis/apotek/internal/directory"
	"github.com/smallbiznis/apotek/internal/inventory"
	"github.com/smallbiznis/apotek/internal/lock"
	"github.com/smallbiznis/apotek/internal/migration"
	"github.com/smallbiznis/apotek/internal/observability"
	"github.com/smallbiznis/apotek/internal/redisclient"
	"github.com/smallbiznis/apotek/internal/refund"
	"github.com/smallbiznis/apotek/internal/report"
	"github.com/smallbiznis/apotek/internal/sale"
	"github.com/smallbiznis/apotek/internal/server"
	"github.com/smallbiznis/apotek/internal/settings"
	"github.com/smallbiznis/apotek/internal/stockwatch"
	"github.com/smallbiznis/apotek/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		redisclient.Module,
		lock.Module,
		migration.Module,

		// Functional Domains
		activity.Module,
		audit.Module,
		directory.Module,
		inventory.Module,
		settings.Module,
		sale.Module,
		refund.Module,
		adjustment.Module,
		report.Module,
		stockwatch.Module,

		server.Module,

		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
