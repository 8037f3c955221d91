package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	adjustmentdomain "github.com/smallbiznis/apotek/internal/adjustment/domain"
	auditdomain "github.com/smallbiznis/apotek/internal/audit/domain"
	"github.com/smallbiznis/apotek/internal/config"
	directorydomain "github.com/smallbiznis/apotek/internal/directory/domain"
	inventorydomain "github.com/smallbiznis/apotek/internal/inventory/domain"
	obslogger "github.com/smallbiznis/apotek/internal/observability/logger"
	obstracing "github.com/smallbiznis/apotek/internal/observability/tracing"
	refunddomain "github.com/smallbiznis/apotek/internal/refund/domain"
	reportdomain "github.com/smallbiznis/apotek/internal/report/domain"
	saledomain "github.com/smallbiznis/apotek/internal/sale/domain"
	settingsdomain "github.com/smallbiznis/apotek/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	saleSvc       saledomain.Service
	refundSvc     refunddomain.Service
	inventorySvc  inventorydomain.Service
	adjustmentSvc adjustmentdomain.Service
	auditSvc      auditdomain.Service
	directorySvc  directorydomain.Service
	settingsSvc   settingsdomain.Service
	reportSvc     reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	SaleSvc       saledomain.Service
	RefundSvc     refunddomain.Service
	InventorySvc  inventorydomain.Service
	AdjustmentSvc adjustmentdomain.Service
	AuditSvc      auditdomain.Service
	DirectorySvc  directorydomain.Service
	SettingsSvc   settingsdomain.Service
	ReportSvc     reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		saleSvc:       p.SaleSvc,
		refundSvc:     p.RefundSvc,
		inventorySvc:  p.InventorySvc,
		adjustmentSvc: p.AdjustmentSvc,
		auditSvc:      p.AuditSvc,
		directorySvc:  p.DirectorySvc,
		settingsSvc:   p.SettingsSvc,
		reportSvc:     p.ReportSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1")

	// -------- Sales --------
	api.POST("/sales", s.CreateSale)
	api.GET("/sales", s.ListSales)
	api.GET("/sales/:id", s.GetSale)
	api.GET("/sales/:id/refundable", s.ListRefundableLines)

	// -------- Returns --------
	api.POST("/returns", s.CreateReturn)
	api.GET("/returns", s.ListReturns)

	// -------- Medicines --------
	api.POST("/medicines", s.CreateMedicine)
	api.GET("/medicines", s.ListMedicines)
	api.GET("/medicines/low-stock", s.ListLowStock)
	api.GET("/medicines/:id", s.GetMedicine)
	api.PATCH("/medicines/:id", s.EditMedicine)
	api.POST("/medicines/:id/stock", s.AdjustStock)
	api.POST("/medicines/:id/movements", s.MoveStock)

	// -------- Audit --------
	api.GET("/stock-adjustments", s.ListStockAdjustments)
	api.GET("/activity", s.ListActivity)

	// -------- Settings --------
	api.GET("/settings", s.GetSettings)
	api.PUT("/settings", s.UpdateSettings)

	// -------- Directory --------
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomer)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.POST("/suppliers", s.CreateSupplier)
	api.GET("/suppliers", s.ListSuppliers)
	api.GET("/suppliers/:id", s.GetSupplier)
	api.PATCH("/suppliers/:id", s.UpdateSupplier)
	api.PUT("/suppliers/:id/active", s.SetSupplierActive)

	// -------- Reports --------
	api.GET("/dashboard", s.GetDashboard)
	api.GET("/reports/sales", s.GetSalesReport)
	api.GET("/reports/stock", s.GetStockReport)
	api.GET("/reports/customers", s.GetCustomersReport)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
