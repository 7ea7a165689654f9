package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/billflow/internal/client"
	clientdomain "github.com/smallbiznis/billflow/internal/client/domain"
	"github.com/smallbiznis/billflow/internal/config"
	"github.com/smallbiznis/billflow/internal/invoice"
	invoicedomain "github.com/smallbiznis/billflow/internal/invoice/domain"
	"github.com/smallbiznis/billflow/internal/observability"
	obslogger "github.com/smallbiznis/billflow/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/billflow/internal/observability/metrics"
	obstracing "github.com/smallbiznis/billflow/internal/observability/tracing"
	"github.com/smallbiznis/billflow/internal/product"
	productdomain "github.com/smallbiznis/billflow/internal/product/domain"
	"github.com/smallbiznis/billflow/internal/ratelimit"
	"github.com/smallbiznis/billflow/internal/report"
	reportdomain "github.com/smallbiznis/billflow/internal/report/domain"
	"github.com/smallbiznis/billflow/internal/supplier"
	supplierdomain "github.com/smallbiznis/billflow/internal/supplier/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	supplier.Module,
	client.Module,
	product.Module,
	invoice.Module,
	report.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	clientSvc   clientdomain.Service
	supplierSvc supplierdomain.Service
	productSvc  productdomain.Service
	invoiceSvc  invoicedomain.Service
	reportSvc   reportdomain.Service
	obsMetrics  *obsmetrics.Metrics
	limiter     *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	ClientSvc   clientdomain.Service
	SupplierSvc supplierdomain.Service
	ProductSvc  productdomain.Service
	InvoiceSvc  invoicedomain.Service
	ReportSvc   reportdomain.Service
	ObsMetrics  *obsmetrics.Metrics `optional:"true"`
	Limiter     *ratelimit.Limiter  `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		clientSvc:   p.ClientSvc,
		supplierSvc: p.SupplierSvc,
		productSvc:  p.ProductSvc,
		invoiceSvc:  p.InvoiceSvc,
		reportSvc:   p.ReportSvc,
		obsMetrics:  p.ObsMetrics,
		limiter:     p.Limiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	write := s.WriteRateLimit()

	// -------- Clients --------
	api.GET("/clients", s.ListClients)
	api.POST("/clients", write, s.CreateClient)
	api.GET("/clients/:id", s.GetClientByID)
	api.PUT("/clients/:id", write, s.UpdateClient)
	api.DELETE("/clients/:id", write, s.DeleteClient)

	// -------- Suppliers --------
	api.GET("/suppliers", s.ListSuppliers)
	api.POST("/suppliers", write, s.CreateSupplier)
	api.GET("/suppliers/:id", s.GetSupplierByID)
	api.PUT("/suppliers/:id", write, s.UpdateSupplier)
	api.DELETE("/suppliers/:id", write, s.DeleteSupplier)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.POST("/products", write, s.CreateProduct)
	api.GET("/products/batteries", s.ListBatteries)
	api.GET("/products/serial/:fragment", s.FindProductsBySerial)
	api.GET("/products/:id", s.GetProductByID)
	api.PUT("/products/:id", write, s.UpdateProduct)
	api.DELETE("/products/:id", write, s.DeleteProduct)
	api.GET("/products/:id/serials", s.ListAvailableSerials)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", write, s.CreateInvoice)
	api.GET("/invoices/stats", s.GetInvoiceStats)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id", write, s.UpdateInvoice)
	api.DELETE("/invoices/:id", write, s.DeleteInvoice)
	api.PATCH("/invoices/:id/status", write, s.UpdateInvoiceStatus)
	api.GET("/invoices/:id/pdf", s.RenderInvoicePDF)

	// -------- Reports --------
	api.GET("/reports/sales-summary", s.GetSalesSummary)
	api.GET("/reports/product-performance", s.GetProductPerformance)
	api.GET("/reports/financial-summary", s.GetFinancialSummary)
	api.GET("/reports/inventory-status", s.GetInventoryStatus)
	api.GET("/reports/serial/:serialNumber", s.TraceBatterySerial)

	if !s.cfg.IsProduction() {
		api.POST("/test/cleanup", s.TestCleanup)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
