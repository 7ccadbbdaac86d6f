// Package server exposes the billing core to the presentation layer over
// HTTP. It carries no rendering or auth of its own.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	analyticsdomain "github.com/municipay/municipay/internal/analytics/domain"
	auditdomain "github.com/municipay/municipay/internal/audit/domain"
	billingdomain "github.com/municipay/municipay/internal/billing/domain"
	"github.com/municipay/municipay/internal/config"
	defaultersdomain "github.com/municipay/municipay/internal/defaulters/domain"
	forecastdomain "github.com/municipay/municipay/internal/forecast/domain"
	registrydomain "github.com/municipay/municipay/internal/registry/domain"
)

type Server struct {
	log *zap.Logger
	db  *gorm.DB

	accounts      registrydomain.Repository
	billingsvc    billingdomain.Service
	defaulterssvc defaultersdomain.Service
	analyticssvc  analyticsdomain.Service
	forecastsvc   forecastdomain.Service
	auditsvc      auditdomain.Service
}

type Params struct {
	fx.In

	Log        *zap.Logger
	DB         *gorm.DB
	Accounts   registrydomain.Repository
	Billing    billingdomain.Service
	Defaulters defaultersdomain.Service
	Analytics  analyticsdomain.Service
	Forecast   forecastdomain.Service
	Audit      auditdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		log:           p.Log.Named("server"),
		db:            p.DB,
		accounts:      p.Accounts,
		billingsvc:    p.Billing,
		defaulterssvc: p.Defaulters,
		analyticssvc:  p.Analytics,
		forecastsvc:   p.Forecast,
		auditsvc:      p.Audit,
	}
}

func NewEngine(cfg config.Config, s *Server, reg *prometheus.Registry) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestID())

	engine.GET("/healthz", s.Health)
	engine.GET("/readyz", s.Ready)
	if cfg.Metrics.Enabled {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	api := engine.Group("/api/v1")
	{
		api.POST("/bills/generate", s.GenerateBills)
		api.POST("/bills/preview", s.PreviewBills)
		api.POST("/bills/:id/serve", s.MarkBillServed)
		api.GET("/defaulters", s.ClassifyDefaulters)
		api.GET("/analytics/collection", s.AggregateCollection)
		api.GET("/analytics/series", s.MonthlySeries)
		api.GET("/analytics/forecast", s.ForecastRevenue)
		api.GET("/zones", s.ListZones)
		api.GET("/accounts/:type/:id", s.GetAccount)
		api.GET("/audit", s.ListAuditEvents)
	}
	return engine
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Set("request_id", id)
		c.Next()
	}
}

func Run(lc fx.Lifecycle, cfg config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Provide(NewEngine),
	fx.Invoke(Run),
)
