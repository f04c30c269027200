package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	commissiondomain "github.com/swiftdrop/dispatch/internal/commission/domain"
	"github.com/swiftdrop/dispatch/internal/config"
	obslogger "github.com/swiftdrop/dispatch/internal/observability/logger"
	obsmetrics "github.com/swiftdrop/dispatch/internal/observability/metrics"
	payoutdomain "github.com/swiftdrop/dispatch/internal/payout/domain"
	pricingdomain "github.com/swiftdrop/dispatch/internal/pricing/domain"
	"github.com/swiftdrop/dispatch/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires the HTTP surface.
var Module = fx.Module("http.server",
	fx.Provide(obsmetrics.NewHTTPMetrics),
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger

	pricingSvc    pricingdomain.Service
	commissionSvc commissiondomain.Service
	payoutSvc     payoutdomain.Service

	limiter *ratelimit.TokenBucket
}

type Params struct {
	fx.In

	Engine *gin.Engine
	Cfg    config.Config
	Log    *zap.Logger

	PricingSvc    pricingdomain.Service
	CommissionSvc commissiondomain.Service
	PayoutSvc     payoutdomain.Service

	Limiter *ratelimit.TokenBucket `optional:"true"`
}

func NewServer(p Params) *Server {
	return &Server{
		engine:        p.Engine,
		cfg:           p.Cfg,
		log:           p.Log.Named("server"),
		pricingSvc:    p.PricingSvc,
		commissionSvc: p.CommissionSvc,
		payoutSvc:     p.PayoutSvc,
		limiter:       p.Limiter,
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, log *zap.Logger, metrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(obslogger.GinMiddleware(log))
	engine.Use(metrics.GinMiddleware())
	engine.Use(ErrorHandlingMiddleware())
	return engine
}

// RegisterRoutes mounts all endpoints.
func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")

	pricing := v1.Group("/pricing")
	pricing.POST("/quote", s.rateLimited("pricing_quote"), s.QuoteDeliveryFee)
	pricing.GET("/snapshot", s.GetPricingSnapshot)

	commissions := v1.Group("/commissions")
	commissions.POST("/settle", s.SettleCommission)
	commissions.GET("/stats", s.GetCommissionStats)
	commissions.GET("/:order_id", s.GetCommission)
	commissions.POST("/:order_id/paid", s.MarkCommissionPaid)
	commissions.POST("/:order_id/cancel", s.CancelCommission)
}

// rateLimited applies the redis token bucket keyed by client IP. A nil
// limiter (no redis configured) disables limiting; a redis failure fails
// open so pricing stays available.
func (s *Server) rateLimited(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		key := "ratelimit:" + scope + ":" + c.ClientIP()
		result, err := s.limiter.Allow(c.Request.Context(), key,
			s.cfg.QuoteRateLimitPerSecond, s.cfg.QuoteRateLimitBurst)
		if err != nil {
			s.log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"type": "rate_limited", "message": "too many requests"},
			})
			return
		}
		c.Next()
	}
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Named("server").Error("http server stopped", zap.Error(err))
				}
			}()
			log.Named("server").Info("http server listening", zap.String("port", cfg.HTTPPort))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
