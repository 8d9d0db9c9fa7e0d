package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	metrics "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmetrics "github.com/slok/go-http-metrics/middleware"
	ginmetrics "github.com/slok/go-http-metrics/middleware/gin"
)

const maxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc    ports.WalletService
	OperationSvc ports.OperationService
	HealthSvc    ports.HealthService
	RateLimiter  ports.RateLimiter // nil = rate limiting disabled
	RateLimit    middleware.RateLimitRule
	Registry     *prometheus.Registry // nil = no /metrics endpoint
	Mode         string
	Logger       zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}
	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	if deps.Registry != nil {
		mdlw := httpmetrics.New(httpmetrics.Config{
			Recorder: metrics.NewRecorder(metrics.Config{Registry: deps.Registry}),
		})
		r.Use(routeMetrics(mdlw))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	health := HealthCheck(deps.HealthSvc)
	r.GET("/", Root)
	r.GET("/health", health)

	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimiter == nil || deps.RateLimit.Limit <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, deps.RateLimit, deps.Logger)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	operationHandler := NewOperationHandler(deps.OperationSvc)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.GET("/health", health)

	wallets := v1.Group("/wallets")
	{
		wallets.POST("", walletHandler.Create)
		wallets.GET("/:uuid", walletHandler.GetBalance)
		wallets.GET("/:uuid/operations", walletHandler.ListOperations)
		wallets.POST("/:uuid/operation", rl("wallet_operation"), operationHandler.Apply)
	}

	return r
}

// routeMetrics labels request metrics with the matched route template so
// wallet ids never become label values.
func routeMetrics(m httpmetrics.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ginmetrics.Handler(route, m)(c)
	}
}
