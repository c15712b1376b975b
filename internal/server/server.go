package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"payment-gateway/internal/metrics"
	"payment-gateway/internal/service"
)

// HealthFunc reports dependency health, e.g. database.Service.Health.
type HealthFunc func(ctx context.Context) map[string]string

type Deps struct {
	Orders    service.OrderService
	Payments  service.PaymentService
	Merchants service.MerchantService

	Health   HealthFunc
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	CORSOrigins    []string
	PublicCheckout bool
}

type Server struct {
	orders    service.OrderService
	payments  service.PaymentService
	merchants service.MerchantService
	health    HealthFunc
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	logger    *zap.Logger

	corsOrigins    []string
	publicCheckout bool
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		orders:         d.Orders,
		payments:       d.Payments,
		merchants:      d.Merchants,
		health:         d.Health,
		metrics:        d.Metrics,
		gatherer:       d.Gatherer,
		logger:         logger.With(zap.String("component", "http_server")),
		corsOrigins:    d.CORSOrigins,
		publicCheckout: d.PublicCheckout,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		s.requestContext(),
		s.accessLog(),
		gin.CustomRecovery(s.recover),
		cors.New(s.corsConfig()),
	)

	r.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	{
		authed := api.Group("", s.merchantAuth())
		authed.POST("/orders", s.handleCreateOrder)
		authed.GET("/orders/:order_id", s.handleGetOrder)
		authed.POST("/payments", s.handleCreatePayment)
		authed.GET("/payments", s.handleListPayments)
		authed.GET("/payments/:payment_id", s.handleGetPayment)

		if s.publicCheckout {
			public := api.Group("/public")
			public.GET("/orders/:order_id", s.handleGetPublicOrder)
			public.POST("/payments", s.handleCreatePublicPayment)
			public.GET("/payments/:payment_id", s.handleGetPublicPayment)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, codeNotFound, "Route not found")
	})
	return r
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", headerAPIKey, headerAPISecret, headerIdempotencyKey, headerRequestID},
		ExposeHeaders: []string{headerRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(s.corsOrigins) == 0 || slices.Contains(s.corsOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.corsOrigins
	}
	return cfg
}

// HTTPServer wraps the router for graceful shutdown by the caller.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
		return
	}
	stats := s.health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
