package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payment-gateway/internal/domain"
	"payment-gateway/internal/logging"
)

const (
	headerRequestID      = "X-Request-ID"
	headerAPIKey         = "X-Api-Key"
	headerAPISecret      = "X-Api-Secret"
	headerIdempotencyKey = "Idempotency-Key"

	merchantKey = "merchant"
)

// requestContext extracts W3C trace context, assigns a request id and puts a
// request-scoped logger on the request context.
func (s *Server) requestContext() gin.HandlerFunc {
	prop := otel.GetTextMapPropagator()
	return func(c *gin.Context) {
		ctx := prop.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(headerRequestID, rid)

		fields := []zap.Field{zap.String("request_id", rid)}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		ctx = logging.ContextWithLogger(ctx, s.logger.With(fields...))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)

		logger := logging.FromContext(c.Request.Context())
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("http_request", fields...)
		default:
			logger.Info("http_request", fields...)
		}
	}
}

func (s *Server) recover(c *gin.Context, recovered any) {
	logging.FromContext(c.Request.Context()).Error("panic_recovered", zap.Any("panic", recovered))
	writeError(c, http.StatusInternalServerError, codeInternal, "")
}

// merchantAuth resolves the merchant from the X-Api-Key / X-Api-Secret pair.
func (s *Server) merchantAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		m, err := s.merchants.Authenticate(ctx, c.GetHeader(headerAPIKey), c.GetHeader(headerAPISecret))
		if err != nil {
			if !isNotFound(err) {
				logging.FromContext(ctx).Error("merchant_auth_failed", zap.Error(err))
				writeError(c, http.StatusInternalServerError, codeInternal, "")
				return
			}
			writeError(c, http.StatusUnauthorized, codeAuthentication, "Invalid API credentials")
			return
		}

		c.Set(merchantKey, m)
		logger := logging.FromContext(ctx).With(zap.String("merchant_id", m.ID))
		c.Request = c.Request.WithContext(logging.ContextWithLogger(ctx, logger))
		c.Next()
	}
}

func merchantFrom(c *gin.Context) *domain.Merchant {
	m, _ := c.MustGet(merchantKey).(*domain.Merchant)
	return m
}
