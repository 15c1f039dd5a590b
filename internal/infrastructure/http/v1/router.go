package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/mosaic/internal/infrastructure/http/v1/middleware"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/config"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/logger"
	"github.com/jaennil/guide_helper/backend/mosaic/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Request-ID"

type RouterConfig struct {
	TelemetryEnabled bool
	TrustedProxies   []string
	AllowedOrigins   []string
	AuthHeader       string
	AuthQueryParam   string
}

func NewRouterConfig(cfg *config.Config) RouterConfig {
	return RouterConfig{
		TelemetryEnabled: cfg.Telemetry.Enabled,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AuthHeader:       cfg.Auth.HeaderName,
		AuthQueryParam:   cfg.Auth.QueryParam,
	}
}

func NewRouter(handler *handler.Handler, gate middleware.Gate, cfg RouterConfig, l logger.Logger) (*gin.Engine, error) {
	r := gin.New()

	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(gin.Recovery())

	if cfg.TelemetryEnabled {
		r.Use(telemetry.GinMiddleware("/health", "/healthz", "/metrics"))
	}

	r.Use(ginZapLogger(l))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.APIKeyAuth(gate, cfg.AuthHeader, cfg.AuthQueryParam))
	r.Use(middleware.RateLimit(gate))

	r.GET("/health", handler.Healthz)
	r.GET("/healthz", handler.Healthz)

	mosaic := r.Group("/mosaicjson")
	mosaic.POST("/generate", handler.GenerateMosaic)
	mosaic.GET("/validate", handler.ValidateMosaic)
	mosaic.GET("/read", handler.ReadMosaic)

	cache := r.Group("/cache")
	cache.GET("/stats", handler.CacheStats)
	cache.GET("/tiles/:id", handler.CacheTile)
	cache.POST("/reload", handler.CacheReload)

	// Prometheus metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r, nil
}

func ginZapLogger(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		rl := l.With("request_id", requestID)
		c.Set("logger", rl)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), rl))

		start := time.Now()

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		rl.Info("request",
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
			"latency", latency,
			"size", c.Writer.Size(),
		)
	}
}
