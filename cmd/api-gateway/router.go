package main

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/hotel-inventory-backend/internal/common/config"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/metrics"
	"github.com/dumeirei/hotel-inventory-backend/internal/common/response"
	hotelHandler "github.com/dumeirei/hotel-inventory-backend/internal/handler/hotel"
	"github.com/dumeirei/hotel-inventory-backend/internal/middleware"
	"github.com/dumeirei/hotel-inventory-backend/internal/realtime"
	hotelService "github.com/dumeirei/hotel-inventory-backend/internal/service/hotel"
)

// maxBodySize 请求体上限
const maxBodySize = 1 << 20

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	services *hotelService.Services,
	hub *realtime.Hub,
) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	probePaths := []string{"/health", "/ping", "/ready", metricsPath}

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(&middleware.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		SkipPaths:   probePaths,
	}))
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORS(&cfg.CORS))
	logCfg := middleware.DefaultLoggingConfig(logger)
	logCfg.SkipPaths = probePaths
	r.Use(middleware.Logging(logCfg))
	if cfg.Metrics.Enabled {
		r.Use(metrics.GetMetrics().Middleware(metricsPath))
		r.GET(metricsPath, metrics.Handler())
	}

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient != nil))

	// Swagger 文档，发布模式不暴露
	if !cfg.IsRelease() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RequestSizeLimiter(maxBodySize))
	if cfg.RateLimit.Enabled {
		if redisClient != nil {
			v1.Use(middleware.RateLimit(middleware.RateLimitFromConfig(redisClient, &cfg.RateLimit)))
		} else {
			logger.Warn("Rate limit enabled but redis is disabled, skipping")
		}
	}

	hotelHandler.NewHandler(services, hub).RegisterRoutes(v1)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在")
	})
}
