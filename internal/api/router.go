package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"resumeai/internal/api/middleware"
	"resumeai/internal/auth"
	"resumeai/internal/config"
	"resumeai/internal/metrics"
)

// Dependencies 汇总路由需要的服务。AI 与 Payments 在未配置外部服务时依然可用，由服务自身返回错误。
type Dependencies struct {
	Config      *config.Config
	Logger      *slog.Logger
	AuthService *auth.AuthService
	Redis       redis.UniversalClient

	Users    UserStore
	Resumes  ResumeStore
	AI       interface {
		Generator
		JobAnalyzer
	}
	Payments PaymentService
	Exports  ExportService
}

// NewRouter 构建 Gin 引擎：恢复、关联 ID、请求日志、指标与 CORS，然后注册 /v1 路由。
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(deps.Logger),
		metrics.GinMiddleware(),
	)
	if origins := deps.Config.API.AllowedOrigins; len(origins) > 0 {
		router.Use(cors.New(corsConfig(origins)))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	metricsHandler := gin.WrapH(promhttp.Handler())
	if secret := deps.Config.API.InternalSecret; secret != "" {
		router.GET("/metrics", middleware.InternalSecretMiddleware(secret), metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}

	RegisterRoutes(router, deps)
	return router
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"},
		ExposeHeaders:    []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
