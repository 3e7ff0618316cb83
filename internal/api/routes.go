package api

import (
	"github.com/gin-gonic/gin"

	"resumeai/internal/api/middleware"
)

// RegisterRoutes 注册 /v1 下的全部业务路由。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	cfg := deps.Config

	authHandler := NewAuthHandler(deps.Users, deps.AuthService, deps.Redis, deps.Logger, cfg.Auth)
	wsHandler := NewWsHandler(deps.Redis, deps.AuthService, deps.Logger, cfg.API.AllowedOrigins)
	resumeHandler := NewResumeHandler(deps.Resumes, deps.AI)
	aiHandler := NewAIHandler(deps.AI)
	paymentHandler := NewPaymentHandler(deps.Payments)
	exportHandler := NewExportHandler(deps.Exports)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()
	aiLimit := AIRateLimit(deps.Redis, cfg.API.AIRateLimitPerHour)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/user", authMiddleware, authHandler.CurrentUser)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		protected := v1.Group("")
		protected.Use(authMiddleware, passwordGate)

		resumes := protected.Group("/resumes")
		{
			resumes.GET("", resumeHandler.List)
			resumes.POST("", resumeHandler.Create)
			resumes.GET("/:id", resumeHandler.Get)
			resumes.PATCH("/:id", resumeHandler.Update)
			resumes.DELETE("/:id", resumeHandler.Delete)
			resumes.POST("/:id/duplicate", resumeHandler.Duplicate)
			resumes.GET("/:id/preview", resumeHandler.Preview)
			resumes.POST("/:id/analyze-job", aiLimit, resumeHandler.AnalyzeJob)
			resumes.POST("/:id/export", exportHandler.Start)
			resumes.GET("/:id/exports", exportHandler.List)
		}

		aiGroup := protected.Group("/ai", aiLimit)
		{
			aiGroup.POST("/generate-summary", aiHandler.GenerateSummary)
			aiGroup.POST("/generate-bullets", aiHandler.GenerateBullets)
		}

		payments := protected.Group("/payments")
		{
			payments.GET("", paymentHandler.History)
			payments.GET("/plans", paymentHandler.Plans)
			payments.POST("/initiate", paymentHandler.Initiate)
			payments.POST("/verify", paymentHandler.Verify)
			payments.POST("/cancel", paymentHandler.Cancel)
		}

		protected.POST("/downloads/use-credit", paymentHandler.UseCredit)

		exports := protected.Group("/exports")
		{
			exports.GET("/:id", exportHandler.Get)
			exports.GET("/:id/download-link", exportHandler.DownloadLink)
		}
	}
}
